package xrl

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aaltoxr/xrld/kit"
	"github.com/aaltoxr/xrld/routestore"
)

// RegisterMCP registers capture tools on an MCP server, making the same
// operations the HTTP surface exposes callable by agents.
func (s *Service) RegisterMCP(srv *mcp.Server, routes *routestore.Store) {
	s.registerLayoutTool(srv)
	s.registerRenderTool(srv)
	s.registerRendersTool(srv)
	registerRouteTools(srv, routes)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- layout ---

type layoutReq struct {
	URL string `json:"url"`
}

func (s *Service) registerLayoutTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "xrl_layout",
		Description: "Extract the XRL reading layout of a web page: regions by reading role plus the uncovered remainder geometry.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL to capture"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*layoutReq)
		return s.Layout(ctx, r.URL)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r layoutReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- render ---

type renderReq struct {
	URL string `json:"url"`
	PDF bool   `json:"pdf"`
}

func (s *Service) registerRenderTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "xrl_render",
		Description: "Render a web page into screenshots: full page plus one image per reading region, optionally a validated PDF.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL to render"},
			"pdf": map[string]any{"type": "boolean", "description": "Also print the page to PDF"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*renderReq)
		return s.Render(ctx, r.URL, RenderOptions{PDF: r.PDF})
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r renderReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerRendersTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "xrl_renders",
		Description: "List the IDs of completed render captures stored on disk, oldest first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	kit.RegisterMCPTool(srv, tool,
		func(context.Context, any) (any, error) {
			return s.images.Renders()
		},
		func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: struct{}{}}, nil
		})
}

// --- route slots ---

type getRouteReq struct {
	Slot int `json:"slot"`
}

type setRouteReq struct {
	Slot int    `json:"slot"`
	URL  string `json:"url"`
}

func registerRouteTools(srv *mcp.Server, routes *routestore.Store) {
	list := &mcp.Tool{
		Name:        "xrl_routes",
		Description: "List the configurable demo route slots and their current targets.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	kit.RegisterMCPTool(srv, list,
		func(ctx context.Context, _ any) (any, error) {
			return routes.List(ctx)
		},
		func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: struct{}{}}, nil
		})

	get := &mcp.Tool{
		Name:        "xrl_get_route",
		Description: "Get the current target of one demo route slot.",
		InputSchema: inputSchema(map[string]any{
			"slot": map[string]any{"type": "integer", "description": "Slot number, 1-based"},
		}, []string{"slot"}),
	}
	kit.RegisterMCPTool(srv, get,
		func(ctx context.Context, req any) (any, error) {
			r := req.(*getRouteReq)
			return routes.Get(ctx, r.Slot)
		},
		func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			var r getRouteReq
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
			return &kit.MCPDecodeResult{Request: &r}, nil
		})

	set := &mcp.Tool{
		Name:        "xrl_set_route",
		Description: "Point a demo route slot at a new target URL.",
		InputSchema: inputSchema(map[string]any{
			"slot": map[string]any{"type": "integer", "description": "Slot number, 1-based"},
			"url":  map[string]any{"type": "string", "description": "Absolute http(s) target"},
		}, []string{"slot", "url"}),
	}
	kit.RegisterMCPTool(srv, set,
		func(ctx context.Context, req any) (any, error) {
			r := req.(*setRouteReq)
			return routes.Set(ctx, r.Slot, r.URL)
		},
		func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			var r setRouteReq
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
			return &kit.MCPDecodeResult{Request: &r}, nil
		})
}
