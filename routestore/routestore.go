// Package routestore persists the configurable demo route slots. Each slot
// maps /custom/{num} to an external URL; targets survive restarts because
// they live in SQLite rather than process memory.
package routestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaltoxr/xrld/dbopen"
	"github.com/aaltoxr/xrld/safeweb"
)

// Sentinel errors. Handlers map ErrSlotRange and ErrInvalidURL to 404 and
// 400 respectively.
var (
	ErrSlotRange  = errors.New("routestore: slot out of range")
	ErrInvalidURL = errors.New("routestore: invalid target URL")
)

// Schema creates the slots table. Passed to dbopen.Open via WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS route_slots (
	slot       INTEGER PRIMARY KEY CHECK (slot >= 1),
	target_url TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

// Store reads and writes route slots.
type Store struct {
	db    *sql.DB
	slots int
}

// Slot is one configurable route.
type Slot struct {
	Num       int    `json:"num"`
	TargetURL string `json:"target_url"`
	UpdatedAt string `json:"updated_at"`
}

// defaultTargets seed empty slots on first start so the demo works out of
// the box. Extra defaults beyond the configured slot count are ignored.
var defaultTargets = []string{
	"https://www.aalto.fi",
	"https://en.wikipedia.org/wiki/Aalto_University",
	"https://github.com",
}

// New wraps db and seeds missing slots 1..slots with defaults. The schema
// must already exist (dbopen.WithSchema(routestore.Schema)).
func New(ctx context.Context, db *sql.DB, slots int) (*Store, error) {
	if slots < 1 {
		return nil, fmt.Errorf("routestore: slot count %d", slots)
	}
	s := &Store{db: db, slots: slots}
	if err := s.seed(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seed(ctx context.Context) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for n := 1; n <= s.slots; n++ {
			target := ""
			if n-1 < len(defaultTargets) {
				target = defaultTargets[n-1]
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO route_slots (slot, target_url) VALUES (?, ?)
				 ON CONFLICT (slot) DO NOTHING`, n, target); err != nil {
				return fmt.Errorf("routestore: seed slot %d: %w", n, err)
			}
		}
		return nil
	})
}

// Slots returns the configured slot count.
func (s *Store) Slots() int { return s.slots }

// Get returns the target for slot num.
func (s *Store) Get(ctx context.Context, num int) (Slot, error) {
	if num < 1 || num > s.slots {
		return Slot{}, fmt.Errorf("%w: %d", ErrSlotRange, num)
	}
	var out Slot
	err := s.db.QueryRowContext(ctx,
		`SELECT slot, target_url, updated_at FROM route_slots WHERE slot = ?`, num).
		Scan(&out.Num, &out.TargetURL, &out.UpdatedAt)
	if err != nil {
		return Slot{}, fmt.Errorf("routestore: get slot %d: %w", num, err)
	}
	return out, nil
}

// Set updates slot num to target. The target must be a well-formed
// absolute http(s) URL; reachability is not checked, a typo'd target just
// produces a broken redirect.
func (s *Store) Set(ctx context.Context, num int, target string) (Slot, error) {
	if num < 1 || num > s.slots {
		return Slot{}, fmt.Errorf("%w: %d", ErrSlotRange, num)
	}
	if err := safeweb.WellFormed(target); err != nil {
		return Slot{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE route_slots
			 SET target_url = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
			 WHERE slot = ?`, target, num)
		return err
	})
	if err != nil {
		return Slot{}, fmt.Errorf("routestore: set slot %d: %w", num, err)
	}
	return s.Get(ctx, num)
}

// List returns all slots in order.
func (s *Store) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, target_url, updated_at FROM route_slots ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("routestore: list: %w", err)
	}
	defer rows.Close()
	var out []Slot
	for rows.Next() {
		var sl Slot
		if err := rows.Scan(&sl.Num, &sl.TargetURL, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("routestore: scan: %w", err)
		}
		if sl.Num > s.slots {
			continue
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}
