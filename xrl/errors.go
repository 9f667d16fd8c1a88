package xrl

import "errors"

// Sentinel errors for the capture pipeline. Handlers map them onto the
// HTTP error taxonomy: bad input 400, unreachable target 502, everything
// else 500.
var (
	// ErrBadURL marks a request URL that fails validation before any
	// network activity.
	ErrBadURL = errors.New("xrl: bad url")

	// ErrPageLoad marks a target that could not be fetched or navigated:
	// DNS failure, refused connection, navigation timeout, non-success
	// status on the final hop.
	ErrPageLoad = errors.New("xrl: page load failed")

	// ErrCapture marks a browser-side failure after successful navigation:
	// evaluation errors, screenshot failures, malformed extraction output.
	ErrCapture = errors.New("xrl: capture failed")
)
