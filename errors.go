package chronicle

import "errors"

// Error kinds (spec.md §7). Wrapped with fmt.Errorf("...: %w", err) at the
// call site so callers can still errors.Is against the sentinel.
var (
	// ErrPreconditionFailure is returned by Merge on a root with no pristine
	// snapshot.
	ErrPreconditionFailure = errors.New("chronicle: precondition failed")

	// ErrUserCallbackFailed wraps an error returned by a Transaction action;
	// the enclosing frame is rolled back before this is returned.
	ErrUserCallbackFailed = errors.New("chronicle: transaction action failed")
)
