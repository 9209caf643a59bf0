package executor

import "errors"

// State-machine and business-rule errors. Provider failures are
// returned as *providers.Error; everything else is one of these
// sentinels so callers can branch with errors.Is.
var (
	// ErrInvalidState: the recommendation or action is not in the
	// status the operation requires. No record is mutated.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrUnsupportedAction: no handler is registered for the
	// (provider, resource kind, recommendation kind) triple. The
	// recommendation stays pending and no action row is created.
	ErrUnsupportedAction = errors.New("unsupported action for resource")

	// ErrRollbackUnavailable: the action carries no rollback payload,
	// e.g. after a deletion.
	ErrRollbackUnavailable = errors.New("rollback unavailable for action")

	// ErrRollbackWindowExpired: the 24h rollback window has elapsed.
	ErrRollbackWindowExpired = errors.New("rollback window expired")

	// ErrResourceBusy: another apply or rollback is in flight for the
	// same resource in this workspace.
	ErrResourceBusy = errors.New("resource has an operation in flight")
)
