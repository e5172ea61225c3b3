package actors

import (
	"fmt"

	stderrors "github.com/orizon-lang/actorsched/internal/errors"
)

// errContractViolation reports a programming contract violation: a
// condition spec.md §7 classifies as a fatal assertion failure rather than
// a recoverable error (mute(a, a), register/unregister imbalance, a
// non-empty local queue at termination).
func errContractViolation(op, details string) *stderrors.StandardError {
	return stderrors.NewStandardError(stderrors.CategoryValidation, "CONTRACT_VIOLATION",
		fmt.Sprintf("%s: %s", op, details),
		map[string]interface{}{"op": op})
}

// errStartupFailure reports a startup-time failure the caller is expected
// to handle (ASIO failing to start, a worker thread failing to spawn).
func errStartupFailure(component string, cause error) *stderrors.StandardError {
	ctx := map[string]interface{}{"component": component}
	if cause != nil {
		ctx["cause"] = cause.Error()
	}

	return stderrors.NewStandardError(stderrors.CategorySystem, "STARTUP_FAILURE",
		fmt.Sprintf("failed to start %s", component), ctx)
}
