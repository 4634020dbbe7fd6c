package ledger

import "fmt"

// Error is a coded ledger error. The code surfaces in handler summary logs
// as err_code, so values stay short and stable.
type Error struct {
	ErrCode string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Code returns the stable machine-readable code of the error.
func (e *Error) Code() string { return e.ErrCode }

var (
	// ErrNotFound reports an operation on a user id that was never created.
	ErrNotFound = &Error{ErrCode: "NOT_FOUND", Message: "user record not found"}
	// ErrAlreadySet reports a duplicate phone registration. Non-fatal.
	ErrAlreadySet = &Error{ErrCode: "ALREADY_SET", Message: "phone already registered"}
	// ErrInvalidState reports a mutation that would violate a ledger
	// invariant, such as a negative balance.
	ErrInvalidState = &Error{ErrCode: "INVALID_STATE", Message: "mutation violates ledger invariant"}
	// ErrSelfReferral reports a user trying to refer themselves.
	ErrSelfReferral = &Error{ErrCode: "SELF_REFERRAL", Message: "user cannot refer themselves"}
	// ErrAlreadyAttributed reports a referral for a user that already has an
	// inviter. First-touch wins.
	ErrAlreadyAttributed = &Error{ErrCode: "ALREADY_ATTRIBUTED", Message: "user already has an inviter"}
)

// PersistenceError wraps a failed durable commit. The mutation that caused
// it is rolled back; the store keeps serving.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: durable commit failed: %v", e.Op, e.Err)
}

// Code identifies persistence failures in summary logs.
func (e *PersistenceError) Code() string { return "PERSISTENCE" }

func (e *PersistenceError) Unwrap() error { return e.Err }
