package polaris

import "fmt"

// ResourceErrorKind enumerates the ways a Resource Store lookup can fail.
type ResourceErrorKind int

const (
	// ResourceNotFound means no value of the requested type was ever inserted.
	ResourceNotFound ResourceErrorKind = iota
	// ResourceBorrowConflict means a conflicting lease is currently held.
	ResourceBorrowConflict
	// ResourceImmutable means a mutable lease was requested on a Global resource.
	ResourceImmutable
)

func (k ResourceErrorKind) String() string {
	switch k {
	case ResourceNotFound:
		return "ResourceNotFound"
	case ResourceBorrowConflict:
		return "BorrowConflict"
	case ResourceImmutable:
		return "ImmutableResource"
	default:
		return "Unknown"
	}
}

// ResourceError is returned by Resources.Get/GetMut.
type ResourceError struct {
	Kind     ResourceErrorKind
	TypeName string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.TypeName)
}

// OutputError is returned by Outputs.Get when the slot has never been written.
type OutputError struct {
	TypeName string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("OutputMissing(%s)", e.TypeName)
}

// SystemErrorKind enumerates the failure modes a System.Run may report,
// per the error taxonomy a System's caller must distinguish between.
type SystemErrorKind int

const (
	SystemResourceNotFound SystemErrorKind = iota
	SystemResourceMissing
	SystemBorrowConflict
	SystemOutputMissing
	SystemExecutionError
	SystemOther
)

func (k SystemErrorKind) String() string {
	switch k {
	case SystemResourceNotFound:
		return "ResourceNotFound"
	case SystemResourceMissing:
		return "ResourceMissing"
	case SystemBorrowConflict:
		return "BorrowConflict"
	case SystemOutputMissing:
		return "OutputMissing"
	case SystemExecutionError:
		return "ExecutionError"
	default:
		return "Other"
	}
}

// SystemError is the error type a System's Run method returns.
type SystemError struct {
	Kind    SystemErrorKind
	Message string
	Cause   error
}

func (e *SystemError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// ExecutionErrorf builds a SystemError of kind SystemExecutionError.
func ExecutionErrorf(format string, args ...any) *SystemError {
	return &SystemError{Kind: SystemExecutionError, Message: fmt.Sprintf(format, args...)}
}

func wrapResourceError(err error) *SystemError {
	if err == nil {
		return nil
	}
	var rerr *ResourceError
	if ok := asResourceError(err, &rerr); ok {
		switch rerr.Kind {
		case ResourceNotFound:
			return &SystemError{Kind: SystemResourceNotFound, Cause: err}
		case ResourceBorrowConflict:
			return &SystemError{Kind: SystemBorrowConflict, Cause: err}
		case ResourceImmutable:
			return &SystemError{Kind: SystemOther, Cause: err}
		}
	}
	var operr *OutputError
	if ok := asOutputError(err, &operr); ok {
		return &SystemError{Kind: SystemOutputMissing, Cause: err}
	}
	return &SystemError{Kind: SystemOther, Cause: err}
}

func asResourceError(err error, target **ResourceError) bool {
	if re, ok := err.(*ResourceError); ok {
		*target = re
		return true
	}
	return false
}

func asOutputError(err error, target **OutputError) bool {
	if oe, ok := err.(*OutputError); ok {
		*target = oe
		return true
	}
	return false
}

// GraphExecutionError wraps any node-level failure with the failing node's identity.
type GraphExecutionError struct {
	Node NodeID
	Err  error
}

func (e *GraphExecutionError) Error() string {
	return fmt.Sprintf("graph execution failed at node %s: %v", e.Node, e.Err)
}

func (e *GraphExecutionError) Unwrap() error {
	return e.Err
}
