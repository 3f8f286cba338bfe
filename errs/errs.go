// Package errs defines the closed error-kind enumeration used at every
// boundary of the storage core.
package errs

import "fmt"

// Code identifies the kind of failure a core operation returns. The set is
// closed: callers switch on Code rather than matching error strings.
type Code int

const (
	Internal Code = iota
	ValidationFailed
	MetadataTooLarge
	PartialObjectPatchRejected
	NotFound
	Conflict
	CatalogCorrupt
	PartitionRuleInvalid
	OrphanedPartitionBlocked
	PermissionDenied
	Throttled
	Unavailable
	CryptoFailure
	InvalidArgument
)

func (c Code) String() string {
	switch c {
	case ValidationFailed:
		return "validation_failed"
	case MetadataTooLarge:
		return "metadata_too_large"
	case PartialObjectPatchRejected:
		return "partial_object_patch_rejected"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case CatalogCorrupt:
		return "catalog_corrupt"
	case PartitionRuleInvalid:
		return "partition_rule_invalid"
	case OrphanedPartitionBlocked:
		return "orphaned_partition_blocked"
	case PermissionDenied:
		return "permission_denied"
	case Throttled:
		return "throttled"
	case Unavailable:
		return "unavailable"
	case CryptoFailure:
		return "crypto_failure"
	case InvalidArgument:
		return "invalid_argument"
	default:
		return "internal"
	}
}

// Error is the single error type returned across the core's boundary. It
// carries structured fields so callers never need to parse a message.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that carries an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithField attaches a structured field and returns the same error for
// chaining at the call site.
func (e *Error) WithField(k string, v any) *Error {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[k] = v
	return e
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

// IsNotFound reports whether err represents a NotFound condition.
func IsNotFound(err error) bool { return Is(err, NotFound) }

func NotFoundErr(kind, key string) *Error {
	return New(NotFound, "%s not found: %s", kind, key).WithField("kind", kind).WithField("key", key)
}

func ConflictErr(key, detail string) *Error {
	return New(Conflict, "conflict on %s: %s", key, detail).WithField("key", key)
}

func MetadataTooLargeErr(size, budget int) *Error {
	return New(MetadataTooLarge, "encoded envelope is %d bytes, budget is %d", size, budget).
		WithField("size", size).WithField("budget", budget)
}

func ValidationFailedErr(fieldErrors []string) *Error {
	return New(ValidationFailed, "validation failed: %v", fieldErrors).WithField("fields", fieldErrors)
}

func PartialPatchRejectedErr(path string) *Error {
	return New(PartialObjectPatchRejected, "patch to %q would silently drop sibling fields", path).
		WithField("path", path)
}

func CatalogCorruptErr(diagnostic string) *Error {
	return New(CatalogCorrupt, "catalog corrupt: %s", diagnostic)
}

func PartitionRuleInvalidErr(rule string) *Error {
	return New(PartitionRuleInvalid, "invalid partition rule: %s", rule).WithField("rule", rule)
}

func OrphanedPartitionBlockedErr(partition string) *Error {
	return New(OrphanedPartitionBlocked, "partition %q has orphaned references", partition).
		WithField("partition", partition)
}

func CryptoFailureErr(cause error) *Error {
	return Wrap(CryptoFailure, cause, "cryptographic operation failed")
}

func InvalidArgumentErr(format string, args ...any) *Error {
	return New(InvalidArgument, format, args...)
}
