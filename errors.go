package granary

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrIO is returned when the store cannot be read or written.
	ErrIO = errors.New("cache i/o failure")

	// ErrDeserialize is returned when a persisted entry is corrupt.
	// It is never recovered from by recomputing: the entry must be deleted by hand.
	ErrDeserialize = errors.New("cache entry cannot be decoded")

	// ErrSchemaViolation is returned when input data does not have the shape an extractor expects.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrNotFound is returned when a named attribute or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSource is returned when the dataset source fails while being iterated.
	ErrSource = errors.New("source failure")

	// ErrCycle is returned when attribute dependencies form a cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrInvalidName is returned when an attribute name cannot be used as an entry name.
	ErrInvalidName = errors.New("invalid attribute name")
)

// Kind classifies an Error.
type Kind int

const (
	// KindIO marks a failure to read or write the store.
	KindIO Kind = iota + 1
	// KindDeserialize marks a persisted entry that cannot be decoded.
	KindDeserialize
	// KindSchemaViolation marks input data of an unexpected shape.
	KindSchemaViolation
	// KindNotFound marks an unknown attribute or a missing entry.
	KindNotFound
	// KindSource marks a failure of the dataset source.
	KindSource
	// KindInvalidName marks a name that is empty or contains a path separator.
	KindInvalidName
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindDeserialize:
		return "deserialize"
	case KindSchemaViolation:
		return "schema violation"
	case KindNotFound:
		return "not found"
	case KindSource:
		return "source"
	case KindInvalidName:
		return "invalid name"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindDeserialize:
		return ErrDeserialize
	case KindSchemaViolation:
		return ErrSchemaViolation
	case KindNotFound:
		return ErrNotFound
	case KindSource:
		return ErrSource
	case KindInvalidName:
		return ErrInvalidName
	default:
		return nil
	}
}

// Error is the structured error returned by cache and attribute loading.
// errors.Is matches both the wrapped cause and the sentinel for its Kind.
type Error struct {
	Kind      Kind
	Attribute string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Kind.String())
	if e.Attribute != "" {
		fmt.Fprintf(&buf, " [%s]", e.Attribute)
	}
	if e.Err != nil {
		fmt.Fprintf(&buf, ": %v", e.Err)
	}
	return buf.String()
}

// Unwrap returns the cause and the Kind sentinel.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// newError wraps err into an *Error unless it already is one.
func newError(kind Kind, attribute string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Attribute: attribute, Err: err}
}

// SchemaViolation builds an ErrSchemaViolation error for the named attribute.
func SchemaViolation(attribute, format string, args ...any) error {
	return &Error{Kind: KindSchemaViolation, Attribute: attribute, Err: fmt.Errorf(format, args...)}
}

// ValidateName reports whether name can identify a persisted entry.
// Names must be non-empty and free of path separators.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return &Error{Kind: KindInvalidName, Attribute: name, Err: fmt.Errorf("%q cannot name a cache entry", name)}
	}
	return nil
}

// SourceError wraps a failure reported by the dataset source.
func SourceError(attribute string, err error) error {
	return newError(KindSource, attribute, err)
}

// GraphError represents one or more problems found while building a Graph.
type GraphError struct {
	Errors []error
}

// Error implements the error interface.
func (ge *GraphError) Error() string {
	if len(ge.Errors) == 0 {
		return "invalid graph"
	}
	if len(ge.Errors) == 1 {
		return fmt.Sprintf("invalid graph: %v", ge.Errors[0])
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("invalid graph with %d errors:\n", len(ge.Errors)))
	for i, err := range ge.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (ge *GraphError) Unwrap() []error {
	return ge.Errors
}

func newGraphError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &GraphError{Errors: errs}
}

// CycleError reports the path of a dependency cycle.
type CycleError struct {
	Path []string
}

// Error lists the attributes of the cycle in dependency order.
func (ce *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(ce.Path, " -> "))
}

// Unwrap returns ErrCycle.
func (ce *CycleError) Unwrap() error {
	return ErrCycle
}
