package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedXML        = errors.New("malformed XML")
	ErrUnsupportedWorkflow = errors.New("unsupported workflow")
	ErrUnsupportedPackage  = errors.New("unsupported package")
	ErrRuleTargetNotFound  = errors.New("rule target not found")
	ErrInvalidPattern      = errors.New("invalid pattern")
	ErrDiffTooLarge        = errors.New("diff too large")
)

// MalformedXMLError reports input that is not well-formed XML.
type MalformedXMLError struct {
	Line   int
	Offset int64
	Err    error
}

func (e *MalformedXMLError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed XML at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed XML: %v", e.Err)
}

func (e *MalformedXMLError) Unwrap() []error {
	return []error{ErrMalformedXML, e.Err}
}

// UnsupportedWorkflowError reports well-formed XML that lacks the elements of
// an Alteryx document.
type UnsupportedWorkflowError struct {
	Root    string
	Missing string
}

func (e *UnsupportedWorkflowError) Error() string {
	return fmt.Sprintf("unsupported workflow: missing <%s> (root element is <%s>)", e.Missing, e.Root)
}

func (e *UnsupportedWorkflowError) Unwrap() error {
	return ErrUnsupportedWorkflow
}

// UnsupportedPackageError reports well-formed XML that lacks the elements of
// an ODI package.
type UnsupportedPackageError struct {
	Root    string
	Missing string
}

func (e *UnsupportedPackageError) Error() string {
	return fmt.Sprintf("unsupported package: missing <%s> (root element is <%s>)", e.Missing, e.Root)
}

func (e *UnsupportedPackageError) Unwrap() error {
	return ErrUnsupportedPackage
}

// IsMalformedXML checks if an error is a MalformedXMLError
func IsMalformedXML(err error) bool {
	var target *MalformedXMLError
	return errors.As(err, &target)
}

// IsUnsupported checks if an error reports a missing structural element in
// either format.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedWorkflow) || errors.Is(err, ErrUnsupportedPackage)
}
