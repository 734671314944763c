package parser

import "fmt"

// UnsupportedFormatError is returned for extensions or dialects that cannot
// be parsed or written back.
type UnsupportedFormatError struct {
	Extension string
	Reason    string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("Unsupported file format: %s (%s)", e.Extension, e.Reason)
	}
	return fmt.Sprintf("Unsupported file format: %s", e.Extension)
}

// MalformedInputError wraps a decoder failure.
type MalformedInputError struct {
	Format Format
	Cause  error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s input: %v", e.Format, e.Cause)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Cause
}

// ReconstructionError indicates an entry selected for write-back lacks the
// locator its format requires.
type ReconstructionError struct {
	Format Format
	Source string
	Reason string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("reconstruct %s entry %q: %s", e.Format, e.Source, e.Reason)
}
