package unroll

import "fmt"

// WarningKind classifies a non-fatal problem found during a pass.
type WarningKind string

const (
	WarnCycleDetected       WarningKind = "cycle_detected"
	WarnUnresolvedAddress   WarningKind = "unresolved_address"
	WarnDuplicateLabel      WarningKind = "duplicate_label"
	WarnLabelDropped        WarningKind = "label_dropped"
	WarnTemplateMissing     WarningKind = "template_file_missing"
	WarnBibliographyMissing WarningKind = "bibliography_file_missing"
)

// Warning is reported to the user at the end of a pass.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
	File    string      `json:"file,omitempty"`
}

func (w Warning) String() string {
	if w.File == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.File)
}

// CycleError describes an embed that would re-enter a note already being
// resolved, or nest deeper than MaxDepth.
type CycleError struct {
	Address string
	Section string
	Depth   int
}

func (e *CycleError) Error() string {
	target := e.Address
	if e.Section != "" {
		target += "#" + e.Section
	}
	return fmt.Sprintf("cycle detected embedding %q at depth %d", target, e.Depth)
}

// UnresolvedError describes an embed address that no file matches, or
// whose file could not be read or parsed.
type UnresolvedError struct {
	Address string
	File    string
	Err     error
}

func (e *UnresolvedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unresolved address %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("unresolved address %q", e.Address)
}

func (e *UnresolvedError) Unwrap() error { return e.Err }

// InvariantError is a fatal internal inconsistency. It aborts the pass.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Msg
}
