package diag

import (
	"locheck/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Key is the localization key the diagnostic is about.
	Key string
	// Cultures lists the cultures lacking Key (PartialMissing), sorted, or
	// the culture of the offending file (Duplicate).
	Cultures []string
	Notes    []Note
	Fixes    []*Fix
}
