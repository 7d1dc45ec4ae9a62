// Package diag defines the diagnostic model shared by the catalog builder,
// the analysis engine, the fix engine and the renderers.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning, Error.
//   - Code – numeric identifier with a stable string form. The key codes keep
//     the public names MISSING_KEY, UNUSED_KEY, PARTIAL_MISSING_KEY and
//     DUPLICATE_KEY.
//   - Message – human oriented text.
//   - Primary – the source.Span the diagnostic is anchored to: a usage site for
//     Missing/PartialMissing, a resource key for Unused/Duplicate.
//   - Key, Cultures – the localization key and, for PartialMissing, the sorted
//     cultures lacking it.
//   - Notes, Fixes – secondary context and automated corrections.
//
// # Fix suggestions
//
// Fix is data only: Title, Kind, Applicability, IsPreferred and a list of
// TextEdits. Producers may attach a Thunk instead of edits when building them
// is expensive (patching a resource file); Resolve and MaterializeFixes expand
// thunks deterministically.
//
// # Emitting diagnostics
//
// Producers report through a Reporter. BagReporter stores into a Bag, which
// supports sorting, deduplication, filtering and per-code counting.
// DedupReporter drops exact repeats of the same finding.
//
// Package diag does no formatting beyond the short single-line form used by
// golden tests; rendering lives in internal/diagfmt, applying fixes in
// internal/fix.
package diag
