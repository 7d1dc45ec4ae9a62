package driver

import (
	"encoding/json"
	"fmt"

	"locheck/internal/diag"
	"locheck/internal/observ"
	"locheck/internal/source"
)

type timingPayload struct {
	RunID   string               `json:"run_id"`
	Root    string               `json:"root,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// timingDiagnostic wraps a timing report into an info diagnostic whose only
// note is the JSON payload. Machine-readable outputs carry it; its span is
// the zero span and points at no real location.
func timingDiagnostic(payload timingPayload) *diag.Diagnostic {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	msg := fmt.Sprintf("timings: total %.2f ms", payload.TotalMS)
	return &diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Notes:    []diag.Note{{Span: source.Span{}, Msg: string(data)}},
	}
}

// appendTiming adds d even when the bag is full.
func appendTiming(bag *diag.Bag, d *diag.Diagnostic) {
	if bag == nil || d == nil || bag.Add(d) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(d)
	bag.Merge(overflow)
}
