// Package render turns a core.Report into the forms it is delivered in: a
// JSON document, a paginated PDF and a localized email.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"moneytracker/internal/core"
)

// ReportResponse is the wire shape of a report.
type ReportResponse struct {
	Period    core.Period     `json:"period"`
	StartDate core.Date       `json:"startDate"`
	EndDate   core.Date       `json:"endDate"`
	Movements []core.Movement `json:"movements"`
	Summary   core.Summary    `json:"summary"`
}

func NewReportResponse(r core.Report) ReportResponse {
	movements := r.Movements
	if movements == nil {
		movements = []core.Movement{}
	}
	return ReportResponse{
		Period:    r.Period,
		StartDate: r.Range.Start,
		EndDate:   r.Range.End,
		Movements: movements,
		Summary:   r.Summary,
	}
}

// RenderJSON writes r to w as a single JSON document.
func RenderJSON(w io.Writer, r core.Report) error {
	if err := json.NewEncoder(w).Encode(NewReportResponse(r)); err != nil {
		return fmt.Errorf("encode report: %w: %w", core.ErrRenderFailure, err)
	}
	return nil
}
