package analysis

import (
	"fmt"

	"aat-go/internal/eventlog"
	"aat-go/internal/models"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"   // the file contributed nothing
	SeverityWarning Severity = "warning" // data was dropped, the file still counts
)

// Diagnostic tells the caller what happened to one file.
type Diagnostic struct {
	File     string        `json:"file"`
	Kind     eventlog.Kind `json:"-"`
	KindName string        `json:"kind"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
}

func newDiagnostic(file string, kind eventlog.Kind, sev Severity, format string, args ...any) Diagnostic {
	return Diagnostic{
		File:     file,
		Kind:     kind,
		KindName: kind.String(),
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.File, d.Severity, d.KindName, d.Message)
}

// Upload is one named byte buffer handed in by the caller.
type Upload struct {
	Name string
	Data []byte
}

// FileStats counts what the pipeline discarded on the way.
type FileStats struct {
	Encoding          string `json:"encoding"`
	PreambleLines     int    `json:"preambleLines"`
	DroppedLines      int    `json:"droppedLines"`
	SkippedRows       int    `json:"skippedRows"`
	Columns           int    `json:"columns"`
	BadTimestamps     int    `json:"badTimestamps"`
	BadPositions      int    `json:"badPositions"`
	PositionSamples   int    `json:"positionSamples"`
	StimulusEvents    int    `json:"stimulusEvents"`
	UnresolvedSamples int    `json:"unresolvedSamples"`
	Reversals         int    `json:"reversals"`
	ZeroDeltaPairs    int    `json:"zeroDeltaPairs"`
}

// FileResult is the outcome of one file. Failure is nil on success; the
// tables are empty, never nil, on failure.
type FileResult struct {
	Name     string                       `json:"name"`
	Approach []models.ApproachObservation `json:"approach"`
	Speed    []models.SpeedObservation    `json:"speed"`
	Stats    FileStats                    `json:"stats"`
	Warnings []Diagnostic                 `json:"warnings"`
	Failure  *Diagnostic                  `json:"failure,omitempty"`
}

// OK reports whether the file made it through the pipeline.
func (r *FileResult) OK() bool {
	return r.Failure == nil
}

// Diagnostics returns the failure, if any, followed by the warnings.
func (r *FileResult) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Warnings)+1)
	if r.Failure != nil {
		out = append(out, *r.Failure)
	}
	return append(out, r.Warnings...)
}

// Outcome summarizes a batch.
type Outcome string

const (
	OutcomeNone    Outcome = "none"    // no file succeeded
	OutcomePartial Outcome = "partial" // some files failed
	OutcomeFull    Outcome = "full"    // every file succeeded
)

func outcomeOf(succeeded, total int) Outcome {
	switch {
	case succeeded == 0:
		return OutcomeNone
	case succeeded < total:
		return OutcomePartial
	default:
		return OutcomeFull
	}
}
