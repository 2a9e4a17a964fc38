package operations

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Report records one execution of an operation or a sequence.
type Report[IN, OUT any] struct {
	ID        string       `json:"id"`
	Def       Definition   `json:"definition"`
	Output    OUT          `json:"output"`
	Input     IN           `json:"input"`
	Timestamp *time.Time   `json:"timestamp"`
	Err       *ReportError `json:"error"`
	// ChildOperationReports lists the IDs of the reports produced inside a sequence.
	ChildOperationReports []string `json:"childOperationReports"`
}

// ToGenericReport erases the input and output types of the report.
func (r Report[IN, OUT]) ToGenericReport() Report[any, any] {
	return genericReport(r)
}

// SequenceReport is the report of a sequence together with the reports of everything the
// sequence ran, children first.
type SequenceReport[IN, OUT any] struct {
	Report[IN, OUT]

	ExecutionReports []Report[any, any]
}

// ToGenericSequenceReport erases the input and output types of the sequence report.
func (r SequenceReport[IN, OUT]) ToGenericSequenceReport() SequenceReport[any, any] {
	return SequenceReport[any, any]{
		Report:           genericReport(r.Report),
		ExecutionReports: r.ExecutionReports,
	}
}

// NewReport creates a report with a fresh ID. childReportsID is only set for sequences.
func NewReport[IN, OUT any](
	def Definition, input IN, output OUT, err error, childReportsID ...string,
) Report[IN, OUT] {
	now := time.Now()
	r := Report[IN, OUT]{
		ID:                    uuid.New().String(),
		Def:                   def,
		Output:                output,
		Input:                 input,
		Timestamp:             &now,
		ChildOperationReports: childReportsID,
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// ReportError is the JSON friendly form of an execution error.
type ReportError struct {
	Message string `json:"message"`
}

// Error implements the error interface.
func (o ReportError) Error() string {
	return o.Message
}

func genericReport[IN, OUT any](r Report[IN, OUT]) Report[any, any] {
	return Report[any, any]{
		ID: r.ID,
		Def: Definition{
			ID:          r.Def.ID,
			Version:     r.Def.Version,
			Description: r.Def.Description,
		},
		Output:                r.Output,
		Input:                 r.Input,
		Timestamp:             r.Timestamp,
		Err:                   r.Err,
		ChildOperationReports: r.ChildOperationReports,
	}
}

// typeReport restores the input and output types of a report through a JSON round trip. Reports
// read back from storage hold maps and float64s instead of the original types.
func typeReport[IN, OUT any](r Report[any, any]) (Report[IN, OUT], bool) {
	inputBytes, err := json.Marshal(r.Input)
	if err != nil {
		return Report[IN, OUT]{}, false
	}
	var input IN
	if err = json.Unmarshal(inputBytes, &input); err != nil {
		return Report[IN, OUT]{}, false
	}

	outputBytes, err := json.Marshal(r.Output)
	if err != nil {
		return Report[IN, OUT]{}, false
	}

	var output OUT
	if err := json.Unmarshal(outputBytes, &output); err != nil {
		return Report[IN, OUT]{}, false
	}

	return Report[IN, OUT]{
		ID:                    r.ID,
		Def:                   r.Def,
		Output:                output,
		Input:                 input,
		Timestamp:             r.Timestamp,
		Err:                   r.Err,
		ChildOperationReports: r.ChildOperationReports,
	}, true
}
