package operations

import (
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrNotSerializable is returned when the input or output of an execution cannot be written to
// a report without losing data.
var ErrNotSerializable = errors.New("data cannot be safely written to disk without data lost, " +
	"avoid type that can't be serialized")

const (
	defaultRetryAttempts = 10
	defaultRetryDelay    = 100 * time.Millisecond
)

// RetryPolicy controls how often and how fast a failed operation is attempted again.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts uint
	// Delay is the base delay between attempts. It grows exponentially.
	Delay time.Duration
}

func (p RetryPolicy) options() []retry.Option {
	opts := []retry.Option{
		retry.Attempts(p.MaxAttempts),
		retry.LastErrorOnly(true),
	}
	if p.Delay > 0 {
		opts = append(opts, retry.Delay(p.Delay))
	}

	return opts
}

// RetryConfig is the retry configuration of one ExecuteOperation call.
type RetryConfig[IN, DEP any] struct {
	// Enabled determines if the retry is enabled for the operation.
	Enabled bool
	// Policy is the retry policy to control the behavior of the retry.
	Policy RetryPolicy
	// InputHook returns the input of the next attempt. Use it to bump a gas limit, for example.
	InputHook func(attempt uint, err error, input IN, deps DEP) IN
}

// ExecuteConfig is the configuration for the ExecuteOperation function.
type ExecuteConfig[IN, DEP any] struct {
	retryConfig RetryConfig[IN, DEP]
}

// ExecuteOption configures an ExecuteOperation call.
type ExecuteOption[IN, DEP any] func(*ExecuteConfig[IN, DEP])

// WithRetry enables retries with the default policy.
func WithRetry[IN, DEP any]() ExecuteOption[IN, DEP] {
	return func(c *ExecuteConfig[IN, DEP]) {
		c.retryConfig.Enabled = true
	}
}

// WithRetryInput enables retries with the default policy and updates the input before every
// new attempt.
func WithRetryInput[IN, DEP any](inputHookFunc func(uint, error, IN, DEP) IN) ExecuteOption[IN, DEP] {
	return func(c *ExecuteConfig[IN, DEP]) {
		c.retryConfig.Enabled = true
		c.retryConfig.InputHook = inputHookFunc
	}
}

// WithRetryConfig replaces the retry configuration.
func WithRetryConfig[IN, DEP any](config RetryConfig[IN, DEP]) ExecuteOption[IN, DEP] {
	return func(c *ExecuteConfig[IN, DEP]) {
		c.retryConfig = config
	}
}

// ExecuteOperation runs operation with deps and input and records a report of the run.
//
// If the reporter already holds a successful report for the same definition and input, the
// operation is not run again and that report is returned. Failed reports never short-circuit.
//
// Retries are disabled by default. WithRetry enables up to 10 attempts with exponential backoff.
// A handler returning an error wrapped by NewUnrecoverableError stops the retries.
//
// Input and output must survive a JSON round trip, see IsSerializable.
func ExecuteOperation[IN, OUT, DEP any](
	b Bundle,
	operation *Operation[IN, OUT, DEP],
	deps DEP,
	input IN,
	opts ...ExecuteOption[IN, DEP],
) (Report[IN, OUT], error) {
	if !IsSerializable(b.Logger, input) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s input: %w", operation.def.ID, ErrNotSerializable)
	}

	if prev, found := loadPreviousSuccessfulReport[IN, OUT](b, operation.def, input); found {
		b.Logger.Infow("Operation already executed, returning previous result",
			"id", operation.def.ID, "version", operation.def.Version, "reportID", prev.ID)

		return prev, nil
	}

	cfg := &ExecuteConfig[IN, DEP]{
		retryConfig: RetryConfig[IN, DEP]{
			Policy: RetryPolicy{MaxAttempts: defaultRetryAttempts, Delay: defaultRetryDelay},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		output OUT
		err    error
	)
	if cfg.retryConfig.Enabled {
		attemptInput := input
		retryOpts := append(cfg.retryConfig.Policy.options(),
			retry.Context(b.GetContext()),
			retry.OnRetry(func(attempt uint, err error) {
				b.Logger.Infow("Operation failed, retrying",
					"id", operation.def.ID, "attempt", attempt, "error", err)

				if cfg.retryConfig.InputHook != nil {
					attemptInput = cfg.retryConfig.InputHook(attempt, err, attemptInput, deps)
				}
			}),
		)

		output, err = retry.DoWithData(func() (OUT, error) {
			return operation.execute(b, deps, attemptInput)
		}, retryOpts...)
	} else {
		output, err = operation.execute(b, deps, input)
	}

	if err == nil && !IsSerializable(b.Logger, output) {
		return Report[IN, OUT]{}, fmt.Errorf("operation %s output: %w", operation.def.ID, ErrNotSerializable)
	}

	report := NewReport(operation.def, input, output, err)
	if aerr := b.reporter.AddReport(genericReport(report)); aerr != nil {
		return Report[IN, OUT]{}, aerr
	}
	if report.Err != nil {
		return report, report.Err
	}

	return report, nil
}

// ExecuteSequence runs sequence with deps and input. The returned SequenceReport holds the
// report of the sequence and the reports of every operation and nested sequence it ran.
//
// As with ExecuteOperation, a previous successful run with the same definition and input is
// returned without running the handler again.
func ExecuteSequence[IN, OUT, DEP any](
	b Bundle, sequence *Sequence[IN, OUT, DEP], deps DEP, input IN,
) (SequenceReport[IN, OUT], error) {
	if !IsSerializable(b.Logger, input) {
		return SequenceReport[IN, OUT]{}, fmt.Errorf("sequence %s input: %w", sequence.def.ID, ErrNotSerializable)
	}

	if prev, found := loadPreviousSuccessfulReport[IN, OUT](b, sequence.def, input); found {
		executionReports, err := b.reporter.GetExecutionReports(prev.ID)
		if err != nil {
			return SequenceReport[IN, OUT]{}, err
		}
		b.Logger.Infow("Sequence already executed, returning previous result",
			"id", sequence.def.ID, "version", sequence.def.Version, "reportID", prev.ID)

		return SequenceReport[IN, OUT]{Report: prev, ExecutionReports: executionReports}, nil
	}

	b.Logger.Infow("Executing sequence",
		"id", sequence.def.ID, "version", sequence.def.Version, "description", sequence.def.Description)

	recent := NewRecentMemoryReporter(b.reporter)
	output, err := sequence.handler(b.withReporter(recent), deps, input)
	if errors.Is(err, ErrNotSerializable) {
		return SequenceReport[IN, OUT]{}, err
	}
	if err == nil && !IsSerializable(b.Logger, output) {
		return SequenceReport[IN, OUT]{}, fmt.Errorf("sequence %s output: %w", sequence.def.ID, ErrNotSerializable)
	}

	children := recent.GetRecentReports()
	childIDs := make([]string, 0, len(children))
	for _, child := range children {
		childIDs = append(childIDs, child.ID)
	}

	report := NewReport(sequence.def, input, output, err, childIDs...)
	if aerr := b.reporter.AddReport(genericReport(report)); aerr != nil {
		return SequenceReport[IN, OUT]{}, aerr
	}

	executionReports, rerr := b.reporter.GetExecutionReports(report.ID)
	if rerr != nil {
		return SequenceReport[IN, OUT]{}, rerr
	}

	seqReport := SequenceReport[IN, OUT]{Report: report, ExecutionReports: executionReports}
	if report.Err != nil {
		return seqReport, report.Err
	}

	return seqReport, nil
}

// NewUnrecoverableError marks err as final: an operation returning it is not retried.
func NewUnrecoverableError(err error) error {
	return retry.Unrecoverable(err)
}

func loadPreviousSuccessfulReport[IN, OUT any](b Bundle, def Definition, input IN) (Report[IN, OUT], bool) {
	reports, err := b.reporter.GetReports()
	if err != nil {
		b.Logger.Errorw("Failed to get reports", "error", err)
		return Report[IN, OUT]{}, false
	}

	want, err := hashDefinitionInput(def, input)
	if err != nil {
		b.Logger.Errorw("Failed to hash execution", "id", def.ID, "error", err)
		return Report[IN, OUT]{}, false
	}

	for _, report := range reports {
		if report.Err != nil {
			continue
		}

		got, err := cachedReportHash(b.reportHashCache, report)
		if err != nil {
			b.Logger.Errorw("Failed to hash previous report", "reportID", report.ID, "error", err)
			continue
		}
		if got != want {
			continue
		}

		typed, ok := typeReport[IN, OUT](report)
		if !ok {
			b.Logger.Debugw("Previous execution found but its report does not match the types", "id", def.ID, "reportID", report.ID)
			continue
		}

		return typed, true
	}

	return Report[IN, OUT]{}, false
}
