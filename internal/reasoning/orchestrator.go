package reasoning

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Skufu/meddev/internal/llm"
	"github.com/Skufu/meddev/internal/logger"
	"github.com/Skufu/meddev/internal/metrics"
)

const DefaultMaxAttempts = 3

type Options struct {
	// MaxAttempts bounds the outer loop. Values below 1 fall back to
	// DefaultMaxAttempts.
	MaxAttempts int
	// RepairRequests enables the dedicated repair call after an invalid but
	// complete candidate.
	RepairRequests bool
	Schema         SchemaVersion
	Logger         *logger.Logger
	Metrics        *metrics.Recorder
}

// Orchestrator runs the bounded generate/validate/repair loop.
type Orchestrator struct {
	llm         llm.Client
	prompts     PromptBuilder
	validator   *Validator
	maxAttempts int
	repair      bool
	log         *logger.Logger
	metrics     *metrics.Recorder
}

func NewOrchestrator(client llm.Client, opts Options) *Orchestrator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Orchestrator{
		llm:         client,
		prompts:     NewPromptBuilder(opts.Schema),
		validator:   NewValidator(opts.Schema),
		maxAttempts: opts.MaxAttempts,
		repair:      opts.RepairRequests,
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Run executes one submission. Attempts run back to back. A transport error
// ends the run at once with a hard failure and no output.
func (o *Orchestrator) Run(ctx context.Context, in CaseInput) Result {
	started := time.Now()
	r := &run{
		o:        o,
		caseText: in.Describe(),
		res:      Result{RequestID: uuid.NewString(), State: StateAttempt},
	}
	r.log = o.log.With("request_id", r.res.RequestID)

	if err := in.Validate(); err != nil {
		r.log.Warn("case input rejected", "error", err)
		r.res.State = StateFailed
		r.res.Status = StatusHardFail
		r.res.Error = MessageInvalidCase
		r.res.Cause = CauseInvalidInput
		o.metrics.Result(string(r.res.Status), time.Since(started).Seconds())
		return r.res
	}

	err := retry.Do(
		func() error { return r.attempt(ctx) },
		retry.Context(ctx),
		retry.Attempts(uint(o.maxAttempts)),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrCandidateRejected) }),
		retry.OnRetry(func(n uint, err error) {
			r.log.Info("candidate rejected", "attempt", n+1, "reason", err.Error())
		}),
	)
	r.finish(err)

	o.metrics.Result(string(r.res.Status), time.Since(started).Seconds())
	r.log.Info("analysis finished",
		"status", r.res.Status,
		"cause", r.res.Cause,
		"schema", o.validator.Schema(),
		"attempts", r.res.Attempts,
		"model_calls", r.res.ModelCalls,
		"repair_used", r.res.RepairUsed,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return r.res
}

// run is the state of a single submission.
type run struct {
	o        *Orchestrator
	log      *logger.Logger
	caseText string
	best     string
	res      Result
}

func (r *run) attempt(ctx context.Context) error {
	r.res.Attempts++
	r.res.State = StateAttempt

	kind, user := "initial", r.o.prompts.User(r.caseText)
	if r.res.Attempts > 1 {
		r.res.RepairUsed = true
		kind, user = "retry", r.o.prompts.UserWithRepair(r.caseText)
	}

	c, err := r.call(ctx, kind, user)
	if err != nil {
		return err
	}
	reason := r.judge(c)
	if reason == nil {
		return nil
	}
	text := strings.TrimSpace(c.Text)
	if !r.o.repair || text == "" || c.Truncated() {
		return errors.Mark(reason, ErrCandidateRejected)
	}

	r.res.State = StateRepair
	r.res.RepairUsed = true
	r.log.Debug("issuing repair request", "attempt", r.res.Attempts, "reason", reason.Error())
	rc, err := r.call(ctx, "repair", r.o.prompts.Repair(r.caseText, text, reason.Error()))
	if err != nil {
		return err
	}
	if reason := r.judge(rc); reason != nil {
		return errors.Mark(reason, ErrCandidateRejected)
	}
	return nil
}

func (r *run) call(ctx context.Context, kind, user string) (llm.Completion, error) {
	r.res.ModelCalls++
	c, err := r.o.llm.Complete(ctx, []llm.Message{llm.System(r.o.prompts.System()), llm.User(user)})
	if err != nil {
		r.o.metrics.ModelCall(kind, "error")
		r.log.Error("completion failed", "kind", kind, "attempt", r.res.Attempts, "error", err)
		return llm.Completion{}, errors.Mark(err, ErrTransport)
	}
	r.o.metrics.ModelCall(kind, c.FinishReason)
	return c, nil
}

// judge accepts or rejects a candidate. Any non-empty candidate becomes the
// fallback, even a truncated one.
func (r *run) judge(c llm.Completion) error {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		r.o.metrics.Candidate("empty")
		return ErrEmptyOutput
	}
	r.best = text
	if c.Truncated() {
		r.res.RepairUsed = true
		r.o.metrics.Candidate("truncated")
		return errors.Wrapf(ErrTruncated, "finish reason %q", c.FinishReason)
	}
	if err := r.o.validator.Validate(text); err != nil {
		r.o.metrics.Candidate("invalid")
		return err
	}
	r.o.metrics.Candidate("accepted")
	r.res.Output = text
	return nil
}

func (r *run) finish(err error) {
	switch {
	case err == nil:
		r.res.State = StateDone
		r.res.Status = StatusSuccess
		r.res.Sections, _ = ParseSections(r.res.Output)
		if r.res.RepairUsed {
			r.res.Notice = NoticeRepairUsed
		}
	case errors.Is(err, ErrCandidateRejected) && r.best != "":
		r.res.State = StateFailed
		r.res.Status = StatusSoftFail
		r.res.Output = r.best
		r.res.Sections, _ = ParseSections(r.best)
		r.res.Warning = WarningPartial
	case errors.Is(err, ErrCandidateRejected):
		r.res.State = StateFailed
		r.res.Status = StatusHardFail
		r.res.Error = MessageExhausted
		r.res.Cause = CauseExhausted
	default:
		r.log.Error("analysis aborted", "error", err)
		r.res.State = StateFailed
		r.res.Status = StatusHardFail
		r.res.Output = ""
		r.res.Sections = nil
		r.res.Error = MessageUnavailable
		r.res.Cause = CauseTransport
	}
}
