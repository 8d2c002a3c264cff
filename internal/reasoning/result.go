package reasoning

// Status is what the user sees at the end of a submission.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusSoftFail Status = "soft_fail"
	StatusHardFail Status = "hard_fail"
)

// State is the orchestrator state machine position.
type State string

const (
	StateAttempt State = "attempt"
	StateRepair  State = "repair"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Cause says why a run failed. Empty on success.
type Cause string

const (
	CauseNone         Cause = ""
	CauseInvalidInput Cause = "invalid_input"
	CauseExhausted    Cause = "exhausted"
	CauseTransport    Cause = "transport"
)

const (
	NoticeRepairUsed   = "Auto-repair was used to enforce completeness/format requirements."
	WarningPartial     = "Partial enforcement: the analysis below did not pass every structure/completeness check after all retries. Review it with caution."
	MessageExhausted   = "Unable to generate a complete 6-section analysis after retries. Please rerun."
	MessageUnavailable = "Generation failed. Please retry."
	MessageInvalidCase = "Case data is incomplete or out of range. Check age and sex and resubmit."
)

// Result is the per-request record returned by Orchestrator.Run. It replaces
// any notion of shared session state: every submission gets a fresh one.
type Result struct {
	RequestID  string     `json:"requestId"`
	Status     Status     `json:"status"`
	State      State      `json:"state"`
	Output     string     `json:"output,omitempty"`
	Sections   SectionMap `json:"-"`
	RepairUsed bool       `json:"repairUsed"`
	Notice     string     `json:"notice,omitempty"`
	Warning    string     `json:"warning,omitempty"`
	Error      string     `json:"error,omitempty"`
	Cause      Cause      `json:"cause,omitempty"`
	Attempts   int        `json:"attempts"`
	ModelCalls int        `json:"modelCalls"`
}

// HasOutput reports whether there is something to render.
func (r Result) HasOutput() bool {
	return r.Output != ""
}
