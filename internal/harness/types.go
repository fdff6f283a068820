package harness

// StepTrace records the outcome of one scenario step.
type StepTrace struct {
	Step string `json:"step"`

	// Query is the compiled query in its string form. Empty when the step
	// failed to compile.
	Query string `json:"query,omitempty"`

	// Hits are the matching document ids, sorted.
	Hits []string `json:"hits"`

	// Error is the error code of a failed step.
	Error string `json:"error,omitempty"`

	// Message is the full error text of a failed step.
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// GeneratedIDs counts records that were indexed under a generated id
	// because they carried no key property.
	GeneratedIDs int `json:"generated_ids,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace appends a step outcome to the trace.
func (r *Result) AddStepTrace(step StepTrace) {
	r.Trace = append(r.Trace, step)
}

// Step returns the trace entry for the named step.
func (r *Result) Step(name string) (StepTrace, bool) {
	for _, s := range r.Trace {
		if s.Step == name {
			return s, true
		}
	}
	return StepTrace{}, false
}
