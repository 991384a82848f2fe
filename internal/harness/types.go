package harness

import "github.com/roach88/mensur/internal/ir"

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when the expectation and every assertion hold.
	Pass bool `json:"pass"`

	Scenario    string `json:"scenario"`
	MelodyID    string `json:"melody_id"`
	MelodyHash  string `json:"melody_hash,omitempty"`
	RenderingID string `json:"rendering_id,omitempty"`
	Hash        string `json:"hash,omitempty"`

	Text      string     `json:"text"`
	Tokens    []ir.Token `json:"-"`
	Bars      int        `json:"bars"`
	Fallbacks int        `json:"fallbacks"`

	// ErrorCode and ErrorMessage are set when rendering failed.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Logs is the engine's log output for the run.
	Logs string `json:"-"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for the named scenario.
func NewResult(scenario string) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario,
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether rendering returned an error.
func (r *Result) Failed() bool { return r.ErrorCode != "" }
