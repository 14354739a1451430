package erc

import "fmt"

// Stage names the pass that produced a finding.
type Stage string

// Check stages.
const (
	StageNames Stage = "names"
	StageNet   Stage = "net"
	StagePart  Stage = "part"
)

// Finding is one warning or error.
type Finding struct {
	Level   Level  `json:"level"`
	Stage   Stage  `json:"stage"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Level, f.Message)
}

// Report collects the findings of one check.
type Report struct {
	Findings []Finding `json:"findings"`
	Warnings int       `json:"warnings"`
	Errors   int       `json:"errors"`
}

func (r *Report) add(level Level, stage Stage, subject, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{
		Level:   level,
		Stage:   stage,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
	switch level {
	case Warning:
		r.Warnings++
	case Error:
		r.Errors++
	}
}

// Filter returns the findings of the given stage.
func (r *Report) Filter(stage Stage) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Stage == stage {
			out = append(out, f)
		}
	}
	return out
}

// Err returns an error summarizing the report when it holds errors.
func (r *Report) Err() error {
	if r.Errors == 0 {
		return nil
	}
	return fmt.Errorf("erc: %d errors, %d warnings", r.Errors, r.Warnings)
}

// Failed reports whether the report breaches the given policy: "error" fails
// on errors, "warning" on errors or warnings, "never" never fails.
func (r *Report) Failed(policy string) bool {
	switch policy {
	case "never":
		return false
	case "warning":
		return r.Errors > 0 || r.Warnings > 0
	default:
		return r.Errors > 0
	}
}
