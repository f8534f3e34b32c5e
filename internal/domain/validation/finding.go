// Package validation inspects workflow and package models and reports
// severity-tagged findings. Rules are independent and never modify the model.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts "error", "warning" or "info" in any case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info", "":
		return SeverityInfo, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}

type Code string

const (
	CodeOrphanNode         Code = "ORPHAN_NODE"
	CodeDisconnectedOutput Code = "DISCONNECTED_OUTPUT"
	CodeHardcodedDate      Code = "HARDCODED_DATE"
	CodeHardcodedServer    Code = "HARDCODED_SERVER"
	CodeMissingAnnotations Code = "MISSING_ANNOTATIONS"
	CodeDuplicateToolID    Code = "DUPLICATE_TOOL_ID"
	CodeEmptyConfig        Code = "EMPTY_CONFIG"
	CodeDanglingConnection Code = "DANGLING_CONNECTION"
	CodeOrphanStep         Code = "ORPHAN_STEP"
	CodeBrokenFlow         Code = "BROKEN_FLOW"
	CodeBrokenFailureFlow  Code = "BROKEN_FAILURE_FLOW"
	CodeEmptyStep          Code = "EMPTY_STEP"
	CodeMissingScenario    Code = "MISSING_SCENARIO"
)

// Finding is one validation result.
type Finding struct {
	Code       Code     `json:"code"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	AffectedID string   `json:"affected_id,omitempty"`
}

func (f Finding) String() string {
	if f.AffectedID != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", strings.ToUpper(f.Severity.String()), f.Code, f.AffectedID, f.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(f.Severity.String()), f.Code, f.Message)
}

// Filter keeps findings at or above min, preserving order.
func Filter(findings []Finding, min Severity) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity >= min {
			out = append(out, f)
		}
	}
	return out
}

// Summary counts findings per severity.
type Summary struct {
	Errors   int  `json:"errors"`
	Warnings int  `json:"warnings"`
	Infos    int  `json:"infos"`
	Valid    bool `json:"valid"`
}

// Summarize counts findings. A model is valid when it has no errors.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	s.Valid = s.Errors == 0
	return s
}
