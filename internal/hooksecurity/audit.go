// Package hooksecurity classifies HookResults by security level and gates
// publishing on critical failures. The critical/high/medium hook sets are
// fixed, centrally-owned policy, not configuration.
package hooksecurity

import (
	"fmt"
	"strings"

	"claude-wm-cli/internal/hookdef"
)

// criticalHooks names security-critical checks and why: secret leakage,
// type-safety holes, SAST findings. A failure here blocks publishing.
var criticalHooks = map[string]string{
	"bandit":  "security vulnerability detection (OWASP A09)",
	"pyright": "type safety prevents runtime security holes (OWASP A04)",
	"gitleaks": "secret/credential detection (OWASP A07)",
}

// highSecurityHooks are reviewed but do not block publishing on their own.
var highSecurityHooks = map[string]string{
	"validate-regex-patterns": "regex vulnerability detection",
	"creosote":                "dependency vulnerability analysis",
	"check-added-large-files": "large file security analysis",
	"uv-lock":                 "dependency lock security",
}

// mediumSecurityHooks are standard quality checks, informational only.
var mediumSecurityHooks = map[string]struct{}{
	"ruff-check": {}, "vulture": {}, "refurb": {}, "complexipy": {},
}

// ClassifyHookName returns the fixed security level for a hook name,
// independent of any value the hook's own HookDefinition carries — the
// audit report is meant to reflect a fixed, centrally-owned policy rather
// than whatever level a strategy config happened to set.
func ClassifyHookName(hookName string) hookdef.SecurityLevel {
	lower := strings.ToLower(hookName)
	if _, ok := criticalHooks[lower]; ok {
		return hookdef.SecurityCritical
	}
	if _, ok := highSecurityHooks[lower]; ok {
		return hookdef.SecurityHigh
	}
	if _, ok := mediumSecurityHooks[lower]; ok {
		return hookdef.SecurityMedium
	}
	return hookdef.SecurityLow
}

// CheckResult is a single hook's classified pass/fail outcome.
type CheckResult struct {
	HookName      string
	SecurityLevel hookdef.SecurityLevel
	Passed        bool
	ErrorMessage  string
}

// Report is the aggregate audit over a full set of HookResults.
type Report struct {
	CriticalFailures []CheckResult
	HighFailures     []CheckResult
	MediumFailures   []CheckResult
	LowFailures      []CheckResult

	AllowsPublishing bool
	SecurityWarnings []string
	Recommendations  []string
}

func (r Report) HasCriticalFailures() bool { return len(r.CriticalFailures) > 0 }

func (r Report) TotalFailures() int {
	return len(r.CriticalFailures) + len(r.HighFailures) + len(r.MediumFailures) + len(r.LowFailures)
}

// Audit classifies every result and builds the publish-gate report.
// CRITICAL failures block publishing; HIGH failures produce warnings;
// MEDIUM/LOW are informational.
func Audit(results []hookdef.HookResult) Report {
	var critical, high, medium, low []CheckResult

	for _, result := range results {
		check := CheckResult{
			HookName:      result.HookName,
			SecurityLevel: ClassifyHookName(result.HookName),
			Passed:        !result.Status.IsFailure(),
			ErrorMessage:  result.StderrExcerpt,
		}
		if check.Passed {
			continue
		}
		switch check.SecurityLevel {
		case hookdef.SecurityCritical:
			critical = append(critical, check)
		case hookdef.SecurityHigh:
			high = append(high, check)
		case hookdef.SecurityMedium:
			medium = append(medium, check)
		default:
			low = append(low, check)
		}
	}

	report := Report{
		CriticalFailures: critical,
		HighFailures:     high,
		MediumFailures:   medium,
		LowFailures:      low,
		AllowsPublishing: len(critical) == 0,
	}
	report.SecurityWarnings = warnings(critical, high, medium)
	report.Recommendations = recommendations(critical, high)
	return report
}

func warnings(critical, high, medium []CheckResult) []string {
	var out []string
	if len(critical) > 0 {
		out = append(out, fmt.Sprintf("CRITICAL: %d security-critical checks failed - publishing BLOCKED", len(critical)))
		for _, failure := range critical {
			reason := criticalHooks[strings.ToLower(failure.HookName)]
			if reason == "" {
				reason = "security-critical check"
			}
			out = append(out, fmt.Sprintf(" - %s: %s", failure.HookName, reason))
		}
	}
	if len(high) > 0 {
		out = append(out, fmt.Sprintf("HIGH: %d high-security checks failed - review recommended", len(high)))
	}
	if len(medium) > 0 {
		out = append(out, fmt.Sprintf("MEDIUM: %d standard quality checks failed", len(medium)))
	}
	return out
}

func recommendations(critical, high []CheckResult) []string {
	var out []string
	if len(critical) > 0 {
		out = append(out, "fix all CRITICAL security issues before publishing")
		names := make(map[string]struct{}, len(critical))
		for _, f := range critical {
			names[strings.ToLower(f.HookName)] = struct{}{}
		}
		if _, ok := names["bandit"]; ok {
			out = append(out, " - review bandit security findings - may indicate vulnerabilities")
		}
		if _, ok := names["pyright"]; ok {
			out = append(out, " - fix type errors - type safety prevents runtime security holes")
		}
		if _, ok := names["gitleaks"]; ok {
			out = append(out, " - remove secrets/credentials from code - use environment variables")
		}
	}
	if len(high) > 0 {
		out = append(out, "review HIGH-security findings before production deployment")
	}
	if len(critical) == 0 && len(high) == 0 {
		out = append(out, "security posture is acceptable for publishing")
	}
	out = append(out, "follow OWASP Secure Coding Practices for comprehensive security")
	return out
}
