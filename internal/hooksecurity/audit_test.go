package hooksecurity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claude-wm-cli/internal/hookdef"
)

func TestClassifyHookName(t *testing.T) {
	assert.Equal(t, hookdef.SecurityCritical, ClassifyHookName("bandit"))
	assert.Equal(t, hookdef.SecurityCritical, ClassifyHookName("GitLeaks"))
	assert.Equal(t, hookdef.SecurityHigh, ClassifyHookName("creosote"))
	assert.Equal(t, hookdef.SecurityMedium, ClassifyHookName("ruff-check"))
	assert.Equal(t, hookdef.SecurityLow, ClassifyHookName("some-unknown-hook"))
}

func TestAudit_CriticalFailureBlocksPublishing(t *testing.T) {
	results := []hookdef.HookResult{
		{HookName: "gitleaks", Status: hookdef.StatusFailed},
		{HookName: "bandit", Status: hookdef.StatusPassed},
	}

	report := Audit(results)
	require.True(t, report.HasCriticalFailures())
	assert.False(t, report.AllowsPublishing)
	assert.Len(t, report.CriticalFailures, 1)
	assert.Equal(t, "gitleaks", report.CriticalFailures[0].HookName)
}

func TestAudit_OnlyHighFailureStillAllowsPublishing(t *testing.T) {
	results := []hookdef.HookResult{
		{HookName: "creosote", Status: hookdef.StatusFailed},
	}

	report := Audit(results)
	assert.False(t, report.HasCriticalFailures())
	assert.True(t, report.AllowsPublishing)
	assert.Len(t, report.HighFailures, 1)
}

func TestAudit_PassingHooksProduceNoFailures(t *testing.T) {
	results := []hookdef.HookResult{
		{HookName: "bandit", Status: hookdef.StatusPassed},
		{HookName: "ruff-check", Status: hookdef.StatusPassed},
	}

	report := Audit(results)
	assert.Equal(t, 0, report.TotalFailures())
	assert.True(t, report.AllowsPublishing)
	assert.Empty(t, report.SecurityWarnings)
}

func TestAudit_RecommendationsNameSpecificCriticalHooks(t *testing.T) {
	results := []hookdef.HookResult{{HookName: "pyright", Status: hookdef.StatusError}}
	report := Audit(results)
	found := false
	for _, rec := range report.Recommendations {
		if rec == " - fix type errors - type safety prevents runtime security holes" {
			found = true
		}
	}
	assert.True(t, found)
}
