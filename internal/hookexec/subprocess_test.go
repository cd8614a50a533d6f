package hookexec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claude-wm-cli/internal/hookdef"
)

func TestSubprocessRunner_ExitZeroIsPassed(t *testing.T) {
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return []string{"true"}, nil
		},
	}
	def := hookdef.HookDefinition{Name: "ok", TimeoutSeconds: 5, Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityMedium}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := runner.Run(ctx, def)
	assert.Equal(t, hookdef.StatusPassed, result.Status)
	assert.Equal(t, 0, result.ExitCode)
}

func TestSubprocessRunner_NonZeroExitIsFailed(t *testing.T) {
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return []string{"false"}, nil
		},
	}
	def := hookdef.HookDefinition{Name: "bad", TimeoutSeconds: 5, Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityMedium}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := runner.Run(ctx, def)
	assert.Equal(t, hookdef.StatusFailed, result.Status)
}

func TestSubprocessRunner_FormattingExitOneWithSentinelIsPassed(t *testing.T) {
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return []string{"sh", "-c", "echo 'files were modified'; exit 1"}, nil
		},
	}
	def := hookdef.HookDefinition{
		Name: "black", TimeoutSeconds: 5, Stage: hookdef.StageFast,
		SecurityLevel: hookdef.SecurityLow, IsFormatting: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := runner.Run(ctx, def)
	assert.Equal(t, hookdef.StatusPassed, result.Status)
}

func TestSubprocessRunner_FormattingExitOneWithoutSentinelIsFailed(t *testing.T) {
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return []string{"sh", "-c", "echo 'syntax error'; exit 1"}, nil
		},
	}
	def := hookdef.HookDefinition{
		Name: "black", TimeoutSeconds: 5, Stage: hookdef.StageFast,
		SecurityLevel: hookdef.SecurityLow, IsFormatting: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := runner.Run(ctx, def)
	assert.Equal(t, hookdef.StatusFailed, result.Status)
}

func TestSubprocessRunner_DispatchErrorOnUnregisteredHook(t *testing.T) {
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return nil, errors.New("unregistered hook: " + name)
		},
	}
	def := hookdef.HookDefinition{Name: "ghost", TimeoutSeconds: 5, Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityMedium}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := runner.Run(ctx, def)
	assert.Equal(t, hookdef.StatusError, result.Status)
}

func TestSubprocessRunner_TimesOutOnSlowProcess(t *testing.T) {
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return []string{"sleep", "5"}, nil
		},
	}
	def := hookdef.HookDefinition{Name: "slow", TimeoutSeconds: 5, Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityMedium}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	result := runner.Run(ctx, def)
	assert.Equal(t, hookdef.StatusTimeout, result.Status)
}

func TestSubprocessRunner_AppendsFilePathsWhenHookAcceptsThem(t *testing.T) {
	var gotArgs []string
	runner := &SubprocessRunner{
		RepoRoot: t.TempDir(),
		Build: func(name, root string) ([]string, error) {
			return []string{"echo", "scan"}, nil
		},
		Files: func(name string) []string {
			return []string{"a.py", "b.py"}
		},
	}
	def := hookdef.HookDefinition{
		Name: "ruff-check", TimeoutSeconds: 5, Stage: hookdef.StageFast,
		SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result := runner.Run(ctx, def)
	require.Equal(t, hookdef.StatusPassed, result.Status)
	gotArgs = strings.Fields(result.StdoutExcerpt)
	assert.Contains(t, gotArgs, "a.py")
	assert.Contains(t, gotArgs, "b.py")
}

func TestScrubEnv_RetainsAllowlistAndDropsBlocklist(t *testing.T) {
	environ := []string{
		"HOME=/home/u",
		"LD_PRELOAD=/evil.so",
		"VIRTUAL_ENV=/repo/.venv",
		"RANDOM_VAR=keep-me",
		"PATH=/repo/.venv/bin:/usr/bin",
	}
	scrubbed := scrubEnv(environ)

	joined := strings.Join(scrubbed, "\n")
	assert.Contains(t, joined, "HOME=/home/u")
	assert.Contains(t, joined, "RANDOM_VAR=keep-me")
	assert.NotContains(t, joined, "LD_PRELOAD")
	assert.NotContains(t, joined, "VIRTUAL_ENV")

	for _, kv := range scrubbed {
		if strings.HasPrefix(kv, "PATH=") {
			assert.NotContains(t, kv, ".venv/bin")
			assert.Contains(t, kv, "/usr/bin")
		}
	}
}

func TestBoundedBuffer_TruncatesAndMarksTail(t *testing.T) {
	var b boundedBuffer
	_, _ = b.Write(make([]byte, maxCaptureBytes+100))
	out := b.String()
	assert.True(t, strings.HasSuffix(out, "[truncated]"))
	assert.LessOrEqual(t, len(out), maxCaptureBytes+len("\n...[truncated]"))
}

func TestTruncateIssues_PreviewBoundedWithTailMarker(t *testing.T) {
	issues := make([]string, 25)
	for i := range issues {
		issues[i] = "issue"
	}

	preview, total := truncateIssues(issues)
	assert.Equal(t, 25, total)
	require.Len(t, preview, maxIssuePreviewLines+1)
	assert.Equal(t, "... and 5 more", preview[len(preview)-1])

	short := []string{"a", "b"}
	preview, total = truncateIssues(short)
	assert.Equal(t, 2, total)
	assert.Equal(t, short, preview)
}

func TestParseFilesProcessed_ReadsToolSummaryLine(t *testing.T) {
	assert.Equal(t, 2, parseFilesProcessed("2 files were modified by this hook\n"))
	assert.Equal(t, 1, parseFilesProcessed("1 file reformatted\n"))
	assert.Equal(t, 0, parseFilesProcessed("no summary here\n"))
}
