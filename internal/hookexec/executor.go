// Package hookexec is the adaptive, bounded-parallel scheduler: it walks a
// sequence of dependency waves, fans each wave out under a semaphore,
// enforces per-hook timeouts, and short-circuits remaining waves on a
// critical-security failure.
package hookexec

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"claude-wm-cli/internal/hookdef"
	"claude-wm-cli/internal/hookgraph"
)

// HookExecutorFunc turns a single HookDefinition into a HookResult. It is
// injected by the orchestrator, as a subprocess runner (see subprocess.go)
// or an in-process test double, and is the only thing the scheduler calls
// to actually run a hook. A panic from it degrades to an ERROR result.
type HookExecutorFunc func(ctx context.Context, def hookdef.HookDefinition) hookdef.HookResult

// Options configures a single Run call.
type Options struct {
	MaxParallel           int
	DefaultTimeout        time.Duration
	StopOnCriticalFailure bool
	// OnHookStart/OnHookComplete are optional progress callbacks. Panics
	// from either are recovered and swallowed; a reporter bug must never
	// abort the scheduler.
	OnHookStart    func(name string)
	OnHookComplete func(result hookdef.HookResult)
}

// Run executes every wave in order, never starting wave i+1 until wave i is
// fully settled. Results are returned in the order the waves list their
// hooks (wave by wave), regardless of completion order within a wave. If StopOnCriticalFailure
// trips after a wave, remaining hooks are assigned SKIPPED results and no
// further waves run.
func Run(ctx context.Context, waves []hookgraph.Wave, exec HookExecutorFunc, opts Options) []hookdef.HookResult {
	order := make([]string, 0)
	indexOf := make(map[string]int)
	for _, wave := range waves {
		for _, h := range wave {
			indexOf[h.Name] = len(order)
			order = append(order, h.Name)
		}
	}
	results := make([]hookdef.HookResult, len(order))

	skipRemaining := false
	for _, wave := range waves {
		if skipRemaining {
			for _, h := range wave {
				results[indexOf[h.Name]] = hookdef.HookResult{
					HookName: h.Name,
					Stage:    h.Stage,
					Status:   hookdef.StatusSkipped,
				}
			}
			continue
		}

		waveResults := runWave(ctx, wave, exec, opts)
		criticalFailure := false
		for _, h := range wave {
			r := waveResults[h.Name]
			results[indexOf[h.Name]] = r
			if opts.StopOnCriticalFailure && h.SecurityLevel == hookdef.SecurityCritical && r.Status.IsFailure() {
				criticalFailure = true
			}
		}
		if criticalFailure {
			skipRemaining = true
		}
	}

	return results
}

func runWave(ctx context.Context, wave hookgraph.Wave, exec HookExecutorFunc, opts Options) map[string]hookdef.HookResult {
	results := make(map[string]hookdef.HookResult, len(wave))
	if len(wave) == 0 {
		return results
	}

	parallel := opts.MaxParallel
	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(wave) {
		parallel = len(wave)
	}
	sem := semaphore.NewWeighted(int64(parallel))

	type outcome struct {
		name   string
		result hookdef.HookResult
	}
	out := make(chan outcome, len(wave))

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range wave {
		h := h
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				out <- outcome{name: h.Name, result: hookdef.HookResult{
					HookName:      h.Name,
					Stage:         h.Stage,
					Status:        hookdef.StatusError,
					StderrExcerpt: err.Error(),
				}}
				return nil
			}
			defer sem.Release(1)

			out <- outcome{name: h.Name, result: runOne(gctx, h, exec, opts)}
			return nil
		})
	}
	_ = g.Wait()
	close(out)

	for o := range out {
		results[o.name] = o.result
	}
	return results
}

// RunOne executes a single hook definition outside of any wave, applying
// the same per-hook timeout/cancellation/panic-classification rules as a
// wave member. The orchestrator uses this for retry dispatch, where a
// failed hook is re-run individually rather than as part of its original
// wave.
func RunOne(ctx context.Context, def hookdef.HookDefinition, exec HookExecutorFunc, opts Options) hookdef.HookResult {
	return runOne(ctx, def, exec, opts)
}

func runOne(ctx context.Context, def hookdef.HookDefinition, exec HookExecutorFunc, opts Options) hookdef.HookResult {
	notifyStart(opts.OnHookStart, def.Name)

	timeout := def.Timeout(opts.DefaultTimeout)
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := invoke(taskCtx, def, exec)
	if result.Status == "" {
		if taskCtx.Err() == context.DeadlineExceeded {
			result = hookdef.HookResult{HookName: def.Name, Stage: def.Stage, Status: hookdef.StatusTimeout}
		}
	}
	if result.TimeoutUsed == 0 {
		result.TimeoutUsed = timeout
	}
	if result.DurationSeconds == 0 {
		result.DurationSeconds = time.Since(start).Seconds()
	}

	notifyComplete(opts.OnHookComplete, result)
	return result
}

// invoke calls exec and converts a panic or a deadline-exceeded context
// into the appropriate terminal result: TIMEOUT when the deadline elapsed,
// ERROR for everything else.
func invoke(ctx context.Context, def hookdef.HookDefinition, exec HookExecutorFunc) (result hookdef.HookResult) {
	defer func() {
		if r := recover(); r != nil {
			if ctx.Err() == context.DeadlineExceeded {
				result = hookdef.HookResult{HookName: def.Name, Stage: def.Stage, Status: hookdef.StatusTimeout}
				return
			}
			result = hookdef.HookResult{
				HookName:      def.Name,
				Stage:         def.Stage,
				Status:        hookdef.StatusError,
				StderrExcerpt: "panic in executor function",
			}
		}
	}()
	result = exec(ctx, def)
	if result.HookName == "" {
		result.HookName = def.Name
	}
	if result.Stage == "" {
		result.Stage = def.Stage
	}
	if ctx.Err() == context.DeadlineExceeded && !result.Status.IsTerminal() {
		result.Status = hookdef.StatusTimeout
	}
	return result
}

func notifyStart(cb func(string), name string) {
	if cb == nil {
		return
	}
	defer func() { _ = recover() }()
	cb(name)
}

func notifyComplete(cb func(hookdef.HookResult), result hookdef.HookResult) {
	if cb == nil {
		return
	}
	defer func() { _ = recover() }()
	cb(result)
}
