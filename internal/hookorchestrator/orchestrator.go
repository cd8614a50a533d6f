// Package hookorchestrator is the top-level entry point: given a
// HookStrategy, it resolves cache hits, groups the remainder into
// dependency waves, dispatches them through the adaptive executor, writes
// back successful results, applies the strategy's retry policy, emits
// lifecycle events, and returns an aggregate StrategyResult.
package hookorchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"claude-wm-cli/internal/hookcache"
	"claude-wm-cli/internal/hookdef"
	"claude-wm-cli/internal/hookevents"
	"claude-wm-cli/internal/hookexec"
	"claude-wm-cli/internal/hookgraph"
	"claude-wm-cli/internal/hookresource"
	"claude-wm-cli/internal/model"
)

// Config wires every external collaborator the orchestrator depends on.
// Only Executor is required to do real work; Cache, Events, and
// DependencyMap default to safe no-ops/empty values when omitted. All
// wiring is explicit constructor parameters; there is no global service
// locator.
type Config struct {
	DependencyMap  hookgraph.DependencyMap
	Cache          hookcache.Cache
	FileFilter     hookexec.FileFilter
	Executor       hookexec.HookExecutorFunc
	Registry       *hookresource.Registry
	Events         *hookevents.Bus
	MaxParallel    int
	DefaultTimeout time.Duration
	Verbose        bool
	// DisableCriticalShortCircuit opts out of the default
	// stop-on-critical-failure behavior. Short-circuiting is on by
	// default because that's the safe choice; this field exists for the
	// rare caller that wants every wave to run regardless.
	DisableCriticalShortCircuit bool
}

// Orchestrator is the single-owner top-level entry point. No two goroutines
// mutate its state concurrently — it fans out work per Run call and
// collects everything back onto the calling goroutine before returning.
type Orchestrator struct {
	cfg Config
}

// New constructs an Orchestrator. Initialization is idempotent: no global
// state is touched, so constructing (and discarding) an Orchestrator has no
// side effects beyond this call.
func New(cfg Config) *Orchestrator {
	if cfg.DependencyMap == nil {
		cfg.DependencyMap = hookgraph.DependencyMap{}
	}
	if cfg.MaxParallel < 0 {
		cfg.MaxParallel = 0
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	return &Orchestrator{cfg: cfg}
}

// Run executes strategy to completion and returns the aggregate result.
// The only error it can return is a configuration rejection (an invalid
// strategy), detected before any hook runs. Past that point it never lets a
// hook-level or collaborator-level error escape: every failure degrades to
// a HookResult with a terminal, non-PASSED status.
func (o *Orchestrator) Run(ctx context.Context, strategy hookdef.HookStrategy) (hookdef.StrategyResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	if err := strategy.Validate(); err != nil {
		return hookdef.StrategyResult{
			RunID:        runID,
			StrategyName: strategy.Name,
			Success:      false,
		}, model.NewConfigurationError("invalid hook strategy").WithCause(err)
	}

	if budget := strategy.OverallTimeout(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	// Registering the run itself as a task means a registry CleanupAll
	// (host shutdown, termination signal) cancels all outstanding hooks.
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	if o.cfg.Registry != nil {
		done := make(chan struct{})
		defer close(done)
		o.cfg.Registry.Register(hookresource.NewTaskHandle(cancelRun, done))
	}

	o.emit(hookevents.HookStrategyStarted, strategy.Name)

	byName := make(map[string]hookdef.HookDefinition, len(strategy.Hooks))
	for _, h := range strategy.Hooks {
		byName[h.Name] = h
	}

	results := make(map[string]hookdef.HookResult, len(strategy.Hooks))

	// Manual-stage hooks are filtered out before dispatch unless the
	// strategy opts in; the orchestrator (not the scheduler) assigns their
	// SKIPPED results.
	runnable := make([]hookdef.HookDefinition, 0, len(strategy.Hooks))
	for _, h := range strategy.Hooks {
		if h.ManualStage && !strategy.ManualStage {
			results[h.Name] = hookdef.HookResult{HookName: h.Name, Stage: h.Stage, Status: hookdef.StatusSkipped}
			continue
		}
		runnable = append(runnable, h)
	}

	waves, graphErr := hookgraph.Decompose(runnable, o.cfg.DependencyMap)
	if graphErr != nil {
		if cycleErr, ok := graphErr.(*hookgraph.CycleError); ok {
			for _, name := range cycleErr.Remaining {
				def := byName[name]
				results[name] = hookdef.HookResult{HookName: name, Stage: def.Stage, Status: hookdef.StatusError}
			}
		}
	}

	execOpts := hookexec.Options{
		MaxParallel:           strategy.EffectiveMaxWorkers(),
		DefaultTimeout:        o.cfg.DefaultTimeout,
		StopOnCriticalFailure: !o.cfg.DisableCriticalShortCircuit,
		OnHookStart: func(name string) {
			o.emit(hookevents.HookExecutionStarted, name)
		},
		OnHookComplete: func(result hookdef.HookResult) {
			o.emit(hookevents.HookExecutionCompleted, result)
		},
	}
	if o.cfg.MaxParallel > 0 && o.cfg.MaxParallel < execOpts.MaxParallel {
		execOpts.MaxParallel = o.cfg.MaxParallel
	}

	// Waves are resolved and dispatched one at a time so the critical
	// short-circuit sees every result in a wave, cached or freshly run. A
	// wave satisfied entirely from cache can still carry a CRITICAL
	// failure, and skipping its dependents must not depend on whether this
	// run or a previous one produced that failure: cold and warm runs
	// must settle every hook identically.
	skipRemaining := false
	for _, wave := range waves {
		if skipRemaining {
			for _, def := range wave {
				results[def.Name] = hookdef.HookResult{HookName: def.Name, Stage: def.Stage, Status: hookdef.StatusSkipped}
			}
			continue
		}

		hits, remaining := o.resolveWaveCache(wave)
		for name, result := range hits {
			results[name] = result
		}

		if len(remaining) > 0 {
			dispatched := hookexec.Run(ctx, []hookgraph.Wave{remaining}, o.cfg.Executor, execOpts)
			for _, result := range dispatched {
				results[result.HookName] = result
				o.writeBackIfSuccessful(strategy, byName[result.HookName], result)
			}
		}

		if !o.cfg.DisableCriticalShortCircuit && waveHasCriticalFailure(wave, results) {
			skipRemaining = true
		}
	}

	o.applyRetryPolicy(ctx, strategy, results, execOpts)

	aggregate := o.aggregate(runID, strategy, start, results)
	o.emit(hookevents.HookStrategyCompleted, aggregate)
	if o.cfg.Verbose {
		o.printSummary(aggregate)
	}
	return aggregate, nil
}

// resolveWaveCache computes the cache key for every hook in one wave and
// splits the wave into cache-hit results and the hooks still worth
// dispatching.
func (o *Orchestrator) resolveWaveCache(wave hookgraph.Wave) (map[string]hookdef.HookResult, hookgraph.Wave) {
	hits := make(map[string]hookdef.HookResult)
	if o.cfg.Cache == nil {
		return hits, wave
	}

	var remaining hookgraph.Wave
	for _, def := range wave {
		files := o.filesFor(def.Name)
		key, err := o.cfg.Cache.ComputeKey(def, files)
		if err != nil {
			remaining = append(remaining, def)
			continue
		}
		if result, ok := o.cfg.Cache.Get(key); ok {
			result.CacheHit = true
			hits[def.Name] = result
			continue
		}
		remaining = append(remaining, def)
	}
	return hits, remaining
}

// waveHasCriticalFailure reports whether any hook in wave settled with a
// CRITICAL security level and a failing status, regardless of whether the
// result came from cache or dispatch.
func waveHasCriticalFailure(wave hookgraph.Wave, results map[string]hookdef.HookResult) bool {
	for _, def := range wave {
		if def.SecurityLevel != hookdef.SecurityCritical {
			continue
		}
		if results[def.Name].Status.IsFailure() {
			return true
		}
	}
	return false
}

func (o *Orchestrator) filesFor(hookName string) []string {
	if o.cfg.FileFilter == nil {
		return nil
	}
	return o.cfg.FileFilter(hookName)
}

// writeBackIfSuccessful caches PASSED/FAILED results (deterministic
// outcomes of running the hook against this exact input) but not
// TIMEOUT/ERROR, which are environmental faults that a later run under the
// same cache key should get a real chance to resolve.
func (o *Orchestrator) writeBackIfSuccessful(strategy hookdef.HookStrategy, def hookdef.HookDefinition, result hookdef.HookResult) {
	if o.cfg.Cache == nil || result.CacheHit {
		return
	}
	if result.Status != hookdef.StatusPassed && result.Status != hookdef.StatusFailed {
		return
	}
	files := o.filesFor(def.Name)
	key, err := o.cfg.Cache.ComputeKey(def, files)
	if err != nil {
		return
	}
	o.cfg.Cache.Set(key, result, 0)
}

// applyRetryPolicy re-runs failed hooks once, when the strategy's policy
// selects them and their definition opts in via RetryOnFailure. Retries
// bypass the cache read but do write back on success, so the successful
// retry becomes the result future runs observe.
func (o *Orchestrator) applyRetryPolicy(ctx context.Context, strategy hookdef.HookStrategy, results map[string]hookdef.HookResult, execOpts hookexec.Options) {
	if strategy.RetryPolicy == hookdef.RetryNone || strategy.RetryPolicy == "" {
		return
	}

	// Iterate in strategy definition order so retries run deterministically
	// rather than in map order.
	for _, def := range strategy.Hooks {
		name := def.Name
		result, ok := results[name]
		if !ok || !result.Status.IsFailure() {
			continue
		}
		// Both the strategy policy and the hook's own retry flag must
		// agree before a failed hook is re-run.
		if !def.RetryOnFailure {
			continue
		}
		if strategy.RetryPolicy == hookdef.RetryFormattingOnly && !def.IsFormatting {
			continue
		}

		retried := hookexec.RunOne(ctx, def, o.cfg.Executor, execOpts)
		retried.DurationSeconds += result.DurationSeconds
		results[name] = retried

		if retried.Status == hookdef.StatusPassed {
			o.writeBackIfSuccessful(strategy, def, retried)
		}
	}
}

func (o *Orchestrator) aggregate(runID string, strategy hookdef.HookStrategy, start time.Time, results map[string]hookdef.HookResult) hookdef.StrategyResult {
	ordered := make([]hookdef.HookResult, 0, len(strategy.Hooks))
	success := true
	cacheHits, cacheMisses := 0, 0
	for _, h := range strategy.Hooks {
		r, ok := results[h.Name]
		if !ok {
			r = hookdef.HookResult{HookName: h.Name, Stage: h.Stage, Status: hookdef.StatusError}
		}
		ordered = append(ordered, r)
		if r.Status != hookdef.StatusPassed {
			success = false
		}
		if r.CacheHit {
			cacheHits++
		} else {
			cacheMisses++
		}
	}

	return hookdef.StrategyResult{
		RunID:         runID,
		StrategyName:  strategy.Name,
		Results:       ordered,
		TotalDuration: time.Since(start),
		Success:       success,
		CacheHits:     cacheHits,
		CacheMisses:   cacheMisses,
	}
}

func (o *Orchestrator) emit(eventType hookevents.EventType, payload any) {
	if o.cfg.Events == nil {
		return
	}
	o.cfg.Events.Emit(eventType, payload)
}

func (o *Orchestrator) printSummary(result hookdef.StrategyResult) {
	fmt.Fprintf(os.Stderr, "\n📊 Strategy %q summary:\n", result.StrategyName)
	fmt.Fprintf(os.Stderr, "  Hooks: %d, cache hits: %d, cache misses: %d\n", len(result.Results), result.CacheHits, result.CacheMisses)
	fmt.Fprintf(os.Stderr, "  Duration: %v, success: %v\n", result.TotalDuration, result.Success)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "\n❌ Non-passing hooks:\n")
		for _, r := range result.Results {
			if r.Status != hookdef.StatusPassed {
				fmt.Fprintf(os.Stderr, "  - %s: %s\n", r.HookName, r.Status)
			}
		}
	}
}
