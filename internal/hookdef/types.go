// Package hookdef defines the declarative records that describe a hook and
// the strategy that bundles hooks together. These types are immutable once
// constructed; the scheduler, cache, and executor all depend on this package
// but never mutate a HookDefinition or HookStrategy at runtime.
package hookdef

import "time"

// HookStage groups hooks by how often they should run.
type HookStage string

const (
	StageFast          HookStage = "fast"
	StageComprehensive HookStage = "comprehensive"
)

func (s HookStage) IsValid() bool {
	switch s {
	case StageFast, StageComprehensive:
		return true
	default:
		return false
	}
}

// SecurityLevel governs the short-circuit policy applied by the executor.
type SecurityLevel string

const (
	SecurityCritical SecurityLevel = "critical"
	SecurityHigh     SecurityLevel = "high"
	SecurityMedium   SecurityLevel = "medium"
	SecurityLow      SecurityLevel = "low"
)

func (l SecurityLevel) IsValid() bool {
	switch l {
	case SecurityCritical, SecurityHigh, SecurityMedium, SecurityLow:
		return true
	default:
		return false
	}
}

// Weight orders security levels for display/sorting purposes (higher = more severe).
func (l SecurityLevel) Weight() int {
	switch l {
	case SecurityCritical:
		return 4
	case SecurityHigh:
		return 3
	case SecurityMedium:
		return 2
	case SecurityLow:
		return 1
	default:
		return 0
	}
}

// RetryPolicy controls which failed hooks get a single re-run.
type RetryPolicy string

const (
	RetryNone           RetryPolicy = "none"
	RetryFormattingOnly RetryPolicy = "formatting_only"
	RetryAllHooks       RetryPolicy = "all_hooks"
)

func (p RetryPolicy) IsValid() bool {
	switch p {
	case RetryNone, RetryFormattingOnly, RetryAllHooks:
		return true
	default:
		return false
	}
}

// HookStatus is the terminal (or pre-terminal READY/RUNNING) state of a
// single hook invocation.
type HookStatus string

const (
	StatusReady   HookStatus = "ready"
	StatusRunning HookStatus = "running"
	StatusPassed  HookStatus = "passed"
	StatusFailed  HookStatus = "failed"
	StatusTimeout HookStatus = "timeout"
	StatusError   HookStatus = "error"
	StatusSkipped HookStatus = "skipped"
)

func (s HookStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusTimeout, StatusError, StatusSkipped:
		return true
	default:
		return false
	}
}

func (s HookStatus) IsFailure() bool {
	switch s {
	case StatusFailed, StatusTimeout, StatusError:
		return true
	default:
		return false
	}
}

// HookDefinition is an immutable description of a single hook. Construct it
// once per strategy load; never mutate it after the strategy is built.
type HookDefinition struct {
	Name             string        `json:"name"`
	ArgvTemplate     []string      `json:"argv_template"`
	TimeoutSeconds   int           `json:"timeout_seconds"`
	Stage            HookStage     `json:"stage"`
	SecurityLevel    SecurityLevel `json:"security_level"`
	IsFormatting     bool          `json:"is_formatting"`
	AcceptsFilePaths bool          `json:"accepts_file_paths"`
	RetryOnFailure   bool          `json:"retry_on_failure"`
	ManualStage      bool          `json:"manual_stage"`
}

// Timeout returns the hook's configured timeout, or the supplied default if
// the hook has none set.
func (h HookDefinition) Timeout(defaultTimeout time.Duration) time.Duration {
	if h.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// Validate checks the invariants a HookDefinition must satisfy before it can
// be used in a strategy: non-empty name, positive timeout, valid enums.
// Name uniqueness is checked by HookStrategy.Validate.
func (h HookDefinition) Validate() error {
	if h.Name == "" {
		return ErrInvalidDefinition("hook name must not be empty")
	}
	if h.TimeoutSeconds <= 0 {
		return ErrInvalidDefinition("hook " + h.Name + ": timeout_seconds must be positive")
	}
	if !h.Stage.IsValid() {
		return ErrInvalidDefinition("hook " + h.Name + ": invalid stage")
	}
	if !h.SecurityLevel.IsValid() {
		return ErrInvalidDefinition("hook " + h.Name + ": invalid security_level")
	}
	return nil
}

// HookStrategy is an immutable bundle of hook definitions plus execution
// policy. Build it once (typically from configuration) and pass it to the
// orchestrator.
type HookStrategy struct {
	Name                  string           `json:"name"`
	Hooks                 []HookDefinition `json:"hooks"`
	Parallel              bool             `json:"parallel"`
	MaxWorkers            int              `json:"max_workers"`
	OverallTimeoutSeconds int              `json:"overall_timeout_seconds"`
	RetryPolicy           RetryPolicy      `json:"retry_policy"`
	ManualStage           bool             `json:"manual_stage"`
}

// EffectiveMaxWorkers clamps MaxWorkers to the [1,16] range and forces
// width 1 when the strategy disables parallelism.
func (s HookStrategy) EffectiveMaxWorkers() int {
	if !s.Parallel {
		return 1
	}
	w := s.MaxWorkers
	if w < 1 {
		w = 1
	}
	if w > 16 {
		w = 16
	}
	return w
}

// OverallTimeout returns the strategy's wall-clock budget, or zero (no
// budget) if unset.
func (s HookStrategy) OverallTimeout() time.Duration {
	if s.OverallTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.OverallTimeoutSeconds) * time.Second
}

// Validate checks strategy-level invariants: unique hook names, at least a
// valid retry policy, and that every hook definition itself validates.
func (s HookStrategy) Validate() error {
	if s.Name == "" {
		return ErrInvalidDefinition("strategy name must not be empty")
	}
	if !s.RetryPolicy.IsValid() && s.RetryPolicy != "" {
		return ErrInvalidDefinition("strategy " + s.Name + ": invalid retry_policy")
	}
	seen := make(map[string]struct{}, len(s.Hooks))
	for _, h := range s.Hooks {
		if err := h.Validate(); err != nil {
			return err
		}
		if _, dup := seen[h.Name]; dup {
			return ErrInvalidDefinition("strategy " + s.Name + ": duplicate hook name " + h.Name)
		}
		seen[h.Name] = struct{}{}
	}
	return nil
}

// HookResult is the per-invocation record produced by the executor.
type HookResult struct {
	HookName        string        `json:"hook_name"`
	Stage           HookStage     `json:"stage"`
	Status          HookStatus    `json:"status"`
	DurationSeconds float64       `json:"duration_seconds"`
	IssuesFound     []string      `json:"issues_found,omitempty"`
	IssuesCount     int           `json:"issues_count"`
	FilesProcessed  int           `json:"files_processed"`
	StdoutExcerpt   string        `json:"stdout_excerpt,omitempty"`
	StderrExcerpt   string        `json:"stderr_excerpt,omitempty"`
	ExitCode        int           `json:"exit_code"`
	CacheHit        bool          `json:"cache_hit"`
	TimeoutUsed     time.Duration `json:"-"`
}

// Duration returns DurationSeconds as a time.Duration.
func (r HookResult) Duration() time.Duration {
	return time.Duration(r.DurationSeconds * float64(time.Second))
}

// StrategyResult is the aggregate returned to the orchestrator's caller.
type StrategyResult struct {
	RunID         string        `json:"run_id"`
	StrategyName  string        `json:"strategy_name"`
	Results       []HookResult  `json:"results"`
	TotalDuration time.Duration `json:"total_duration"`
	Success       bool          `json:"success"`
	CacheHits     int           `json:"cache_hits"`
	CacheMisses   int           `json:"cache_misses"`
}

// ErrInvalidDefinition is returned by Validate for malformed hook/strategy
// configuration. It is a plain string-based error rather than a heavier
// model.CLIError because definition validation happens before any of the
// orchestrator's error-context machinery is wired up.
type ErrInvalidDefinition string

func (e ErrInvalidDefinition) Error() string { return string(e) }
