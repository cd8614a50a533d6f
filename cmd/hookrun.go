/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"claude-wm-cli/internal/hookcache"
	"claude-wm-cli/internal/hookdef"
	"claude-wm-cli/internal/hookevents"
	"claude-wm-cli/internal/hookexec"
	"claude-wm-cli/internal/hookfile"
	"claude-wm-cli/internal/hookgraph"
	"claude-wm-cli/internal/hookorchestrator"
	"claude-wm-cli/internal/hookpublish"
	"claude-wm-cli/internal/hookresource"
	"claude-wm-cli/internal/hooksecurity"
	"claude-wm-cli/internal/model"
)

var (
	hookRunStage      string
	hookRunNoCache    bool
	hookRunNoParallel bool
	hookRunPublish    bool
	hookRunMaxWorkers int
)

// hookRunCmd drives the full hook-orchestration pipeline: load a strategy
// from config, resolve cache hits, run dependency-ordered waves, audit the
// results for publish-blocking security failures, and optionally post a
// GitHub commit status.
var hookRunCmd = &cobra.Command{
	Use:   "hook-run",
	Short: "Run the code-quality hook pipeline",
	Long: `Run the code-quality hook pipeline: lint, format, and security checks
grouped into dependency-ordered waves, cached by file content, and executed
with bounded parallelism.

Examples:
  claude-wm-cli hook-run                       # run the fast stage
  claude-wm-cli hook-run --stage comprehensive # run every registered hook
  claude-wm-cli hook-run --no-cache            # force every hook to re-run
  claude-wm-cli hook-run --publish             # post a GitHub commit status`,
	Run: func(cmd *cobra.Command, args []string) {
		runHookPipeline()
	},
}

func init() {
	rootCmd.AddCommand(hookRunCmd)

	hookRunCmd.Flags().StringVar(&hookRunStage, "stage", "fast", "hook stage to run (fast|comprehensive)")
	hookRunCmd.Flags().BoolVar(&hookRunNoCache, "no-cache", false, "bypass the result cache entirely")
	hookRunCmd.Flags().BoolVar(&hookRunNoParallel, "no-parallel", false, "force sequential execution")
	hookRunCmd.Flags().BoolVar(&hookRunPublish, "publish", false, "publish a GitHub commit status after the run")
	hookRunCmd.Flags().IntVar(&hookRunMaxWorkers, "max-workers", 0, "override the strategy's max_workers (0 = use strategy default)")
}

func runHookPipeline() {
	repoRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
		os.Exit(1)
	}

	strategy := loadHookStrategy(hookRunStage)

	var registryOpts []hookresource.Option
	if debugMode {
		registryOpts = append(registryOpts, hookresource.WithLeakDetector())
	}
	registry := hookresource.NewRegistry(registryOpts...)
	defer func() {
		registry.CleanupAll()
		for _, leak := range registry.LeakReport() {
			fmt.Fprintf(os.Stderr, "hook-run: leaked resource: %s\n", leak)
		}
	}()

	var cache hookcache.Cache
	if !hookRunNoCache {
		sqliteCache, err := hookcache.OpenSQLiteCache(repoRoot, 15*time.Minute)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hook-run: falling back to in-memory cache: %v\n", err)
			cache = hookcache.NewLRUCache(hookcache.DefaultMaxEntries, 15*time.Minute)
		} else {
			registry.Register(sqliteCache)
			cache = sqliteCache
		}
	}

	bus := hookevents.New()
	bus.Subscribe(func(eventType hookevents.EventType, payload any) {
		if !verbose {
			return
		}
		fmt.Fprintf(os.Stderr, "[%s] %v\n", eventType, payload)
	})

	runner := &hookexec.SubprocessRunner{
		RepoRoot: repoRoot,
		Build:    buildHookCommand,
		Registry: registry,
	}

	orch := hookorchestrator.New(hookorchestrator.Config{
		DependencyMap:  defaultHookDependencies(),
		Cache:          cache,
		Executor:       runner.Run,
		Registry:       registry,
		Events:         bus,
		MaxParallel:    hookRunMaxWorkers,
		DefaultTimeout: 30 * time.Second,
		Verbose:        verbose,
	})
	if hookRunNoParallel {
		strategy.Parallel = false
	}
	if hookRunMaxWorkers > 0 {
		strategy.MaxWorkers = hookRunMaxWorkers
	}

	var result hookdef.StrategyResult
	runErr := runLocked(repoRoot, func() error {
		var err error
		result, err = orch.Run(context.Background(), strategy)
		return err
	})
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "hook-run: %v\n", runErr)
		os.Exit(model.ExitCodes.ClientError)
	}

	if err := persistRunResult(repoRoot, result); err != nil {
		fmt.Fprintf(os.Stderr, "hook-run: could not persist run history: %v\n", err)
	}

	report := hooksecurity.Audit(result.Results)
	printSecurityReport(report)

	if hookRunPublish {
		publishHookStatus(repoRoot, report)
	}

	if report.HasCriticalFailures() {
		os.Exit(model.ExitCodes.CriticalSecurityBlock)
	}
	if !result.Success {
		os.Exit(model.ExitCodes.HooksFailed)
	}
}

// loadHookStrategy reads hooks.<stage> from viper config (populated from
// .claude-wm-cli.yaml per cmd/root.go's initConfig), falling back to a
// built-in strategy when the key is absent, cannot be decoded, or fails
// validation, so the command works out of the box with no configuration.
func loadHookStrategy(stage string) hookdef.HookStrategy {
	key := "hooks." + stage
	if viper.IsSet(key) {
		var strategy hookdef.HookStrategy
		if err := viper.UnmarshalKey(key, &strategy); err == nil {
			if err = strategy.Validate(); err == nil {
				return strategy
			}
			fmt.Fprintf(os.Stderr, "hook-run: ignoring invalid %s config: %v\n", key, err)
		}
	}
	return builtinStrategy(stage)
}

func builtinStrategy(stage string) hookdef.HookStrategy {
	if stage == "comprehensive" {
		return hookdef.HookStrategy{
			Name:        "comprehensive",
			Parallel:    true,
			MaxWorkers:  4,
			RetryPolicy: hookdef.RetryFormattingOnly,
			Hooks: []hookdef.HookDefinition{
				{Name: "ruff-format", Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityLow, IsFormatting: true, AcceptsFilePaths: true, RetryOnFailure: true, TimeoutSeconds: 30},
				{Name: "ruff-check", Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true, TimeoutSeconds: 30},
				{Name: "zuban", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true, TimeoutSeconds: 60},
				{Name: "refurb", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true, TimeoutSeconds: 60},
				{Name: "complexipy", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true, TimeoutSeconds: 60},
				{Name: "vulture", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true, TimeoutSeconds: 60},
				{Name: "creosote", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityHigh, TimeoutSeconds: 60},
				{Name: "check-added-large-files", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityHigh, TimeoutSeconds: 30},
				{Name: "uv-lock", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityHigh, TimeoutSeconds: 30},
				{Name: "validate-regex-patterns", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityHigh, AcceptsFilePaths: true, TimeoutSeconds: 30},
				{Name: "pyright", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityCritical, AcceptsFilePaths: true, TimeoutSeconds: 120},
				{Name: "bandit", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityCritical, AcceptsFilePaths: true, TimeoutSeconds: 60},
				{Name: "gitleaks", Stage: hookdef.StageComprehensive, SecurityLevel: hookdef.SecurityCritical, TimeoutSeconds: 60},
			},
		}
	}

	return hookdef.HookStrategy{
		Name:        "fast",
		Parallel:    true,
		MaxWorkers:  4,
		RetryPolicy: hookdef.RetryFormattingOnly,
		Hooks: []hookdef.HookDefinition{
			{Name: "ruff-format", Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityLow, IsFormatting: true, AcceptsFilePaths: true, RetryOnFailure: true, TimeoutSeconds: 30},
			{Name: "ruff-check", Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityMedium, AcceptsFilePaths: true, TimeoutSeconds: 30},
			{Name: "gitleaks", Stage: hookdef.StageFast, SecurityLevel: hookdef.SecurityCritical, TimeoutSeconds: 30},
		},
	}
}

// defaultHookDependencies: formatters run before the linters that would
// otherwise flag their own un-reformatted output, and type checking runs
// before the refactor-hint tools that assume it already passed.
func defaultHookDependencies() hookgraph.DependencyMap {
	return hookgraph.DependencyMap{
		"ruff-check": {"ruff-format"},
		"refurb":     {"zuban"},
		"bandit":     {"gitleaks"},
	}
}

// buildHookCommand maps a hook name to its argv. Real tool invocations
// belong in a project-local config; this built-in table covers the stock
// crackerjack toolchain so hook-run works without extra setup.
func buildHookCommand(hookName, repoRoot string) ([]string, error) {
	commands := map[string][]string{
		"ruff-format":             {"uv", "run", "ruff", "format"},
		"ruff-check":              {"uv", "run", "ruff", "check"},
		"zuban":                   {"uv", "run", "zuban", "check"},
		"refurb":                  {"uv", "run", "refurb"},
		"complexipy":              {"uv", "run", "complexipy"},
		"vulture":                 {"uv", "run", "vulture"},
		"creosote":                {"uv", "run", "creosote"},
		"check-added-large-files": {"uv", "run", "check-added-large-files"},
		"uv-lock":                 {"uv", "lock", "--check"},
		"validate-regex-patterns": {"uv", "run", "validate-regex-patterns"},
		"pyright":                 {"uv", "run", "pyright"},
		"bandit":                  {"uv", "run", "bandit", "-r", "."},
		"gitleaks":                {"gitleaks", "detect", "--source", repoRoot},
	}
	argv, ok := commands[hookName]
	if !ok {
		return nil, fmt.Errorf("hook-run: no command registered for hook %q", hookName)
	}
	return argv, nil
}

func printSecurityReport(report hooksecurity.Report) {
	if report.TotalFailures() == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\nSecurity audit:")
	for _, w := range report.SecurityWarnings {
		fmt.Fprintln(os.Stderr, "  "+w)
	}
	for _, r := range report.Recommendations {
		fmt.Fprintln(os.Stderr, "  "+r)
	}
}

// runLocked guards fn with an exclusive advisory lock on a repo-level
// marker file so two concurrent hook-run invocations against the same repo
// never resolve cache hits and write back results at the same time.
func runLocked(repoRoot string, fn func() error) error {
	lockDir := filepath.Join(repoRoot, hookcache.DefaultCacheDir)
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return fmt.Errorf("preparing lock directory: %w", err)
	}

	lockPath := filepath.Join(lockDir, "hook-run.lock")
	locked, err := hookfile.OpenLocked(lockPath, os.O_RDWR|os.O_CREATE, 0o644, 30*time.Second)
	if err != nil {
		return fmt.Errorf("another hook-run appears to be in progress: %w", err)
	}
	defer locked.Unlock()

	return fn()
}

// persistRunResult appends the run to a small on-disk history file next to
// the cache, written atomically so a crashed run never leaves a torn file.
func persistRunResult(repoRoot string, result hookdef.StrategyResult) error {
	historyDir := filepath.Join(repoRoot, hookcache.DefaultCacheDir)
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return err
	}

	historyPath := filepath.Join(historyDir, "run-history.json")

	var history []hookdef.StrategyResult
	if raw, err := os.ReadFile(historyPath); err == nil {
		_ = json.Unmarshal(raw, &history)
	}
	history = append(history, result)
	if len(history) > 50 {
		history = history[len(history)-50:]
	}

	encoded, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return hookfile.WriteFileAtomic(historyPath, encoded, false)
}

func publishHookStatus(repoRoot string, report hooksecurity.Report) {
	owner := viper.GetString("github.owner")
	repo := viper.GetString("github.repo")
	sha := viper.GetString("github.sha")
	token := viper.GetString("github.token")
	if owner == "" || repo == "" || sha == "" || token == "" {
		fmt.Fprintln(os.Stderr, "hook-run: --publish requires github.owner/repo/sha/token in config; skipping")
		return
	}

	gate := hookpublish.NewGate(hookpublish.Config{Owner: owner, Repo: repo, SHA: sha, Token: token})
	if err := gate.Publish(context.Background(), report); err != nil {
		fmt.Fprintf(os.Stderr, "hook-run: failed to publish commit status: %v\n", err)
	}
}
