// Package hookpublish posts an optional GitHub commit status reflecting
// the security audit's publish decision. It is strictly additive: the
// orchestration core never requires a PublishGate to be configured.
package hookpublish

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"claude-wm-cli/internal/hooksecurity"
	"claude-wm-cli/internal/model"
)

// Config names the repository and commit to annotate.
type Config struct {
	Owner string
	Repo  string
	SHA   string
	Token string
	// Context is the commit-status context string (e.g. "hooks/security").
	Context string
}

// Gate posts a GitHub commit status derived from a security audit report.
type Gate struct {
	client *github.Client
	cfg    Config
}

// NewGate builds a Gate authenticated with a static OAuth2 token (no
// refresh; hook runs are short-lived).
func NewGate(cfg Config) *Gate {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &Gate{client: github.NewClient(httpClient), cfg: cfg}
}

// Publish posts success or failure based on report.AllowsPublishing (the
// pending state is posted by PublishPending). A
// report with critical failures posts "failure" with a description naming
// the blocking hooks; otherwise "success". Any GitHub API error is returned
// to the caller rather than swallowed — unlike the core's cache/event
// errors, a publish-gate failure is not something the orchestrator should
// silently hide from whatever CI system is consuming the commit status.
func (g *Gate) Publish(ctx context.Context, report hooksecurity.Report) error {
	state, description := statusFor(report)

	status := &github.RepoStatus{
		State:       github.String(state),
		Description: github.String(description),
		Context:     github.String(g.contextName()),
	}

	_, resp, err := g.client.Repositories.CreateStatus(ctx, g.cfg.Owner, g.cfg.Repo, g.cfg.SHA, status)
	if err != nil {
		return model.NewGitHubError("create commit status", httpStatus(resp), err)
	}
	return nil
}

// PublishPending posts a "pending" status before hook execution starts, so
// the commit shows an in-flight check rather than no status at all.
func (g *Gate) PublishPending(ctx context.Context) error {
	status := &github.RepoStatus{
		State:       github.String("pending"),
		Description: github.String("hook orchestration running"),
		Context:     github.String(g.contextName()),
	}
	_, resp, err := g.client.Repositories.CreateStatus(ctx, g.cfg.Owner, g.cfg.Repo, g.cfg.SHA, status)
	if err != nil {
		return model.NewGitHubError("create commit status", httpStatus(resp), err)
	}
	return nil
}

func httpStatus(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

func (g *Gate) contextName() string {
	if g.cfg.Context != "" {
		return g.cfg.Context
	}
	return "hooks/security"
}

func statusFor(report hooksecurity.Report) (state, description string) {
	if !report.AllowsPublishing {
		return "failure", fmt.Sprintf("%d critical security check(s) failed", len(report.CriticalFailures))
	}
	if len(report.HighFailures) > 0 {
		return "success", fmt.Sprintf("passed with %d high-security warning(s)", len(report.HighFailures))
	}
	return "success", "all security checks passed"
}
