// Package github triggers a redeploy of a stalled keeper by committing to the
// deployment repository.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/httpclient"
	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.RecoveryTrigger = (*RecoveryTrigger)(nil)

const apiVersion = "2022-11-28"

// Config holds the recovery trigger configuration.
type Config struct {
	// BaseURL is the GitHub REST API root.
	BaseURL string
	Token   string
	// Repo is the owner/name slug of the deployment repository.
	Repo   string
	Branch string
	// Path is the file rewritten on every recovery.
	Path           string
	CommitterName  string
	CommitterEmail string
	Timeout        time.Duration
	Retry          retry.Policy
	Logger         *slog.Logger
	Now            func() time.Time
}

// ConfigDefaults returns a config with default values.
func ConfigDefaults() Config {
	return Config{
		BaseURL:        "https://api.github.com",
		Branch:         "master",
		Path:           "RECOVERY.md",
		CommitterName:  "keeper-monitor",
		CommitterEmail: "keeper-monitor@users.noreply.github.com",
		Timeout:        10 * time.Second,
		Retry:          retry.Exponential(2, 500*time.Millisecond, 5*time.Second),
		Logger:         slog.Default(),
		Now:            time.Now,
	}
}

// RecoveryTrigger commits a marker file so the deployment pipeline restarts
// the keeper.
type RecoveryTrigger struct {
	config Config
	http   *httpclient.Client
	logger *slog.Logger
}

// NewRecoveryTrigger creates a recovery trigger.
func NewRecoveryTrigger(config Config) (*RecoveryTrigger, error) {
	if config.Token == "" {
		return nil, errors.New("github token is required")
	}
	if !strings.Contains(config.Repo, "/") {
		return nil, fmt.Errorf("repository must be owner/name, got %q", config.Repo)
	}

	defaults := ConfigDefaults()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Branch == "" {
		config.Branch = defaults.Branch
	}
	if config.Path == "" {
		config.Path = defaults.Path
	}
	if config.CommitterName == "" {
		config.CommitterName = defaults.CommitterName
	}
	if config.CommitterEmail == "" {
		config.CommitterEmail = defaults.CommitterEmail
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Retry == (retry.Policy{}) {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	logger := config.Logger.With("component", "github-recovery", "repo", config.Repo, "branch", config.Branch)
	return &RecoveryTrigger{
		config: config,
		http:   httpclient.NewClient(httpclient.Config{Timeout: config.Timeout, Retry: config.Retry}, logger, nil),
		logger: logger,
	}, nil
}

type branchResponse struct {
	Commit struct {
		Commit struct {
			Tree struct {
				URL string `json:"url"`
			} `json:"tree"`
		} `json:"commit"`
	} `json:"commit"`
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"tree"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type contentsRequest struct {
	Message   string    `json:"message"`
	Content   string    `json:"content"`
	Branch    string    `json:"branch"`
	Committer committer `json:"committer"`
	SHA       string    `json:"sha,omitempty"`
}

// TriggerRecovery rewrites the marker file on the deployment branch.
func (r *RecoveryTrigger) TriggerRecovery(ctx context.Context, role entity.Role, reason string) error {
	headers := r.headers()

	var branch branchResponse
	branchURL := fmt.Sprintf("%s/repos/%s/branches/%s", r.config.BaseURL, r.config.Repo, r.config.Branch)
	if err := r.http.Get(ctx, branchURL, headers, &branch); err != nil {
		return fmt.Errorf("fetching branch %s: %w", r.config.Branch, err)
	}
	treeURL := branch.Commit.Commit.Tree.URL
	if treeURL == "" {
		return fmt.Errorf("branch %s has no commit tree", r.config.Branch)
	}

	var tree treeResponse
	if err := r.http.Get(ctx, treeURL, headers, &tree); err != nil {
		return fmt.Errorf("fetching commit tree: %w", err)
	}
	var sha string
	for _, entry := range tree.Tree {
		if entry.Path == r.config.Path {
			sha = entry.SHA
			break
		}
	}
	if sha == "" {
		r.logger.Info("marker file not in tree, creating it", "path", r.config.Path)
	}

	now := r.config.Now().UTC()
	body := contentsRequest{
		Message: fmt.Sprintf("Automated recovery of %s keeper %s", role, now.Format(time.RFC3339)),
		Content: base64.StdEncoding.EncodeToString([]byte(
			fmt.Sprintf("# Keeper recovery\n\nrole: %s\nat: %s\nreason: %s\n", role, now.Format(time.RFC3339), reason),
		)),
		Branch:    r.config.Branch,
		Committer: committer{Name: r.config.CommitterName, Email: r.config.CommitterEmail},
		SHA:       sha,
	}
	contentsURL := fmt.Sprintf("%s/repos/%s/contents/%s", r.config.BaseURL, r.config.Repo, r.config.Path)
	err := r.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPut,
		URL:     contentsURL,
		Headers: headers,
		Body:    body,
	}, nil)
	if err != nil {
		return fmt.Errorf("updating %s: %w", r.config.Path, err)
	}

	r.logger.Info("recovery commit pushed", "role", role, "path", r.config.Path)
	return nil
}

func (r *RecoveryTrigger) headers() map[string]string {
	return map[string]string{
		"Accept":               "application/vnd.github+json",
		"Authorization":        "Bearer " + r.config.Token,
		"X-GitHub-Api-Version": apiVersion,
	}
}
