// Package storage selects the content store backend that event records are
// written to.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/content"
	"github.com/mindfulina/eventsync/internal/git"
	"github.com/mindfulina/eventsync/internal/github"
)

// NewContentStore creates the store for the configured backend. gitClient is
// only used by the git backend; nil selects the go-git implementation.
func NewContentStore(cfg *config.ContentConfig, gitClient git.Client) (content.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("content config cannot be nil")
	}

	switch cfg.Backend {
	case config.BackendGitHub:
		if cfg.GitHub == nil {
			return nil, fmt.Errorf("github backend selected without content.github settings")
		}
		slog.Info("Using GitHub contents API store",
			"owner", cfg.GitHub.Owner, "repo", cfg.GitHub.Repo, "branch", cfg.GitHub.Branch)
		return github.NewStore(github.Config{
			APIURL:  cfg.GitHub.APIURL,
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.Repo,
			Branch:  cfg.GitHub.Branch,
			Timeout: cfg.Timeout,
		})
	case config.BackendGit:
		if cfg.Git == nil {
			return nil, fmt.Errorf("git backend selected without content.git settings")
		}
		slog.Info("Using git push store", "repository", cfg.Git.Repository, "branch", cfg.Git.Branch)
		return git.NewStore(git.StoreConfig{
			URL:         cfg.Git.Repository,
			Branch:      cfg.Git.Branch,
			Username:    cfg.Git.Username,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
			WebURL:      cfg.Git.WebURL,
		}, gitClient)
	default:
		return nil, fmt.Errorf("unknown content backend: %s", cfg.Backend)
	}
}
