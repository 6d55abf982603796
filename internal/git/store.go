package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindfulina/eventsync/internal/content"
)

const (
	// DefaultUsername is the basic-auth user sent with token credentials
	DefaultUsername = "x-access-token"
	// DefaultAuthorName is the commit author of generated records
	DefaultAuthorName = "Mindfulina Calendar Sync"
	// DefaultAuthorEmail is the commit author email of generated records
	DefaultAuthorEmail = "calendar-sync@mindfulina.invalid"
)

// StoreConfig identifies the remote records are pushed to
type StoreConfig struct {
	URL         string
	Branch      string
	Username    string
	AuthorName  string
	AuthorEmail string
	// WebURL is the browsable repository root, e.g. https://github.com/owner/repo.
	// When set, revisions carry a link to the written file.
	WebURL string
}

// Store writes files by cloning the branch, committing and pushing
type Store struct {
	cfg    StoreConfig
	client Client
}

var _ content.Store = (*Store)(nil)

// NewStore creates a Store. A nil client selects the go-git implementation.
func NewStore(cfg StoreConfig, client Client) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("git remote URL is required")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = DefaultAuthorName
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = DefaultAuthorEmail
	}
	cfg.WebURL = strings.TrimRight(cfg.WebURL, "/")
	if client == nil {
		client = NewDefaultGitClient()
	}
	return &Store{cfg: cfg, client: client}, nil
}

// Name returns the backend name used in messages
func (*Store) Name() string {
	return "git"
}

// Put writes file on the configured branch. Rewriting identical content is a no-op.
func (s *Store) Put(ctx context.Context, token string, file content.File) (*content.Revision, error) {
	auth := &AuthConfig{Username: s.cfg.Username, Password: token}

	repoInfo, err := s.client.Clone(ctx, &CloneConfig{URL: s.cfg.URL, Branch: s.cfg.Branch, Auth: auth})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.client.Cleanup(ctx, repoInfo); err != nil {
			slog.WarnContext(ctx, "Failed to clean up repository", "error", err)
		}
	}()

	existing, err := s.client.GetFileContent(repoInfo, file.Path)
	if err == nil && bytes.Equal(existing, file.Content) {
		slog.InfoContext(ctx, "Record unchanged, skipping commit", "path", file.Path)
		return s.revision(repoInfo, file.Path, "")
	}

	if err := s.client.WriteFile(repoInfo, file.Path, file.Content); err != nil {
		return nil, err
	}

	hash, err := s.client.CommitAndPush(ctx, repoInfo, &CommitConfig{
		Message:     file.Message,
		AuthorName:  s.cfg.AuthorName,
		AuthorEmail: s.cfg.AuthorEmail,
		Auth:        auth,
	})
	if errors.Is(err, ErrNothingToCommit) {
		return s.revision(repoInfo, file.Path, "")
	}
	if err != nil {
		return nil, err
	}
	return s.revision(repoInfo, file.Path, hash)
}

// revision builds the result for path. An empty hash means HEAD was left unchanged.
func (s *Store) revision(repoInfo *RepositoryInfo, filePath, hash string) (*content.Revision, error) {
	if hash == "" {
		head, err := repoInfo.Repository.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
		}
		hash = head.Hash().String()
	}

	rev := &content.Revision{ID: hash}
	if s.cfg.WebURL != "" {
		rev.URL = fmt.Sprintf("%s/blob/%s/%s", s.cfg.WebURL, s.cfg.Branch, strings.TrimLeft(filePath, "/"))
	}
	return rev, nil
}
