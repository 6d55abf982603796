// Package git implements the content store on top of any git remote using an
// in-memory go-git clone.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNothingToCommit is returned by CommitAndPush when the worktree has no changes
var ErrNothingToCommit = errors.New("nothing to commit")

// Client defines the interface for Git operations
type Client interface {
	// Clone clones a single branch of a repository into memory
	Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error)

	// GetFileContent retrieves the content of a file at HEAD
	GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error)

	// WriteFile writes a file to the worktree and stages it
	WriteFile(repoInfo *RepositoryInfo, path string, data []byte) error

	// CommitAndPush commits the staged changes and pushes the branch to origin
	CommitAndPush(ctx context.Context, repoInfo *RepositoryInfo, commit *CommitConfig) (string, error)

	// Cleanup releases the in-memory repository
	Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error
}

// defaultGitClient implements Client using go-git
type defaultGitClient struct{}

// NewDefaultGitClient creates a new defaultGitClient
func NewDefaultGitClient() Client {
	return &defaultGitClient{}
}

func basicAuth(auth *AuthConfig) *githttp.BasicAuth {
	if auth == nil || auth.Password == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: auth.Username,
		Password: auth.Password,
	}
}

// Clone clones a repository with the given configuration
func (c *defaultGitClient) Clone(ctx context.Context, cfg *CloneConfig) (*RepositoryInfo, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}

	cloneOptions := &git.CloneOptions{
		URL:        cfg.URL,
		RemoteName: git.DefaultRemoteName,
	}
	if auth := basicAuth(cfg.Auth); auth != nil {
		cloneOptions.Auth = auth
		slog.DebugContext(ctx, "Using Git HTTP Basic authentication", "username", auth.Username)
	}
	if cfg.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
		cloneOptions.SingleBranch = true
	}

	// go-git wants separate filesystems for the storer and the checked out files
	worktreeFs := memfs.New()
	storerFs := memfs.New()
	storerCache := cache.NewObjectLRUDefault()
	storer := filesystem.NewStorage(storerFs, storerCache)

	repo, err := git.CloneContext(ctx, storer, worktreeFs, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	repoInfo := &RepositoryInfo{
		Repository:       repo,
		RemoteURL:        cfg.URL,
		storerFilesystem: storerFs,
		objectCache:      storerCache,
	}
	if err := c.updateRepositoryInfo(repoInfo); err != nil {
		return nil, fmt.Errorf("failed to update repository info: %w", err)
	}
	return repoInfo, nil
}

// GetFileContent retrieves the content of a file from the repository
func (*defaultGitClient) GetFileContent(repoInfo *RepositoryInfo, filePath string) ([]byte, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	ref, err := repoInfo.Repository.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	commit, err := repoInfo.Repository.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	file, err := tree.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", filePath, err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return []byte(content), nil
}

// WriteFile writes data at path in the worktree and stages it
func (*defaultGitClient) WriteFile(repoInfo *RepositoryInfo, filePath string, data []byte) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	worktree, err := repoInfo.Repository.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if dir := path.Dir(filePath); dir != "." {
		if err := worktree.Filesystem.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(worktree.Filesystem, filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	if _, err := worktree.Add(filePath); err != nil {
		return fmt.Errorf("failed to stage file %s: %w", filePath, err)
	}
	return nil
}

// CommitAndPush commits the staged changes and pushes the cloned branch.
// It returns ErrNothingToCommit when the staged content matches HEAD.
func (*defaultGitClient) CommitAndPush(
	ctx context.Context, repoInfo *RepositoryInfo, commit *CommitConfig,
) (string, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return "", fmt.Errorf("repository is nil")
	}

	worktree, err := repoInfo.Repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	hash, err := worktree.Commit(commit.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commit.AuthorName,
			Email: commit.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrNothingToCommit
		}
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(repoInfo.Branch)
	pushOptions := &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(ref + ":" + ref)},
	}
	if auth := basicAuth(commit.Auth); auth != nil {
		pushOptions.Auth = auth
	}

	slog.DebugContext(ctx, "Pushing commit", "commit", hash.String(), "branch", repoInfo.Branch)
	if err := repoInfo.Repository.PushContext(ctx, pushOptions); err != nil &&
		!errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("failed to push to %s: %w", repoInfo.RemoteURL, err)
	}
	return hash.String(), nil
}

// Cleanup removes local repository directory
func (*defaultGitClient) Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	if repoInfo.objectCache != nil {
		slog.DebugContext(ctx, "Clearing object cache")
		repoInfo.objectCache.Clear()
	}

	worktree, err := repoInfo.Repository.Worktree()
	if err == nil && worktree.Filesystem != nil {
		_ = util.RemoveAll(worktree.Filesystem, "/")
	}
	if repoInfo.storerFilesystem != nil {
		_ = util.RemoveAll(repoInfo.storerFilesystem, "/")
	}

	repoInfo.objectCache = nil
	repoInfo.storerFilesystem = nil
	repoInfo.Repository = nil

	runtime.GC()
	return nil
}

// updateRepositoryInfo records the checked out branch
func (*defaultGitClient) updateRepositoryInfo(repoInfo *RepositoryInfo) error {
	ref, err := repoInfo.Repository.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	if !ref.Name().IsBranch() {
		return fmt.Errorf("HEAD %s is not a branch", ref.Name())
	}
	repoInfo.Branch = ref.Name().Short()
	return nil
}
