package git

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// CloneConfig describes the branch to clone
type CloneConfig struct {
	// URL is the remote URL, or a local path for file remotes
	URL string
	// Branch is the branch to clone and later push to
	Branch string
	// Auth is optional HTTP basic authentication
	Auth *AuthConfig
}

// AuthConfig is HTTP basic authentication. Token-based hosts accept the token as the password.
type AuthConfig struct {
	Username string
	Password string
}

// CommitConfig describes a commit to create and push
type CommitConfig struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	Auth        *AuthConfig
}

// RepositoryInfo is an in-memory clone
type RepositoryInfo struct {
	Repository *git.Repository
	RemoteURL  string
	Branch     string

	storerFilesystem billy.Filesystem
	objectCache      cache.Object
}
