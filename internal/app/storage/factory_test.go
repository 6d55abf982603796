package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindfulina/eventsync/internal/config"
)

func TestNewContentStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cfg           *config.ContentConfig
		expectName    string
		errorContains string
	}{
		{
			name:          "nil config",
			errorContains: "cannot be nil",
		},
		{
			name: "github backend",
			cfg: &config.ContentConfig{
				Backend: config.BackendGitHub,
				GitHub:  &config.GitHubConfig{Owner: "thekizoch", Repo: "mindfulina"},
			},
			expectName: "GitHub",
		},
		{
			name:          "github backend without settings",
			cfg:           &config.ContentConfig{Backend: config.BackendGitHub},
			errorContains: "content.github",
		},
		{
			name: "git backend",
			cfg: &config.ContentConfig{
				Backend: config.BackendGit,
				Git:     &config.GitConfig{Repository: "https://example.com/site.git"},
			},
			expectName: "git",
		},
		{
			name:          "git backend without remote",
			cfg:           &config.ContentConfig{Backend: config.BackendGit, Git: &config.GitConfig{}},
			errorContains: "remote URL is required",
		},
		{
			name:          "unknown backend",
			cfg:           &config.ContentConfig{Backend: "s3"},
			errorContains: "unknown content backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := NewContentStore(tt.cfg, nil)
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectName, store.Name())
		})
	}
}
