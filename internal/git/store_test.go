package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindfulina/eventsync/internal/content"
)

func TestNewStore(t *testing.T) {
	t.Parallel()

	_, err := NewStore(StoreConfig{}, nil)
	require.Error(t, err)

	s, err := NewStore(StoreConfig{URL: "https://github.com/mindfulina/site.git", WebURL: "https://github.com/mindfulina/site/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "main", s.cfg.Branch)
	assert.Equal(t, DefaultUsername, s.cfg.Username)
	assert.Equal(t, "https://github.com/mindfulina/site", s.cfg.WebURL)
	assert.Equal(t, "git", s.Name())
}

func TestStore_Put(t *testing.T) {
	t.Parallel()

	remote := newRemote(t)
	s, err := NewStore(StoreConfig{URL: remote, Branch: testBranch, WebURL: "https://github.com/mindfulina/site"}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	file := content.File{
		Path:    "events/2025-06-01-evening-sound-bath.md",
		Content: []byte("---\ntitle: Evening Sound Bath\n---\n\nAloha\n"),
		Message: `feat: Add event "Evening Sound Bath" from GCal ID abc123`,
	}

	rev, err := s.Put(ctx, "", file)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/mindfulina/site/blob/main/events/2025-06-01-evening-sound-bath.md", rev.URL)

	contents, commit := remoteFile(t, remote, file.Path)
	assert.Equal(t, string(file.Content), contents)
	assert.Equal(t, rev.ID, commit.Hash.String())
	assert.Equal(t, file.Message, commit.Message)
	assert.Equal(t, DefaultAuthorName, commit.Author.Name)

	t.Run("identical content is a no-op", func(t *testing.T) {
		again, err := s.Put(ctx, "", file)
		require.NoError(t, err)
		assert.Equal(t, rev.ID, again.ID)
	})

	t.Run("changed content overwrites", func(t *testing.T) {
		changed := file
		changed.Content = []byte("---\ntitle: Evening Sound Bath\neventbriteLink: https://eb/e/1\n---\n\nAloha\n")
		next, err := s.Put(ctx, "", changed)
		require.NoError(t, err)
		assert.NotEqual(t, rev.ID, next.ID)

		contents, _ := remoteFile(t, remote, file.Path)
		assert.Equal(t, string(changed.Content), contents)
	})
}

func TestStore_Put_CloneFailure(t *testing.T) {
	t.Parallel()

	s, err := NewStore(StoreConfig{URL: t.TempDir() + "/missing.git"}, nil)
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "tok", content.File{Path: "events/x.md"})
	assert.ErrorContains(t, err, "failed to clone repository")
}
