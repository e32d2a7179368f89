package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/ccsearch/internal/models"
)

func writeLog(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"user","message":{"content":"hi"}}`+"\n"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestDecodeProjectName(t *testing.T) {
	assert.Equal(t, "/Users/me/app", DecodeProjectName("-Users-me-app"))
	assert.Equal(t, "plain", DecodeProjectName("plain"))
}

func TestScanner(t *testing.T) {
	root := t.TempDir()
	old := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	newer := time.Now().Add(-time.Hour).Truncate(time.Second)

	alpha := filepath.Join(root, "-home-me-alpha")
	writeLog(t, alpha, "a1.jsonl", old)
	writeLog(t, alpha, "a2.jsonl", newer)
	require.NoError(t, os.WriteFile(filepath.Join(alpha, "notes.txt"), []byte("x"), 0644))
	beta := filepath.Join(root, "-home-me-beta")
	writeLog(t, beta, "b1.jsonl", old)
	require.NoError(t, os.Chtimes(alpha, old, old))
	require.NoError(t, os.Chtimes(beta, old, old))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.jsonl"), []byte("{}"), 0644))

	s := NewScanner(root, nil)

	t.Run("projects", func(t *testing.T) {
		projects, err := s.Projects()
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "-home-me-alpha", projects[0].ID)
		assert.Equal(t, "/home/me/alpha", projects[0].Name)
		assert.Equal(t, 2, projects[0].ConversationCount)
		assert.True(t, projects[0].LastModified.Equal(newer))
	})

	t.Run("conversations newest first", func(t *testing.T) {
		files, err := s.Conversations("-home-me-alpha")
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "a2", files[0].ID)
		assert.Equal(t, "a1", files[1].ID)
		assert.Equal(t, "-home-me-alpha", files[0].ProjectID)
	})

	t.Run("latest mod time sees appended files", func(t *testing.T) {
		latest, err := s.LatestModTime("-home-me-beta")
		require.NoError(t, err)
		assert.True(t, latest.Equal(old))

		writeLog(t, beta, "b1.jsonl", newer)
		latest, err = s.LatestModTime("-home-me-beta")
		require.NoError(t, err)
		assert.True(t, latest.Equal(newer))
	})

	t.Run("not found", func(t *testing.T) {
		for _, id := range []string{"missing", "..", "a/b", ""} {
			_, err := s.Conversations(id)
			assert.ErrorIs(t, err, models.ErrNotFound, id)
		}
		_, err := s.ConversationPath("-home-me-alpha", "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.ConversationPath("-home-me-alpha", "../../etc/passwd")
		assert.ErrorIs(t, err, models.ErrNotFound)

		path, err := s.ConversationPath("-home-me-alpha", "a1")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(alpha, "a1.jsonl"), path)
	})

	t.Run("recent", func(t *testing.T) {
		files, err := s.Recent(24 * time.Hour)
		require.NoError(t, err)
		var got []string
		for _, f := range files {
			got = append(got, f.ID)
		}
		assert.ElementsMatch(t, []string{"a2", "b1"}, got)
	})
}

func TestScannerMissingRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "absent"), nil)
	projects, err := s.Projects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}
