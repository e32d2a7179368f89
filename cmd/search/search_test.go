package search

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/service"
)

var register sync.Once

func setup(t *testing.T) {
	t.Helper()
	register.Do(func() { root.RootCmd.AddCommand(SearchCmd) })

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))

	projects := filepath.Join(tmp, "projects")
	t.Setenv("CCSEARCH_PROJECTS_ROOT", projects)

	write := func(project, id string, lines ...string) {
		dir := filepath.Join(projects, project)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".jsonl"), []byte(strings.Join(lines, "\n")+"\n"), 0644))
	}
	write("-work-api", "c1",
		`{"type":"summary","summary":"Flaky tests"}`,
		`{"type":"user","uuid":"u1","timestamp":"2025-01-01T10:00:00Z","message":{"role":"user","content":"the flaky test fails again"}}`,
		`{"type":"assistant","uuid":"a1","timestamp":"2025-01-01T10:01:00Z","message":{"role":"assistant","content":[{"type":"text","text":"fixed the flaky test"}]}}`,
	)
	write("-work-web", "c2",
		`{"type":"user","uuid":"u2","timestamp":"2025-01-02T10:00:00Z","message":{"role":"user","content":"a test that is flaky"}}`,
	)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// flag values persist between executions of the same command
	mode, projectID, limit, format, quiet, noColor = "", "", 0, root.FormatTable, false, false

	var out bytes.Buffer
	root.RootCmd.SetOut(&out)
	root.RootCmd.SetErr(&out)
	root.RootCmd.SetArgs(append([]string{"search"}, args...))
	err := root.RootCmd.Execute()
	return out.String(), err
}

func TestSearchJSON(t *testing.T) {
	setup(t)

	out, err := run(t, "--format", "json", "flaky", "test")
	require.NoError(t, err)

	var resp service.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "flaky test", resp.Query)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c1", resp.Results[0].ConversationID)
	assert.Equal(t, 2, resp.Results[0].MatchCount)
	assert.Equal(t, "-work-web", resp.Results[1].ProjectID)
}

func TestSearchExactWithinProject(t *testing.T) {
	setup(t)

	out, err := run(t, "--format", "csv", "--mode", "exact", "--project", "-work-web", "flaky test")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 1, "only the header should be written: %s", out)

	out, err = run(t, "--format", "csv", "--mode", "exact", "--project", "-work-api", "flaky test")
	require.NoError(t, err)
	assert.Contains(t, out, "-work-api,c1,Flaky tests,2,")
	assert.Contains(t, out, "u1 a1")
}

func TestSearchTable(t *testing.T) {
	setup(t)

	out, err := run(t, "--limit", "1", "flaky")
	require.NoError(t, err)
	assert.Contains(t, out, "Project")
	assert.Contains(t, out, "c1")
	assert.NotContains(t, out, "c2")
	assert.Contains(t, out, "Found 2 conversations (showing first 1)")
}

func TestSearchWhitespaceQueryIsEmpty(t *testing.T) {
	setup(t)

	out, err := run(t, "   ")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")

	out, err = run(t, "--format", "json", " ", "\t")
	require.NoError(t, err)
	var resp service.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Results)
}

func TestSearchErrors(t *testing.T) {
	setup(t)

	_, err := run(t, "--mode", "fuzzy", "flaky")
	assert.Error(t, err)

	_, err = run(t, "--format", "xml", "flaky")
	assert.Error(t, err)

	_, err = run(t, "--project", "-missing", "flaky")
	assert.Error(t, err)
}
