package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLifecycle(t *testing.T) {
	dir := t.TempDir()
	sys := filepath.Join(dir, "system")
	file := writeFile(t, dir, "services.yaml", serviceYAML("inventory"))

	out, err := execute(t, "--format", "json", "add", "--sysdb", sys, file)
	require.NoError(t, err)
	added := decodeList(t, []byte(out))
	require.Len(t, added.Data.AccessPoints, 1)
	assert.Equal(t, "/inventory", added.Data.AccessPoints[0].Name)
	assert.Equal(t, "Active", added.Data.AccessPoints[0].Status)

	out, err = execute(t, "--format", "json", "list", "--sysdb", sys)
	require.NoError(t, err)
	listed := decodeList(t, []byte(out))
	require.Len(t, listed.Data.AccessPoints, 1)
	assert.Equal(t, "/inventory", listed.Data.AccessPoints[0].Name)
	assert.Equal(t, "Active", listed.Data.AccessPoints[0].Status)

	out, err = execute(t, "remove", "--sysdb", sys, "inventory")
	require.NoError(t, err)
	assert.Equal(t, "Removed /inventory\n", out)

	out, err = execute(t, "list", "--sysdb", sys)
	require.NoError(t, err)
	assert.Equal(t, "No access points\n", out)
}

func TestAddRejectsExistingName(t *testing.T) {
	dir := t.TempDir()
	sys := filepath.Join(dir, "system")
	first := writeFile(t, dir, "first.yaml", serviceYAML("books"))
	again := writeFile(t, dir, "again.yaml", serviceYAML("books"))

	_, err := execute(t, "add", "--sysdb", sys, first)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "add", "--sysdb", sys, again)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "DUPLICATE_NAME", decodeList(t, []byte(out)).Error.Code)
}

func TestAddRejectsUnparsableFile(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "broken.toml", "[[nodes]\n")

	out, err := execute(t, "add", "--sysdb", filepath.Join(dir, "system"), file)
	require.Error(t, err)
	assert.Contains(t, out, "Error [SYNTAX]")
}

func TestRemoveUnknownName(t *testing.T) {
	out, err := execute(t, "--format", "json", "remove", "--sysdb", filepath.Join(t.TempDir(), "system"), "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeList(t, []byte(out)).Error.Code)
}

func TestListBadLocation(t *testing.T) {
	out, err := execute(t, "list", "--sysdb=--mem--/")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [BAD_LOCATION]")
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	file := writeFile(t, t.TempDir(), "books.yaml", booksYAML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "json", "serve", "--config", file})

	require.NoError(t, cmd.ExecuteContext(ctx))
	resp := decodeList(t, out.Bytes())
	require.Len(t, resp.Data.AccessPoints, 1)
	assert.Equal(t, "/books", resp.Data.AccessPoints[0].Name)
	assert.Equal(t, "Active", resp.Data.AccessPoints[0].Status)
}

func TestServeMissingConfigFile(t *testing.T) {
	out, err := execute(t, "serve", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}

func TestServeStartFailureReportsOnce(t *testing.T) {
	file := writeFile(t, t.TempDir(), "broken.yaml", `
nodes:
  - "@type": "fu:Service"
    "fu:name": "broken"
`)

	out, err := execute(t, "--format", "json", "serve", "--config", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeList(t, []byte(out))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "MISSING_DATASET", resp.Error.Code)
}
