package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSandbox_ResolveRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	sandbox, err := NewSandbox(dir)
	require.NoError(t, err)

	_, err = sandbox.Resolve("../../etc/passwd")
	require.Error(t, err)
}

func TestSandbox_ResolveAllowsNestedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	sandbox, err := NewSandbox(dir)
	require.NoError(t, err)

	resolved, err := sandbox.Resolve("sub")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "sub"), resolved)
}

func TestListFilesTool_ReportsEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	sandbox, err := NewSandbox(dir)
	require.NoError(t, err)

	tool := NewListFilesTool(sandbox)
	out, err := tool.Execute(mustArgs(t, listFilesParams{Path: "."}))
	require.NoError(t, err)

	var result string
	require.NoError(t, json.Unmarshal(out, &result))
	require.Equal(t, "(empty directory)", result)
}

func TestListFilesTool_ListsEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	sandbox, err := NewSandbox(dir)
	require.NoError(t, err)

	tool := NewListFilesTool(sandbox)
	out, err := tool.Execute(mustArgs(t, listFilesParams{Path: "."}))
	require.NoError(t, err)

	var result string
	require.NoError(t, json.Unmarshal(out, &result))
	require.Equal(t, "a.txt", result)
}

func TestWriteFileThenReadFileTool_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	sandbox, err := NewSandbox(dir)
	require.NoError(t, err)

	writeTool := NewWriteFileTool(sandbox)
	_, err = writeTool.Execute(mustArgs(t, writeFileParams{Path: "note.txt", Content: "hello"}))
	require.NoError(t, err)

	readTool := NewReadFileTool(sandbox)
	out, err := readTool.Execute(mustArgs(t, readFileParams{Path: "note.txt"}))
	require.NoError(t, err)

	var content string
	require.NoError(t, json.Unmarshal(out, &content))
	require.Equal(t, "hello", content)
}

func TestReadFileTool_RejectsPathEscapingSandbox(t *testing.T) {
	dir := t.TempDir()
	sandbox, err := NewSandbox(dir)
	require.NoError(t, err)

	tool := NewReadFileTool(sandbox)
	_, err = tool.Execute(mustArgs(t, readFileParams{Path: "../outside.txt"}))
	require.Error(t, err)
}

func TestRegisterFileTools_RegistersAllThree(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry()
	require.NoError(t, RegisterFileTools(registry, dir))

	defs := registry.Definitions()
	names := make(map[string]bool)
	for _, d := range defs {
		names[d.Name] = true
	}
	require.True(t, names["list_files"])
	require.True(t, names["read_file"])
	require.True(t, names["write_file"])
}

func TestRegistry_ExecuteUnknownToolReturnsError(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Execute("nope", json.RawMessage(`{}`))
	require.Error(t, err)
}

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
