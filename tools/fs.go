package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TeamRadiantAI/polaris-sub001/providers"
)

// Sandbox resolves tool-relative paths against a fixed working
// directory and rejects anything that would escape it, ported from
// AgentConfig::resolve_path's containment check.
type Sandbox struct {
	root string
}

// NewSandbox builds a Sandbox rooted at workingDir. workingDir is
// cleaned and made absolute at construction time.
func NewSandbox(workingDir string) (*Sandbox, error) {
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	return &Sandbox{root: filepath.Clean(abs)}, nil
}

// Resolve joins path onto the sandbox root and rejects the result if it
// falls outside the root (e.g. via "../" traversal).
func (s *Sandbox) Resolve(path string) (string, error) {
	joined := filepath.Join(s.root, path)
	cleaned := filepath.Clean(joined)
	if cleaned != s.root && !strings.HasPrefix(cleaned, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes sandbox", path)
	}
	return cleaned, nil
}

// ListFilesTool lists the entries of a sandboxed directory.
type ListFilesTool struct{ sandbox *Sandbox }

// NewListFilesTool builds the list_files tool rooted at sandbox.
func NewListFilesTool(sandbox *Sandbox) *ListFilesTool { return &ListFilesTool{sandbox: sandbox} }

func (t *ListFilesTool) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{
		Name:        "list_files",
		Description: "List files in a directory.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory path (relative to working directory).",
				},
			},
			"required":             []string{"path"},
			"additionalProperties": false,
		},
	}
}

type listFilesParams struct {
	Path string `json:"path"`
}

func (t *ListFilesTool) Execute(args json.RawMessage) (json.RawMessage, error) {
	var params listFilesParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	resolved, err := t.sandbox.Resolve(params.Path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	result := "(empty directory)"
	if len(names) > 0 {
		result = strings.Join(names, "\n")
	}
	return json.Marshal(result)
}

// ReadFileTool reads the contents of a sandboxed file.
type ReadFileTool struct{ sandbox *Sandbox }

func NewReadFileTool(sandbox *Sandbox) *ReadFileTool { return &ReadFileTool{sandbox: sandbox} }

func (t *ReadFileTool) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{
		Name:        "read_file",
		Description: "Read the contents of a file.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path (relative to working directory).",
				},
			},
			"required":             []string{"path"},
			"additionalProperties": false,
		},
	}
}

type readFileParams struct {
	Path string `json:"path"`
}

func (t *ReadFileTool) Execute(args json.RawMessage) (json.RawMessage, error) {
	var params readFileParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	resolved, err := t.sandbox.Resolve(params.Path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(content))
}

// WriteFileTool writes content to a sandboxed file.
type WriteFileTool struct{ sandbox *Sandbox }

func NewWriteFileTool(sandbox *Sandbox) *WriteFileTool { return &WriteFileTool{sandbox: sandbox} }

func (t *WriteFileTool) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{
		Name:        "write_file",
		Description: "Write content to a file.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path (relative to working directory).",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Content to write.",
				},
			},
			"required":             []string{"path", "content"},
			"additionalProperties": false,
		},
	}
}

type writeFileParams struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (t *WriteFileTool) Execute(args json.RawMessage) (json.RawMessage, error) {
	var params writeFileParams
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	resolved, err := t.sandbox.Resolve(params.Path)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(resolved, []byte(params.Content), 0o644); err != nil {
		return nil, err
	}
	return json.Marshal(fmt.Sprintf("Wrote to %s", resolved))
}

// RegisterFileTools adds list_files, read_file, and write_file to
// registry, all sandboxed to workingDir.
func RegisterFileTools(registry *Registry, workingDir string) error {
	sandbox, err := NewSandbox(workingDir)
	if err != nil {
		return err
	}
	registry.Register(NewListFilesTool(sandbox))
	registry.Register(NewReadFileTool(sandbox))
	registry.Register(NewWriteFileTool(sandbox))
	return nil
}
