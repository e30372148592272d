// Command react is a minimal ReAct agent: given a working directory and
// a query, it reasons with an LLM, calls filesystem tools as needed,
// and prints a final answer.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/TeamRadiantAI/polaris-sub001/extensions"
	"github.com/TeamRadiantAI/polaris-sub001/log"
	"github.com/TeamRadiantAI/polaris-sub001/providers"
	"github.com/TeamRadiantAI/polaris-sub001/tools"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	if len(os.Args) != 3 {
		return fmt.Errorf("usage: react <working_dir> <query>")
	}
	workingDir := os.Args[1]
	query := os.Args[2]

	workingDir, err := sandboxedWorkingDir(workingDir)
	if err != nil {
		return err
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	model := os.Getenv("REACT_MODEL")
	if model == "" {
		model = "openai/gpt-4o-mini"
	}

	toolRegistry := tools.NewRegistry()
	if err := tools.RegisterFileTools(toolRegistry, workingDir); err != nil {
		return fmt.Errorf("register file tools: %w", err)
	}

	llmRegistry := providers.NewRegistry()
	llmRegistry.RegisterProvider("openai", providers.NewOpenAIProvider(apiKey, ""))

	logger := log.NewGologLogger(log.LevelInfo)

	server := polaris.NewServer()
	server.AddPlugin(extensions.NewLoggingExtension(logger))
	cfg := agentConfig{Model: providers.ModelID(model), MaxIterations: 10}
	server.InsertGlobal(cfg)
	server.InsertGlobal(llmRegistry)
	if err := server.Build(); err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	c := polaris.NewContext(server)
	c.With(newConversationMemory(query))
	c.With(toolRegistry)

	graph := buildReActGraph()
	exec := polaris.NewGraphExecutor(graph, server.Hooks(), cfg.MaxIterations)
	if err := exec.Run(c); err != nil {
		return fmt.Errorf("run agent: %w", err)
	}
	return nil
}

func sandboxedWorkingDir(raw string) (string, error) {
	info, err := os.Stat(raw)
	if err != nil {
		return "", fmt.Errorf("working directory %q: %w", raw, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %q is not a directory", raw)
	}
	return filepath.Abs(raw)
}
