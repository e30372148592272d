package extensions

import (
	polaris "github.com/TeamRadiantAI/polaris-sub001"
	pllog "github.com/TeamRadiantAI/polaris-sub001/log"
)

// LoggingExtension is a Plugin that logs every graph and system
// lifecycle transition through the kernel's ambient log.Logger.
type LoggingExtension struct {
	polaris.BasePlugin
	logger pllog.Logger
}

// NewLoggingExtension builds a LoggingExtension that logs via logger.
// Pass nil to use the package-level default logger.
func NewLoggingExtension(logger pllog.Logger) *LoggingExtension {
	if logger == nil {
		logger = pllog.Default()
	}
	return &LoggingExtension{logger: logger}
}

func (e *LoggingExtension) ID() string { return "logging" }

func (e *LoggingExtension) Version() polaris.Version { return polaris.NewVersion(0, 1, 0) }

func (e *LoggingExtension) Build(s *polaris.Server) {
	hooks := s.Hooks()

	polaris.RegisterObserver[polaris.OnGraphStart](hooks, "logging_graph_start", func(event *polaris.GraphEvent) {
		e.logger.Info("graph starting")
	})
	polaris.RegisterObserver[polaris.OnGraphComplete](hooks, "logging_graph_complete", func(event *polaris.GraphEvent) {
		e.logger.Info("graph completed in %s", event.EndedAt.Sub(event.StartedAt))
	})
	polaris.RegisterObserver[polaris.OnGraphFailure](hooks, "logging_graph_failure", func(event *polaris.GraphEvent) {
		e.logger.Error("graph failed after %s: %v", event.EndedAt.Sub(event.StartedAt), event.Err)
	})

	polaris.RegisterObserver[polaris.OnSystemStart](hooks, "logging_system_start", func(event *polaris.GraphEvent) {
		e.logger.Debug("%s (node %s) starting", event.SystemName, event.Node)
	})
	polaris.RegisterObserver[polaris.OnSystemComplete](hooks, "logging_system_complete", func(event *polaris.GraphEvent) {
		e.logger.Debug("%s (node %s) completed in %s", event.SystemName, event.Node, event.EndedAt.Sub(event.StartedAt))
	})
	polaris.RegisterObserver[polaris.OnSystemError](hooks, "logging_system_error", func(event *polaris.GraphEvent) {
		e.logger.Error("%s (node %s) failed: %v", event.SystemName, event.Node, event.Err)
	})

	polaris.RegisterObserver[polaris.OnLoopIteration](hooks, "logging_loop_iteration", func(event *polaris.GraphEvent) {
		e.logger.Debug("loop at node %s, iteration %d", event.Node, event.Iteration)
	})
}
