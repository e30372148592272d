package polaris

// SystemInfo is the execution context DevToolsPlugin injects before each
// system runs: the identity of the node and system currently executing,
// useful for logging and observability via Res[SystemInfo]().
type SystemInfo struct {
	nodeID     NodeID
	systemName string
}

// NodeID returns the id of the node currently executing.
func (i SystemInfo) NodeID() NodeID { return i.nodeID }

// SystemName returns the name of the system currently executing.
func (i SystemInfo) SystemName() string { return i.systemName }

// DevToolsPlugin registers an OnSystemStart provider that injects
// SystemInfo into the Context before every system runs. Recognized by
// the Validator as a hook-provided resource, so systems declaring
// Res[SystemInfo]() do not fail resource-flow validation.
type DevToolsPlugin struct {
	BasePlugin
}

func (DevToolsPlugin) ID() string        { return "devtools" }
func (DevToolsPlugin) Version() Version  { return NewVersion(0, 1, 0) }

func (DevToolsPlugin) Build(s *Server) {
	hooks := s.Hooks()
	RegisterProvider[OnSystemStart, SystemInfo](hooks, "devtools_system_info", func(event *GraphEvent) (SystemInfo, bool) {
		return SystemInfo{nodeID: event.Node, systemName: event.SystemName}, true
	})
}
