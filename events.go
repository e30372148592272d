package polaris

import "time"

// GraphEvent is the enumerated payload carried to hooks at a schedule
// point. Which fields are set depends on the Schedule: node id, system
// name, timing, error, selected branch or loop iteration, as appropriate;
// the others are left at their zero values.
type GraphEvent struct {
	Schedule ScheduleID

	Node       NodeID
	SystemName string

	StartedAt time.Time
	EndedAt   time.Time

	Err error

	// Branch names the selected Decision/Switch target ("true"/"false",
	// or the matched switch key or "default").
	Branch string

	// Iteration is the zero-based loop iteration index for OnLoopIteration.
	Iteration int
}
