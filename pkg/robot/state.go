// Package robot holds the mirrored state of the cleaning robot and the
// command path toward it. State lives in a session-scoped Store owned by
// whoever created the session, not in process-wide singletons.
package robot

import "time"

// Robot activity states.
const (
	StateIdle      = "idle"
	StateCleaning  = "cleaning"
	StatePaused    = "paused"
	StateReturning = "returning"
	StateDocked    = "docked"
)

// Task statuses.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskCancelled = "cancelled"
)

// Status is the robot's headline state.
type Status struct {
	State      string `json:"state"`
	Battery    int    `json:"battery"`
	FanSpeed   string `json:"fan_speed,omitempty"`
	WaterLevel string `json:"water_level,omitempty"`
	Area       string `json:"area,omitempty"`
}

// Device is one entry of the paired-device list.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Online bool   `json:"online"`
}

// Task is one cleaning task, past or present.
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Area      string    `json:"area,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a point-in-time, read-only view of the store.
type Snapshot struct {
	Status  Status   `json:"status"`
	Devices []Device `json:"devices"`
	Tasks   []Task   `json:"tasks"`
}
