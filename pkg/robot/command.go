package robot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Known command names the assistant can invoke through function calls.
const (
	CommandStartCleaning = "start_cleaning"
	CommandStopCleaning  = "stop_cleaning"
	CommandPauseCleaning = "pause_cleaning"
	CommandSpotClean     = "spot_clean"
	CommandDock          = "return_to_dock"
	CommandQueryBattery  = "query_battery"
)

// Command is a robot instruction parsed from an assistant function_call
// payload.
type Command struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ParseCommand parses the content of a function_call message into a Command.
// The payload is the serialized {"name": ..., "arguments": {...}} object the
// agent platform emits.
func ParseCommand(content string) (*Command, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty function call payload")
	}

	cmd := &Command{}
	if err := json.Unmarshal([]byte(content), cmd); err != nil {
		return nil, fmt.Errorf("parsing function call payload: %w", err)
	}

	if cmd.Name == "" {
		return nil, fmt.Errorf("function call payload has no name")
	}

	return cmd, nil
}

// Apply executes a command against the store, returning false for commands
// outside the known vocabulary. Unknown commands are not an error; new
// upstream tools must degrade safely.
func (s *Store) Apply(cmd *Command) bool {
	if cmd == nil {
		return false
	}

	switch cmd.Name {
	case CommandStartCleaning:
		area, _ := cmd.Arguments["area"].(string)
		s.mu.Lock()
		s.status.State = StateCleaning
		s.status.Area = area
		s.publishLocked()
		s.mu.Unlock()
		s.AddTask("清扫", area)
		s.markLatestTaskRunning()
		return true

	case CommandSpotClean:
		area, _ := cmd.Arguments["area"].(string)
		s.mu.Lock()
		s.status.State = StateCleaning
		s.status.Area = area
		s.publishLocked()
		s.mu.Unlock()
		s.AddTask("定点清扫", area)
		s.markLatestTaskRunning()
		return true

	case CommandPauseCleaning:
		s.SetState(StatePaused)
		return true

	case CommandStopCleaning:
		s.finishRunningTasks(TaskCancelled)
		s.SetState(StateIdle)
		return true

	case CommandDock:
		s.finishRunningTasks(TaskCompleted)
		s.SetState(StateReturning)
		return true

	case CommandQueryBattery:
		// Read-only command; the reply comes back through the assistant.
		return true

	default:
		return false
	}
}

func (s *Store) markLatestTaskRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return
	}
	s.tasks[len(s.tasks)-1].Status = TaskRunning
	s.publishLocked()
}

func (s *Store) finishRunningTasks(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.tasks {
		if s.tasks[i].Status == TaskRunning || s.tasks[i].Status == TaskPending {
			s.tasks[i].Status = status
			changed = true
		}
	}

	if changed {
		s.publishLocked()
	}
}
