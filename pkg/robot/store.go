package robot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds the mirrored robot state for one session. All mutation goes
// through Store methods; readers observe via Snapshot or Watch. Create one
// per conversation or screen lifecycle and drop it on teardown.
type Store struct {
	mu      sync.RWMutex
	status  Status
	devices []Device
	tasks   []Task

	// watch is a latest-value channel: every mutation replaces any unread
	// snapshot so slow readers always see the newest state.
	watch chan Snapshot
}

// NewStore creates a session-scoped store with a docked, fully charged robot
// and the default paired devices.
func NewStore() *Store {
	return &Store{
		status: Status{
			State:   StateDocked,
			Battery: 100,
		},
		devices: []Device{
			{ID: "sweeper-01", Name: "客厅扫地机器人", Kind: "vacuum", Online: true},
			{ID: "dock-01", Name: "充电基座", Kind: "dock", Online: true},
		},
		watch: make(chan Snapshot, 1),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	devices := make([]Device, len(s.devices))
	copy(devices, s.devices)

	tasks := make([]Task, len(s.tasks))
	copy(tasks, s.tasks)

	return Snapshot{Status: s.status, Devices: devices, Tasks: tasks}
}

// Watch returns a channel that carries the latest snapshot after each
// mutation. Only the newest unread snapshot is retained.
func (s *Store) Watch() <-chan Snapshot {
	return s.watch
}

func (s *Store) publishLocked() {
	snap := s.snapshotLocked()
	select {
	case s.watch <- snap:
	default:
		// Drop the stale unread snapshot and replace it.
		select {
		case <-s.watch:
		default:
		}
		select {
		case s.watch <- snap:
		default:
		}
	}
}

// SetStatus replaces the robot's headline status.
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.publishLocked()
}

// SetState updates only the activity state, keeping the rest of the status.
func (s *Store) SetState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = state
	s.publishLocked()
}

// SetBattery updates the battery level, clamped to 0-100.
func (s *Store) SetBattery(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	s.status.Battery = level
	s.publishLocked()
}

// Devices returns a copy of the paired-device list.
func (s *Store) Devices() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]Device, len(s.devices))
	copy(devices, s.devices)
	return devices
}

// AddTask appends a new pending task and returns it.
func (s *Store) AddTask(name, area string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:        uuid.NewString(),
		Name:      name,
		Area:      area,
		Status:    TaskPending,
		CreatedAt: time.Now(),
	}
	s.tasks = append(s.tasks, task)
	s.publishLocked()

	return task
}

// SetTaskStatus updates the status of the task with the given id. Unknown
// ids are ignored.
func (s *Store) SetTaskStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Status = status
			s.publishLocked()
			return
		}
	}
}

// Tasks returns a copy of the task list, oldest first.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}
