package domain

import "time"

type TaskType string

const (
	TaskCheckoutClean TaskType = "checkout_clean"
	TaskStayoverClean TaskType = "stayover_clean"
	TaskTurndown      TaskType = "turndown"
	TaskInspection    TaskType = "inspection"
	TaskMaintenance   TaskType = "maintenance"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskCheckoutClean, TaskStayoverClean, TaskTurndown, TaskInspection, TaskMaintenance:
		return true
	}
	return false
}

// Cleaning tasks move the room through cleaning -> inspected -> available.
func (t TaskType) Cleaning() bool {
	return t == TaskCheckoutClean || t == TaskStayoverClean || t == TaskTurndown
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskVerified   TaskStatus = "verified"
	TaskCancelled  TaskStatus = "cancelled"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskCompleted, TaskPending},
	TaskCompleted:  {TaskVerified, TaskInProgress},
	TaskVerified:   {},
	TaskCancelled:  {},
}

func (s TaskStatus) Valid() bool {
	_, ok := taskTransitions[s]
	return ok
}

func (s TaskStatus) CanTransition(to TaskStatus) bool {
	for _, n := range taskTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

type HousekeepingTask struct {
	ID          int64        `json:"id"`
	RoomID      int64        `json:"roomId"`
	BookingID   *int64       `json:"bookingId,omitempty"`
	Type        TaskType     `json:"type"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssigneeID  *int64       `json:"assigneeId,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	DueAt       *time.Time   `json:"dueAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	VerifiedAt  *time.Time   `json:"verifiedAt,omitempty"`
}

type TaskFilter struct {
	Status     TaskStatus
	Type       TaskType
	RoomID     int64
	AssigneeID int64
	Limit      int
}
