package tasks

import "time"

// Status is the task lifecycle status.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusOnHold     Status = "ON_HOLD"
)

// Priority orders tasks from LOW to URGENT.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Rank returns the position of the priority in the LOW<MEDIUM<HIGH<URGENT
// total order; unknown priorities rank below LOW.
func (p Priority) Rank() int {
	rank, ok := priorityRank[p]
	if !ok {
		return -1
	}
	return rank
}

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Task belongs to exactly one project; the code is unique within that
// project. Only OPEN and IN_PROGRESS tasks accept new time entries.
type Task struct {
	ID                 int64
	ProjectID          int64
	Code               string
	Name               string
	Description        string
	Status             Status
	Priority           Priority
	EstimatedHours     *float64
	DueDate            *time.Time
	AssignedEmployeeID *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullCode is the project-scoped task identifier.
func (t Task) FullCode(projectCode string) string {
	return projectCode + "-" + t.Code
}

// Open reports whether the task status alone permits time entries.
func (t Task) Open() bool {
	return t.Status == StatusOpen || t.Status == StatusInProgress
}

// Ref carries the names needed when grouping hours by task and project.
type Ref struct {
	TaskID      int64
	TaskName    string
	ProjectID   int64
	ProjectName string
}
