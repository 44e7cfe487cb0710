package domain

import (
	"slices"
	"time"
)

type Project struct {
	ID          string
	ProjectName string
	ClientName  string
	Description string
	ManagerID   string
	Team        []string // member user IDs, manager excluded
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Project) IsManager(userID string) bool {
	return p.ManagerID == userID
}

func (p *Project) IsMember(userID string) bool {
	return slices.Contains(p.Team, userID)
}

// CanView reports whether userID may read the project and its tasks.
func (p *Project) CanView(userID string) bool {
	return p.IsManager(userID) || p.IsMember(userID)
}

type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskOnHold      TaskStatus = "onHold"
	TaskInProgress  TaskStatus = "inProgress"
	TaskUnderReview TaskStatus = "underReview"
	TaskCompleted   TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskOnHold, TaskInProgress, TaskUnderReview, TaskCompleted:
		return true
	}
	return false
}

// MaxStatusChanges is how many status changes a task keeps in its history.
const MaxStatusChanges = 50

type Task struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Status      TaskStatus
	Changes     []StatusChange
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StatusChange struct {
	UserID    string
	Status    TaskStatus
	ChangedAt time.Time
}

type Note struct {
	ID        string
	TaskID    string
	CreatedBy string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
