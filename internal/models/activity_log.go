package models

import "time"

// Activity actions recorded in the audit trail.
const (
	ActionCreated         = "created"
	ActionStatusUpdated   = "status_updated"
	ActionStatusChanged   = "status_changed"
	ActionPriorityChanged = "priority_changed"
	ActionDeadlineRevised = "deadline_revised"
	ActionCommentAdded    = "comment_added"
	ActionAssigned        = "assigned"
	ActionReassigned      = "reassigned"
	ActionTaskUpdatedAPI  = "task_updated_api"
)

var actionLabels = map[string]string{
	ActionCreated:         "Created",
	ActionStatusUpdated:   "Status Updated",
	ActionStatusChanged:   "Status Changed",
	ActionPriorityChanged: "Priority Changed",
	ActionDeadlineRevised: "Deadline Revised",
	ActionCommentAdded:    "Comment Added",
	ActionAssigned:        "Assigned",
	ActionReassigned:      "Reassigned",
	ActionTaskUpdatedAPI:  "Task Updated (API)",
}

// ActionLabel returns the display label of an action, or the raw action when unknown.
func ActionLabel(action string) string {
	if label, ok := actionLabels[action]; ok {
		return label
	}
	return action
}

// ActivityLog is an append-only audit row.
type ActivityLog struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Action      string    `json:"action" gorm:"size:50;not null;index"`
	UserID      uint      `json:"userId" gorm:"column:user_id;index"`
	User        *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	TaskID      uint      `json:"taskId" gorm:"column:task_id;index"`
	Task        *Task     `json:"task,omitempty" gorm:"foreignKey:ID;references:TaskID"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
	Description string    `json:"description"`
}

// TableName specifies the table name for ActivityLog Model
func (ActivityLog) TableName() string {
	return "activity_logs"
}
