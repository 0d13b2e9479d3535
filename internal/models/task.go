package models

import "time"

// Task statuses. Overdue is derived, never chosen by hand.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusStalled    = "Stalled"
	StatusOnHold     = "On-Hold"
	StatusCancelled  = "Cancelled"
	StatusOverdue    = "Overdue"
)

// Statuses is the task status vocabulary.
var Statuses = []string{
	StatusNotStarted,
	StatusInProgress,
	StatusCompleted,
	StatusStalled,
	StatusOnHold,
	StatusCancelled,
	StatusOverdue,
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// TicketTypes lists the functional categories a task can be filed under.
var TicketTypes = []string{
	"Bug Fixing - Live",
	"Bug Fixing - Staging",
	"Hardware",
	"Issues",
	"New Engineering Requirement",
	"Others",
	"Publishing",
	"Research",
	"Sales",
	"Service",
	"Testing",
}

const (
	RecurrenceDaily  = "daily"
	RecurrenceWeekly = "weekly"
)

// Task represents a ticket in the system
type Task struct {
	ID                    uint        `json:"id" gorm:"primaryKey"`
	TaskID                string      `json:"taskId" gorm:"column:task_id;size:15;uniqueIndex;not null"`
	DepartmentID          *uint       `json:"departmentId" gorm:"column:department_id;index"`
	Department            *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	AssignedByID          *uint       `json:"assignedById" gorm:"column:assigned_by_id;index"`
	AssignedBy            *User       `json:"assignedBy,omitempty" gorm:"foreignKey:AssignedByID"`
	AssignedToID          *uint       `json:"assignedToId" gorm:"column:assigned_to_id;index"`
	AssignedTo            *User       `json:"assignedTo,omitempty" gorm:"foreignKey:AssignedToID"`
	AssignedDate          time.Time   `json:"assignedDate" gorm:"column:assigned_date;not null"`
	Deadline              time.Time   `json:"deadline" gorm:"not null"`
	RevisedCompletionDate *time.Time  `json:"revisedCompletionDate" gorm:"column:revised_completion_date"`
	TicketType            string      `json:"ticketType" gorm:"column:ticket_type;size:100"`
	Priority              string      `json:"priority" gorm:"size:10"`
	Status                string      `json:"status" gorm:"size:30;not null;default:'Not Started'"`
	Subject               string      `json:"subject" gorm:"size:255"`
	RequestDetails        string      `json:"requestDetails" gorm:"column:request_details"`
	AttachFile            string      `json:"attachFile" gorm:"column:attach_file"`
	AttachmentByAssignee  string      `json:"attachmentByAssignee" gorm:"column:attachment_by_assignee"`
	CommentsByAssignee    string      `json:"commentsByAssignee" gorm:"column:comments_by_assignee"`
	Notes                 string      `json:"notes"`
	IsRecurring           bool        `json:"isRecurring" gorm:"column:is_recurring;default:false"`
	RecurrenceType        *string     `json:"recurrenceType" gorm:"column:recurrence_type;size:10"`
	RecurrenceCount       int         `json:"recurrenceCount" gorm:"column:recurrence_count;default:1"`
	RecurrenceDuration    int         `json:"recurrenceDuration" gorm:"column:recurrence_duration;default:1"`
	Viewers               []string    `json:"viewers" gorm:"serializer:json"`
	IsRecurredTask        bool        `json:"isRecurredTask" gorm:"column:is_recurred_task;default:false"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// IsViewer reports whether email is on the task's viewer list.
// Viewers are stored normalized so the lookup expects a lower-cased address.
func (t Task) IsViewer(email string) bool {
	if email == "" {
		return false
	}
	for _, v := range t.Viewers {
		if v == email {
			return true
		}
	}
	return false
}

// TaskChat is a single chat message on a task.
type TaskChat struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"taskId" gorm:"column:task_id;index;not null"`
	SenderID  uint      `json:"senderId" gorm:"column:sender_id;not null"`
	Sender    *User     `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Message   string    `json:"message" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	IsRead    bool      `json:"isRead" gorm:"column:is_read;default:false"`
}

// TableName specifies the table name for TaskChat Model
func (TaskChat) TableName() string {
	return "task_chats"
}
