package handlers

import (
	"net/http"
	"strconv"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/tasks"

	"github.com/gin-gonic/gin"
)

// CreateTaskRequest is accepted as JSON or as a multipart form carrying attach_file.
type CreateTaskRequest struct {
	AssignedToID       *uint  `json:"assignedToId" form:"assigned_to"`
	DepartmentID       *uint  `json:"departmentId" form:"department"`
	Deadline           string `json:"deadline" form:"deadline"`
	TicketType         string `json:"ticketType" form:"ticket_type"`
	Priority           string `json:"priority" form:"priority"`
	Subject            string `json:"subject" form:"subject"`
	RequestDetails     string `json:"requestDetails" form:"request_details"`
	Status             string `json:"status" form:"status"`
	IsRecurring        bool   `json:"isRecurring" form:"is_recurring"`
	RecurrenceType     string `json:"recurrenceType" form:"recurrence_type"`
	RecurrenceCount    int    `json:"recurrenceCount" form:"recurrence_count"`
	RecurrenceDuration int    `json:"recurrenceDuration" form:"recurrence_duration"`
	Viewers            string `json:"viewers" form:"viewers"`
}

// UpdateTaskRequest leaves absent fields unchanged.
type UpdateTaskRequest struct {
	AssignedToID       *uint   `json:"assignedToId" form:"assigned_to"`
	DepartmentID       *uint   `json:"departmentId" form:"department"`
	Deadline           *string `json:"deadline" form:"deadline"`
	TicketType         *string `json:"ticketType" form:"ticket_type"`
	Priority           *string `json:"priority" form:"priority"`
	Subject            *string `json:"subject" form:"subject"`
	RequestDetails     *string `json:"requestDetails" form:"request_details"`
	Status             *string `json:"status" form:"status"`
	IsRecurring        *bool   `json:"isRecurring" form:"is_recurring"`
	RecurrenceType     *string `json:"recurrenceType" form:"recurrence_type"`
	RecurrenceCount    *int    `json:"recurrenceCount" form:"recurrence_count"`
	RecurrenceDuration *int    `json:"recurrenceDuration" form:"recurrence_duration"`
	Viewers            *string `json:"viewers" form:"viewers"`
}

// UpdateTaskStatusRequest carries the fields an assignee reports progress with.
type UpdateTaskStatusRequest struct {
	Status                *string `json:"status" form:"status"`
	CommentsByAssignee    *string `json:"commentsByAssignee" form:"comments_by_assignee"`
	RevisedCompletionDate string  `json:"revisedCompletionDate" form:"revised_completion_date"`
}

type ReassignWithinDepartmentRequest struct {
	AssignedToID uint `json:"assignedToId" form:"assigned_to" binding:"required"`
}

type ChatRequest struct {
	Message string `json:"message" form:"message"`
}

func taskList(c *gin.Context, list []models.Task) {
	c.JSON(http.StatusOK, gin.H{
		"tasks": list,
		"count": len(list),
	})
}

// AssignedToMe handles GET /api/tasks/assigned-to-me
func (h *Handler) AssignedToMe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	list, err := h.tasks.AssignedTo(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	taskList(c, list)
}

// AssignedByMe handles GET /api/tasks/assigned-by-me
func (h *Handler) AssignedByMe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	list, err := h.tasks.AssignedBy(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	taskList(c, list)
}

// Viewing handles GET /api/tasks/viewing
func (h *Handler) Viewing(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	list, err := h.tasks.Viewing(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	taskList(c, list)
}

// DepartmentHome handles GET /api/tasks/home
func (h *Handler) DepartmentHome(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	list, err := h.tasks.DepartmentHome(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	taskList(c, list)
}

/*
*
SearchTasks handles GET /api/tasks
Optional query params: department_id, person_id, ageing_days (number or
"overdue") and status.
*/
func (h *Handler) SearchTasks(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	f := tasks.SearchFilter{
		AgeingDays: c.Query("ageing_days"),
		Status:     c.Query("status"),
	}
	for param, dst := range map[string]**uint{"department_id": &f.DepartmentID, "person_id": &f.PersonID} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
			return
		}
		id := uint(n)
		*dst = &id
	}

	list, err := h.tasks.Search(c.Request.Context(), actor, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	taskList(c, list)
}

/*
*
CreateTask handles POST /api/tasks
The authenticated user becomes the assigner.
*/
func (h *Handler) CreateTask(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := tasks.CreateInput{
		AssignedToID:       req.AssignedToID,
		DepartmentID:       req.DepartmentID,
		TicketType:         req.TicketType,
		Priority:           req.Priority,
		Subject:            req.Subject,
		RequestDetails:     req.RequestDetails,
		Status:             req.Status,
		IsRecurring:        req.IsRecurring,
		RecurrenceType:     req.RecurrenceType,
		RecurrenceCount:    req.RecurrenceCount,
		RecurrenceDuration: req.RecurrenceDuration,
		Viewers:            lifecycle.ParseViewerList(req.Viewers),
	}
	deadline, err := optionalDate("deadline", req.Deadline)
	if err != nil {
		h.fail(c, err)
		return
	}
	if deadline != nil {
		in.Deadline = *deadline
	}

	if in.AttachFile, err = h.saveUpload(c, "attach_file", AttachmentsDir); err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.tasks.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.dropUpload(in.AttachFile, err)
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Task created successfully!",
		"task_id":   res.Task.TaskID,
		"task":      res.Task,
		"generated": res.Generated,
	})
}

// GetTask handles GET /api/tasks/:task_id
// Returns the task with its chat and activity trail.
func (h *Handler) GetTask(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	detail, err := h.tasks.Detail(c.Request.Context(), actor, c.Param("task_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateTask handles PUT /api/tasks/:task_id
func (h *Handler) UpdateTask(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := tasks.EditInput{
		AssignedToID:       req.AssignedToID,
		DepartmentID:       req.DepartmentID,
		TicketType:         req.TicketType,
		Priority:           req.Priority,
		Subject:            req.Subject,
		RequestDetails:     req.RequestDetails,
		Status:             req.Status,
		IsRecurring:        req.IsRecurring,
		RecurrenceType:     req.RecurrenceType,
		RecurrenceCount:    req.RecurrenceCount,
		RecurrenceDuration: req.RecurrenceDuration,
	}
	if req.Deadline != nil {
		d, err := parseDate(*req.Deadline)
		if err != nil {
			h.fail(c, &tasks.ValidationError{Fields: map[string]string{"deadline": "Enter a valid date (YYYY-MM-DD)."}})
			return
		}
		in.Deadline = &d
	}
	if req.Viewers != nil {
		in.Viewers = lifecycle.ParseViewerList(*req.Viewers)
	}

	attachment, err := h.saveUpload(c, "attach_file", AttachmentsDir)
	if err != nil {
		h.fail(c, err)
		return
	}
	if attachment != "" {
		in.AttachFile = &attachment
	}

	task, err := h.tasks.Edit(c.Request.Context(), actor, c.Param("task_id"), in)
	if err != nil {
		h.dropUpload(attachment, err)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus handles POST /api/tasks/:task_id/status
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	revised, err := optionalDate("revised_completion_date", req.RevisedCompletionDate)
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), actor, c.Param("task_id"), tasks.StatusInput{
		Status:                req.Status,
		CommentsByAssignee:    req.CommentsByAssignee,
		RevisedCompletionDate: revised,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ReassignTask handles POST /api/tasks/:task_id/reassign
// It sends the task back to its creator with an optional note and file.
func (h *Handler) ReassignTask(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	note := c.PostForm("notes")
	attachment, err := h.saveUpload(c, "attachment_by_assignee", AssigneeAttachmentsDir)
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.tasks.Reassign(c.Request.Context(), actor, c.Param("task_id"), note, attachment)
	if err != nil {
		h.dropUpload(attachment, err)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task has been reassigned to its creator",
		"task":    task,
	})
}

// ReassignWithinDepartment handles POST /api/tasks/:task_id/reassign-within-department
func (h *Handler) ReassignWithinDepartment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req ReassignWithinDepartmentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.ReassignWithinDepartment(c.Request.Context(), actor, c.Param("task_id"), req.AssignedToID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListMessages handles GET /api/tasks/:task_id/chat
func (h *Handler) ListMessages(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	msgs, err := h.tasks.Messages(c.Request.Context(), actor, c.Param("task_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// PostMessage handles POST /api/tasks/:task_id/chat
func (h *Handler) PostMessage(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.tasks.PostMessage(c.Request.Context(), actor, c.Param("task_id"), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
