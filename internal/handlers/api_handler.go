package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/middleware"
	"task-tracker-api/internal/tasks"

	"github.com/gin-gonic/gin"
)

// segment reads a path parameter, treating "none" as empty.
func segment(c *gin.Context, name string) string {
	v := strings.TrimSpace(c.Param(name))
	if strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

// apiFail writes the error shape of the path-parameter API.
func (h *Handler) apiFail(c *gin.Context, err error) {
	var verr *tasks.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Validation failed", "validation_errors": verr.Fields})
	case errors.Is(err, tasks.ErrTaskNotFound),
		errors.Is(err, tasks.ErrUserNotFound),
		errors.Is(err, tasks.ErrDepartmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, tasks.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	default:
		h.log.Error("api request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &tasks.ValidationError{Fields: map[string]string{name: "Enter a whole number."}}
	}
	return n, nil
}

// APICreateTask handles
// GET /api/create-task/:assigned_by_email/:assigned_to_email/:deadline/:ticket_type/:priority/:department/:subject/:request_details
func (h *Handler) APICreateTask(c *gin.Context) {
	in := tasks.APICreateInput{
		AssignedByEmail: segment(c, "assigned_by_email"),
		AssignedToEmail: segment(c, "assigned_to_email"),
		Deadline:        segment(c, "deadline"),
		TicketType:      segment(c, "ticket_type"),
		Priority:        segment(c, "priority"),
		Department:      segment(c, "department"),
		Subject:         strings.ReplaceAll(segment(c, "subject"), "-", " "),
		RequestDetails:  strings.ReplaceAll(segment(c, "request_details"), "-", " "),
		Status:          c.Query("status"),
		IsRecurring:     strings.EqualFold(c.Query("is_recurring"), "true"),
		Viewers:         lifecycle.ParseViewerList(c.Query("viewer_emails")),
	}
	if in.IsRecurring {
		in.RecurrenceType = c.Query("recurrence_type")
		var err error
		if in.RecurrenceCount, err = queryInt(c, "recurrence_count"); err != nil {
			h.apiFail(c, err)
			return
		}
		if in.RecurrenceDuration, err = queryInt(c, "recurrence_duration"); err != nil {
			h.apiFail(c, err)
			return
		}
	}

	task, err := h.tasks.APICreate(c.Request.Context(), in)
	if err != nil {
		h.apiFail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Task created successfully!",
		"task_id":      task.TaskID,
		"redirect_url": "/tasks/detail/" + task.TaskID + "/",
	})
}

// APIUpdateTask handles the three /api/update-task/:task_id/:updated_by_email/... forms.
func (h *Handler) APIUpdateTask(c *gin.Context) {
	res, err := h.tasks.APIUpdate(c.Request.Context(), tasks.APIUpdateInput{
		TaskID:             c.Param("task_id"),
		UpdatedByEmail:     segment(c, "updated_by_email"),
		Status:             segment(c, "status"),
		RevisedDeadline:    segment(c, "revised_deadline"),
		Subject:            segment(c, "subject"),
		RequestDetails:     segment(c, "request_details"),
		CommentsByAssignee: c.Query("comments_by_assignee"),
	})
	if err != nil {
		h.apiFail(c, err)
		return
	}

	if len(res.Changes) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "No changes detected",
			"task_id": res.Task.TaskID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Task updated successfully!",
		"task_id":      res.Task.TaskID,
		"changes_made": res.Changes,
		"updated_by":   res.UpdatedBy,
	})
}

// APIReassignTask handles GET /api/reassign-task/:task_id/:reassigned_by_email
func (h *Handler) APIReassignTask(c *gin.Context) {
	res, err := h.tasks.APIReassign(c.Request.Context(), c.Param("task_id"), segment(c, "reassigned_by_email"), c.Query("note"))
	if err != nil {
		h.apiFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Task reassigned successfully!",
		"task_id":           res.Task.TaskID,
		"previous_assignee": res.PreviousAssignee,
		"new_assignee":      res.NewAssignee,
	})
}

// APIUpdateViewers handles GET /api/update-viewers/:task_id/*viewer_emails
// for the authenticated caller.
func (h *Handler) APIUpdateViewers(c *gin.Context) {
	raw := strings.Trim(c.Param("viewer_emails"), "/")
	task, err := h.tasks.APIUpdateViewers(c.Request.Context(), c.GetUint(middleware.KeyUserID), c.Param("task_id"), raw)
	if err != nil {
		h.apiFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"task_id": task.TaskID,
		"viewers": task.Viewers,
	})
}
