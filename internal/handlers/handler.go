package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"task-tracker-api/internal/activity"
	"task-tracker-api/internal/auth"
	"task-tracker-api/internal/metrics"
	"task-tracker-api/internal/middleware"
	"task-tracker-api/internal/models"
	"task-tracker-api/internal/realtime"
	"task-tracker-api/internal/tasks"
	"task-tracker-api/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Upload subdirectories under the configured upload root.
const (
	AttachmentsDir         = "attachments"
	AssigneeAttachmentsDir = "task_assignee_attachments"
)

type Deps struct {
	Tasks     *tasks.Service
	Users     *users.Directory
	Activity  *activity.Logger
	Metrics   *metrics.Aggregator
	Tokens    *auth.Manager
	Hub       *realtime.Hub
	UploadDir string
	Logger    *slog.Logger
}

// Handler serves the HTTP API on top of the domain services.
type Handler struct {
	tasks     *tasks.Service
	users     *users.Directory
	activity  *activity.Logger
	metrics   *metrics.Aggregator
	tokens    *auth.Manager
	hub       *realtime.Hub
	uploadDir string
	log       *slog.Logger
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	hub := d.Hub
	if hub == nil {
		hub = realtime.GetHub()
	}
	return &Handler{
		tasks:     d.Tasks,
		users:     d.Users,
		activity:  d.Activity,
		metrics:   d.Metrics,
		tokens:    d.Tokens,
		hub:       hub,
		uploadDir: d.UploadDir,
		log:       log,
	}
}

// actor loads the authenticated user. On failure the response is already written.
func (h *Handler) actor(c *gin.Context) (models.User, bool) {
	id := c.GetUint(middleware.KeyUserID)
	if id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return models.User{}, false
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if errors.Is(err, tasks.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
		return models.User{}, false
	}
	if err != nil {
		h.fail(c, err)
		return models.User{}, false
	}
	return u, true
}

// fail maps domain errors onto HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *tasks.ValidationError
	var nerr *tasks.NotificationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form data is invalid", "errors": verr.Fields})
	case errors.As(err, &nerr):
		h.log.Error("notification failed", "task", nerr.TaskID, "error", nerr.Err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Saved, but the notification e-mail could not be sent",
			"taskId": nerr.TaskID,
		})
	case errors.Is(err, tasks.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, tasks.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, tasks.ErrDepartmentNotFound), errors.Is(err, metrics.ErrUnknownDepartment):
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
	case errors.Is(err, tasks.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// saveUpload stores the multipart file under field into dir and returns its
// path relative to the upload root. A missing file yields "".
func (h *Handler) saveUpload(c *gin.Context, field, dir string) (string, error) {
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", field, err)
	}

	if err := os.MkdirAll(filepath.Join(h.uploadDir, dir), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	rel := filepath.ToSlash(filepath.Join(dir, name))
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, dir, name)); err != nil {
		return "", fmt.Errorf("save %s: %w", field, err)
	}
	return rel, nil
}

// dropUpload removes a file stored by saveUpload when the write it was meant
// for did not happen. After a NotificationError the write did happen.
func (h *Handler) dropUpload(rel string, err error) {
	var nerr *tasks.NotificationError
	if rel == "" || errors.As(err, &nerr) {
		return
	}
	if rmErr := os.Remove(filepath.Join(h.uploadDir, filepath.FromSlash(rel))); rmErr != nil {
		h.log.Warn("upload not removed", "path", rel, "error", rmErr)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}

// optionalDate parses a YYYY-MM-DD field. An empty value yields nil.
func optionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, &tasks.ValidationError{Fields: map[string]string{field: "Enter a valid date (YYYY-MM-DD)."}}
	}
	return &d, nil
}
