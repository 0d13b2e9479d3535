package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"task-tracker-api/internal/activity"
	"task-tracker-api/internal/metrics"

	"github.com/gin-gonic/gin"
)

func sendCSV(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// Metrics handles GET /api/metrics
func (h *Handler) Metrics(c *gin.Context) {
	report, err := h.metrics.Compute(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DownloadMetrics handles GET /api/metrics/download
func (h *Handler) DownloadMetrics(c *gin.Context) {
	report, err := h.metrics.Compute(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := metrics.WriteCSV(&buf, report); err != nil {
		h.fail(c, err)
		return
	}
	sendCSV(c, fmt.Sprintf("department_metrics_%s.csv", report.GeneratedAt.Format("20060102_150405")), buf.Bytes())
}

// DepartmentMetrics handles GET /api/metrics/departments/:department
func (h *Handler) DepartmentMetrics(c *gin.Context) {
	m, err := h.metrics.Department(c.Request.Context(), c.Param("department"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Activity handles GET /api/activity
func (h *Handler) Activity(c *gin.Context) {
	logs, err := h.activity.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": logs, "count": len(logs)})
}

// DownloadActivity handles GET /api/activity/download
func (h *Handler) DownloadActivity(c *gin.Context) {
	logs, err := h.activity.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := activity.WriteCSV(&buf, logs); err != nil {
		h.fail(c, err)
		return
	}
	sendCSV(c, "activity_log.csv", buf.Bytes())
}

// SendDeadlineReminders handles POST /api/reminders/deadline
func (h *Handler) SendDeadlineReminders(c *gin.Context) {
	sent, err := h.tasks.SendDeadlineReminders(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deadline reminders sent!", "sent": sent})
}

// NotifyOverdue handles POST /api/reminders/overdue
func (h *Handler) NotifyOverdue(c *gin.Context) {
	sent, err := h.tasks.NotifyOverdue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Overdue notifications sent!", "sent": sent})
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Task tracker API is running",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
