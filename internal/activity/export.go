package activity

import (
	"encoding/csv"
	"io"
	"time"

	"task-tracker-api/internal/models"
)

var csvHeader = []string{"User", "Action", "Task ID", "Description", "Timestamp"}

// WriteCSV writes the audit trail in the download layout.
func WriteCSV(w io.Writer, logs []models.ActivityLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range logs {
		var username, taskID string
		if l.User != nil {
			username = l.User.Username
		}
		if l.Task != nil {
			taskID = l.Task.TaskID
		}
		record := []string{
			username,
			models.ActionLabel(l.Action),
			taskID,
			l.Description,
			l.Timestamp.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
