package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names, one per notification kind.
const (
	TemplateTicketCreated       = "ticket_created"
	TemplateTicketAssigned      = "ticket_assigned"
	TemplateTaskCreatedByYou    = "task_created_by_you"
	TemplateTicketReassigned    = "ticket_reassigned"
	TemplateStatusUpdated       = "ticket_status_updated"
	TemplateDeadlineUpdated     = "ticket_deadline_updated"
	TemplateCommentUpdated      = "ticket_comment_updated"
	TemplateNewChat             = "new_chat"
	TemplateDeadlineReminder    = "deadline_reminder"
	TemplateOverdueNotification = "overdue_notification"
)

var funcs = template.FuncMap{
	"date": formatDate,
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006-01-02")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}

// Renderer renders named e-mail templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("emails").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template called name with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
