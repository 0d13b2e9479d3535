package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
)

const previewLength = 100

// Event is one notification: a template rendered for a single recipient,
// with the task's viewers on copy.
type Event struct {
	Template  string
	Subject   string
	Recipient models.User
	Task      models.Task
	Chat      *ChatMessage
}

// ChatMessage is the chat line a new_chat event reports.
type ChatMessage struct {
	Sender    models.User
	Text      string
	Timestamp time.Time
}

// TicketContext is the template context of every ticket notification.
type TicketContext struct {
	User          models.User
	Ticket        models.Task
	ViewTicketURL string
}

// MessagePreview summarizes a chat line for the new_chat template.
type MessagePreview struct {
	SenderName string
	Subject    string
	Timestamp  string
	Preview    string
}

// ChatContext is the template context of new_chat.
type ChatContext struct {
	User           models.User
	Message        MessagePreview
	ViewMessageURL string
}

// Dispatcher renders and delivers notification e-mails.
type Dispatcher struct {
	renderer *Renderer
	mailer   Mailer
	baseURL  string
}

func NewDispatcher(renderer *Renderer, mailer Mailer, baseURL string) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// TicketURL is the link to a task's detail page.
func (d *Dispatcher) TicketURL(taskID string) string {
	return fmt.Sprintf("%s/tasks/detail/%s/", d.baseURL, taskID)
}

// Notify renders ev and sends it. Recipients without an address are skipped.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) error {
	to := lifecycle.NormalizeEmail(ev.Recipient.Email)
	if to == "" {
		return nil
	}

	var data any
	if ev.Chat != nil {
		data = ChatContext{
			User:           ev.Recipient,
			Message:        previewOf(ev.Task, *ev.Chat),
			ViewMessageURL: d.TicketURL(ev.Task.TaskID),
		}
	} else {
		data = TicketContext{
			User:          ev.Recipient,
			Ticket:        ev.Task,
			ViewTicketURL: d.TicketURL(ev.Task.TaskID),
		}
	}

	body, err := d.renderer.Render(ev.Template, data)
	if err != nil {
		return err
	}

	msg := Message{
		To:       to,
		Cc:       ccList(ev.Task.Viewers, to),
		Subject:  ev.Subject,
		HTMLBody: body,
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", ev.Template, to, err)
	}
	return nil
}

func ccList(viewers []string, to string) []string {
	cc := lifecycle.NormalizeEmails(viewers)
	out := cc[:0]
	for _, e := range cc {
		if e != to {
			out = append(out, e)
		}
	}
	return out
}

func previewOf(task models.Task, chat ChatMessage) MessagePreview {
	text := chat.Text
	if r := []rune(text); len(r) > previewLength {
		text = string(r[:previewLength]) + "..."
	}
	return MessagePreview{
		SenderName: chat.Sender.FullName(),
		Subject:    "RE: " + task.Subject,
		Timestamp:  chat.Timestamp.Format("2006-01-02 15:04:05"),
		Preview:    text,
	}
}

func TicketCreated(manager models.User, task models.Task) Event {
	return Event{Template: TemplateTicketCreated, Subject: "New Task Created in Your Department", Recipient: manager, Task: task}
}

func TicketAssigned(assignee models.User, task models.Task) Event {
	return Event{Template: TemplateTicketAssigned, Subject: "You Have Been Assigned a New Task", Recipient: assignee, Task: task}
}

func TaskCreatedByYou(creator models.User, task models.Task) Event {
	return Event{Template: TemplateTaskCreatedByYou, Subject: "Your Task Has Been Created", Recipient: creator, Task: task}
}

func TicketReassigned(assignee models.User, task models.Task) Event {
	return Event{Template: TemplateTicketReassigned, Subject: "You Have Been Re-Assigned a Task", Recipient: assignee, Task: task}
}

// StatusUpdated is sent to the counterpart of whoever changed the task.
func StatusUpdated(recipient models.User, task models.Task, byCreator bool) Event {
	subject := "Task Updated by Assignee: " + task.TaskID
	if byCreator {
		subject = "Task Updated by Creator: " + task.TaskID
	}
	return Event{Template: TemplateStatusUpdated, Subject: subject, Recipient: recipient, Task: task}
}

func DeadlineRevised(recipient models.User, task models.Task) Event {
	return Event{Template: TemplateDeadlineUpdated, Subject: "Deadline Revised: " + task.TaskID, Recipient: recipient, Task: task}
}

func CommentUpdated(recipient models.User, task models.Task) Event {
	return Event{Template: TemplateCommentUpdated, Subject: "Comment Updated: " + task.TaskID, Recipient: recipient, Task: task}
}

func NewChat(recipient models.User, task models.Task, msg ChatMessage) Event {
	return Event{
		Template:  TemplateNewChat,
		Subject:   fmt.Sprintf("New message on task #%s: %s", task.TaskID, task.Subject),
		Recipient: recipient,
		Task:      task,
		Chat:      &msg,
	}
}

func DeadlineReminder(recipient models.User, task models.Task) Event {
	return Event{
		Template:  TemplateDeadlineReminder,
		Subject:   fmt.Sprintf("Reminder: Task Deadline Approaching (%s)", task.TaskID),
		Recipient: recipient,
		Task:      task,
	}
}

func OverdueNotice(recipient models.User, task models.Task) Event {
	return Event{Template: TemplateOverdueNotification, Subject: "Overdue Task: " + task.TaskID, Recipient: recipient, Task: task}
}
