package tasks

import (
	"context"
	"fmt"
	"strings"

	"task-tracker-api/internal/models"
	"task-tracker-api/internal/notify"
	"task-tracker-api/internal/realtime"
)

// PostMessage appends a chat line and mails the assignee and the creator,
// except whichever of them sent it.
func (s *Service) PostMessage(ctx context.Context, actor models.User, taskID, text string) (models.TaskChat, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return models.TaskChat{}, err
	}
	if !canView(t, actor) {
		return models.TaskChat{}, ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return models.TaskChat{}, invalid("message", "Message cannot be empty.")
	}

	msg := models.TaskChat{
		TaskID:    t.ID,
		SenderID:  actor.ID,
		Message:   text,
		Timestamp: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.TaskChat{}, fmt.Errorf("save chat message on %s: %w", t.TaskID, err)
	}
	sender := actor
	msg.Sender = &sender

	if s.hub != nil {
		s.hub.Publish(realtime.Event{Type: realtime.ChatMessage, TaskID: t.TaskID, ActorID: actor.ID},
			deref(t.AssignedToID), deref(t.AssignedByID))
	}

	line := notify.ChatMessage{Sender: actor, Text: msg.Message, Timestamp: msg.Timestamp}
	var events []notify.Event
	if t.AssignedTo != nil && t.AssignedTo.ID != actor.ID {
		events = append(events, notify.NewChat(*t.AssignedTo, t, line))
	}
	if t.AssignedBy != nil && t.AssignedBy.ID != actor.ID {
		events = append(events, notify.NewChat(*t.AssignedBy, t, line))
	}
	return msg, s.notifyAll(ctx, t, events...)
}

// Messages lists the chat of a task, oldest first.
func (s *Service) Messages(ctx context.Context, actor models.User, taskID string) ([]models.TaskChat, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canView(t, actor) {
		return nil, ErrForbidden
	}
	return s.messages(ctx, t)
}

func (s *Service) messages(ctx context.Context, t models.Task) ([]models.TaskChat, error) {
	var msgs []models.TaskChat
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("task_id = ?", t.ID).
		Order("timestamp asc").
		Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list chat of %s: %w", t.TaskID, err)
	}
	return msgs, nil
}
