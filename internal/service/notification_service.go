package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/mail"
	"github.com/quickdesk/helpdesk-service/internal/repository"
)

// NotificationService turns domain events into e-mail. Delivery failures
// are logged and swallowed; they never surface to the mutation that
// produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	mailer     mail.Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, mailer mail.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventTicketCommented, n.handleCommented)
}

// handleTicketCreated mails every active staff member who opted in.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	staff, err := n.users.ListNotifiableStaff(ctx)
	if err != nil {
		n.logger.Warn("resolve notification targets failed", zap.Error(err))
		return nil
	}
	subject := fmt.Sprintf("New Ticket Created: %s", event.Ticket.Subject)
	body := fmt.Sprintf(`<h2>New Support Ticket</h2>
<p><strong>Ticket:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Priority:</strong> %s</p>`,
		event.Ticket.TicketNumber, event.Ticket.Subject, event.Ticket.Priority)
	for _, target := range staff {
		n.send(target.Email, subject, body, event)
	}
	return nil
}

// handleStatusChanged mails the ticket creator if they opted in.
func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	creator := n.notifiableUser(ctx, event.Ticket.CreatedBy)
	if creator == nil {
		return nil
	}
	subject := fmt.Sprintf("Ticket Status Updated: %s", event.Ticket.Subject)
	body := fmt.Sprintf(`<h2>Ticket Status Updated</h2>
<p><strong>Ticket:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>New Status:</strong> %s</p>`,
		event.Ticket.TicketNumber, event.Ticket.Subject, event.Ticket.Status)
	n.send(creator.Email, subject, body, event)
	return nil
}

// handleAssigned mails the new assignee if they opted in.
func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignedPayload)
	if !ok {
		return nil
	}
	assignee := n.notifiableUser(ctx, payload.AssigneeID)
	if assignee == nil {
		return nil
	}
	subject := fmt.Sprintf("Ticket Assigned to You: %s", event.Ticket.Subject)
	body := fmt.Sprintf(`<h2>Ticket Assigned</h2>
<p><strong>Ticket:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Priority:</strong> %s</p>`,
		event.Ticket.TicketNumber, event.Ticket.Subject, event.Ticket.Priority)
	n.send(assignee.Email, subject, body, event)
	return nil
}

// handleCommented mails the ticket creator unless they wrote the comment.
func (n *NotificationService) handleCommented(ctx context.Context, event events.Event) error {
	if event.Ticket.CreatedBy == event.ActorID {
		return nil
	}
	creator := n.notifiableUser(ctx, event.Ticket.CreatedBy)
	if creator == nil {
		return nil
	}
	subject := fmt.Sprintf("New Comment on Ticket: %s", event.Ticket.Subject)
	body := fmt.Sprintf(`<h2>New Comment</h2>
<p><strong>Ticket:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>`,
		event.Ticket.TicketNumber, event.Ticket.Subject)
	n.send(creator.Email, subject, body, event)
	return nil
}

func (n *NotificationService) notifiableUser(ctx context.Context, id string) *domain.User {
	user, err := n.users.GetByID(ctx, id)
	if err != nil {
		n.logger.Warn("resolve notification target failed", zap.String("user_id", id), zap.Error(err))
		return nil
	}
	if !user.IsActive || !user.NotifyEmail {
		return nil
	}
	return user
}

func (n *NotificationService) send(to, subject, body string, event events.Event) {
	if n.mailer == nil {
		return
	}
	if err := n.mailer.Send(to, subject, body); err != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("to", to),
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.Ticket.ID),
			zap.Error(err))
	}
}
