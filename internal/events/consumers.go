package events

import (
	"context"
	"fmt"
	"strings"

	"abayaStore/domain"
	"abayaStore/pkg/logger"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type Mailer interface {
	SendEmail(toName, toEmail, subject, message string) error
}

// Notifier emails customers about their orders, payments and returns.
type Notifier struct {
	bus    *Bus
	users  UserFinder
	mailer Mailer
}

func NewNotifier(bus *Bus, users UserFinder, mailer Mailer) *Notifier {
	return &Notifier{bus: bus, users: users, mailer: mailer}
}

func (n *Notifier) String() string {
	return "event-notifier"
}

func (n *Notifier) Serve(ctx context.Context) error {
	msgs, err := n.bus.Subscribe(ctx, AllTopics()...)
	if err != nil {
		return err
	}

	for msg := range msgs {
		ev, err := Decode(msg)
		if err != nil {
			logger.Error("Dropping undecodable event", err)
			msg.Ack()
			continue
		}
		n.Handle(ctx, ev)
		msg.Ack()
	}
	return ctx.Err()
}

// Handle sends the email for a single event. Failures are logged only.
func (n *Notifier) Handle(ctx context.Context, ev Event) {
	if ev.UserID == 0 {
		return
	}

	subject, body, ok := composeEmail(ev)
	if !ok {
		return
	}

	user, err := n.users.FindByID(ctx, ev.UserID)
	if err != nil {
		logger.Error("Failed to load user for notification", err, "user_id", ev.UserID, "topic", ev.Topic)
		return
	}

	if err := n.mailer.SendEmail(user.FullName, user.Email, subject, body); err != nil {
		logger.Error("Failed to send notification email", err, "user_id", ev.UserID, "topic", ev.Topic)
	}
}

func composeEmail(ev Event) (subject, body string, ok bool) {
	status := strings.ToLower(strings.ReplaceAll(ev.Status, "_", " "))

	switch ev.Topic {
	case TopicOrderPlaced:
		subject = fmt.Sprintf("Order confirmation #%s", ev.OrderNumber)
		body = fmt.Sprintf("Thank you for your order.</br>Order <b>%s</b> for %s %s has been placed and is awaiting payment.",
			ev.OrderNumber, ev.Amount.StringFixed(2), ev.Currency)
	case TopicOrderStatusChanged:
		subject = fmt.Sprintf("Order #%s is now %s", ev.OrderNumber, status)
		body = fmt.Sprintf("Your order <b>%s</b> status changed to <b>%s</b>.", ev.OrderNumber, status)
	case TopicPaymentCompleted:
		subject = fmt.Sprintf("Payment received for order #%s", ev.OrderNumber)
		body = fmt.Sprintf("We received your payment of %s %s for order <b>%s</b>.",
			ev.Amount.StringFixed(2), ev.Currency, ev.OrderNumber)
	case TopicPaymentFailed:
		subject = fmt.Sprintf("Payment failed for order #%s", ev.OrderNumber)
		body = fmt.Sprintf("Your payment for order <b>%s</b> did not go through. You can retry from your orders page.", ev.OrderNumber)
	case TopicReturnUpdated:
		subject = fmt.Sprintf("Return %s is now %s", ev.ReturnNumber, status)
		body = fmt.Sprintf("Your return <b>%s</b> for order <b>%s</b> is now <b>%s</b>.", ev.ReturnNumber, ev.OrderNumber, status)
	default:
		return "", "", false
	}
	return subject, body, true
}

// LiveFeed forwards every event to the dashboard websocket hub.
type LiveFeed struct {
	bus *Bus
	hub *Hub
}

func NewLiveFeed(bus *Bus, hub *Hub) *LiveFeed {
	return &LiveFeed{bus: bus, hub: hub}
}

func (f *LiveFeed) String() string {
	return "dashboard-live-feed"
}

func (f *LiveFeed) Serve(ctx context.Context) error {
	msgs, err := f.bus.Subscribe(ctx, AllTopics()...)
	if err != nil {
		return err
	}

	for msg := range msgs {
		if ev, err := Decode(msg); err == nil {
			f.hub.Broadcast(ev)
		}
		msg.Ack()
	}
	return ctx.Err()
}
