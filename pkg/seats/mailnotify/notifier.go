// Package mailnotify delivers seat notifications as transactional emails.
package mailnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/seatshare/pkg/email"
	"github.com/dmitrymomot/seatshare/pkg/email/templates"
	"github.com/dmitrymomot/seatshare/pkg/logger"
	"github.com/dmitrymomot/seatshare/pkg/seats"
)

// Config holds the values links and copy are built from.
type Config struct {
	BaseURL     string `env:"APP_BASE_URL,required"`
	ProductName string `env:"PRODUCT_NAME" envDefault:"SeatShare"`
}

// Notifier implements seats.Notifier on top of an email.EmailSender.
type Notifier struct {
	sender email.EmailSender
	cfg    Config
	log    *slog.Logger
}

var _ seats.Notifier = (*Notifier)(nil)

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// New returns a Notifier. Panics if sender is nil.
func New(sender email.EmailSender, cfg Config, opts ...Option) *Notifier {
	if sender == nil {
		panic("mailnotify: sender is required")
	}
	if cfg.ProductName == "" {
		cfg.ProductName = "SeatShare"
	}
	n := &Notifier{sender: sender, cfg: cfg, log: logger.Discard()}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With(logger.Component("mailnotify"))
	return n
}

// Notify sends one email per recipient with an address. Failures for single
// recipients do not stop the others and are returned joined.
func (n *Notifier) Notify(ctx context.Context, notification seats.Notification) error {
	var errs []error
	for _, r := range notification.Recipients {
		if r.Email == "" {
			n.log.DebugContext(ctx, "recipient has no email address",
				logger.Event(string(notification.Event)), logger.FamilyID(notification.FamilyID))
			continue
		}

		msg, err := n.message(notification)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		html, err := templates.Render(ctx, msg.body)
		if err != nil {
			errs = append(errs, errors.Join(ErrRenderFailed, err))
			continue
		}
		if err := n.sender.SendEmail(ctx, email.SendEmailParams{
			SendTo:   r.Email,
			Subject:  msg.subject,
			BodyHTML: html,
			Tag:      string(notification.Event),
		}); err != nil {
			errs = append(errs, fmt.Errorf("send %s: %w", notification.Event, err))
		}
	}
	return errors.Join(errs...)
}

type message struct {
	subject string
	body    templ.Component
}

func (n *Notifier) message(nt seats.Notification) (message, error) {
	product := n.cfg.ProductName
	owner := nt.OwnerName
	if owner == "" {
		owner = "The family owner"
	}

	switch nt.Event {
	case seats.EventInviteCreated:
		if nt.Invite == nil {
			return message{}, fmt.Errorf("%w: invite missing", ErrUnsupportedEvent)
		}
		link, err := url.JoinPath(n.cfg.BaseURL, "invites", nt.Invite.Token)
		if err != nil {
			return message{}, errors.Join(ErrRenderFailed, err)
		}
		subject := fmt.Sprintf("%s invited you to share their %s plan", owner, product)
		return message{subject, templates.Layout(subject,
			templates.Text(fmt.Sprintf("%s has a free seat on their %s plan and would like you to take it.", owner, product)),
			templates.Button("Accept invite", link),
			templates.TextMuted("This invite expires on "+nt.Invite.ExpiresAt.UTC().Format("January 2, 2006 at 15:04 UTC")+"."),
		)}, nil

	case seats.EventInviteAccepted:
		subject := "A new member joined your family"
		return message{subject, templates.Layout(subject,
			templates.Text("Someone accepted your invite and now shares your "+product+" plan."),
		)}, nil

	case seats.EventInvitesRevoked:
		subject := "Your invite was withdrawn"
		return message{subject, templates.Layout(subject,
			templates.Text(fmt.Sprintf("The invite from %s to share their %s plan is no longer valid.", owner, product)),
		)}, nil

	case seats.EventMemberRemoved:
		subject := "You were removed from a family"
		return message{subject, templates.Layout(subject,
			templates.Text(fmt.Sprintf("%s removed you from their %s plan.", owner, product)),
			templates.TextMuted("You can subscribe on your own or accept an invite from another family."),
		)}, nil

	case seats.EventMemberLeft:
		subject := "A member left your family"
		return message{subject, templates.Layout(subject,
			templates.Text("A member gave up their seat on your "+product+" plan. The seat is free again."),
		)}, nil

	case seats.EventMemberEvicted:
		subject := "Your family seat was removed"
		return message{subject, templates.Layout(subject,
			templates.Text(fmt.Sprintf("%s changed their %s plan and it no longer has a seat for you.", owner, product)),
		)}, nil

	case seats.EventFamilyDissolved:
		subject := "Your family was closed"
		return message{subject, templates.Layout(subject,
			templates.Text(fmt.Sprintf("%s's %s plan ended, so the family you belonged to was closed.", owner, product)),
		)}, nil
	}

	return message{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, nt.Event)
}
