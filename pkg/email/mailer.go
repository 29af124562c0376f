package email

import (
	"context"
	"errors"

	"github.com/dmitrymomot/seatshare/pkg/validator"
)

// EmailSender represents an interface for sending emails.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`       // Email address of the recipient
	Subject  string `json:"subject"`       // Subject of the email
	BodyHTML string `json:"body_html"`     // HTML body of the email
	Tag      string `json:"tag,omitempty"` // Optional
}

// Validate checks that the message can be handed to a provider.
func (p SendEmailParams) Validate() error {
	if err := validator.Apply(
		validator.ValidEmail("send_to", p.SendTo),
		validator.RequiredString("subject", p.Subject),
		validator.MaxLenString("subject", p.Subject, 2000),
		validator.RequiredString("body_html", p.BodyHTML),
		validator.MaxLenString("tag", p.Tag, 1000),
	); err != nil {
		return errors.Join(ErrInvalidParams, err)
	}
	return nil
}

// New returns a Postmark sender when tokens are configured and a DevSender
// writing to cfg.DevOutputDir otherwise.
func New(cfg Config) (EmailSender, error) {
	if cfg.UsePostmark() {
		return NewPostmarkClient(cfg)
	}
	if cfg.DevOutputDir == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("DevOutputDir is required without Postmark tokens"))
	}
	return NewDevSender(cfg.DevOutputDir), nil
}
