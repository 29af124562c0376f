// Package email sends transactional emails through a provider-agnostic
// EmailSender interface.
//
// Two implementations are provided:
//   - the Postmark client for production delivery
//   - DevSender, which writes each message as .html and .json files
//
// New picks Postmark when both tokens are configured and DevSender otherwise:
//
//	sender, err := email.New(cfg)
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "You're invited",
//	    BodyHTML: html,
//	    Tag:      "invite-created",
//	})
//
// Message bodies are built from the templ components in the templates
// subpackage.
//
// All implementations validate parameters first and report ErrInvalidParams,
// ErrInvalidConfig or ErrFailedToSendEmail, which can be checked with errors.Is.
package email
