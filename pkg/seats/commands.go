package seats

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/dmitrymomot/seatshare/pkg/validator"
)

const maxEmailLength = 254

// CreateInviteCommand offers one seat of the owner's family to Email.
type CreateInviteCommand struct {
	OwnerID uuid.UUID `json:"-"`
	Email   string    `json:"email"`
}

func (c CreateInviteCommand) Validate() error {
	return validationError(validator.Apply(
		validator.RequiredUUID("owner_id", c.OwnerID),
		validator.ValidEmail("email", strings.TrimSpace(c.Email)),
		validator.MaxLenString("email", c.Email, maxEmailLength),
	))
}

// RevokeInviteCommand withdraws a pending invite of the owner's family.
type RevokeInviteCommand struct {
	OwnerID uuid.UUID `json:"-"`
	Token   string    `json:"token"`
}

func (c RevokeInviteCommand) Validate() error {
	return validationError(validator.Apply(
		validator.RequiredUUID("owner_id", c.OwnerID),
		validator.ValidCollisionResistantID("token", c.Token, TokenLength),
	))
}

// AcceptInviteCommand takes the seat offered by the invite for AccountID.
type AcceptInviteCommand struct {
	AccountID uuid.UUID `json:"-"`
	Token     string    `json:"token"`
}

func (c AcceptInviteCommand) Validate() error {
	return validationError(validator.Apply(
		validator.RequiredUUID("account_id", c.AccountID),
		validator.ValidCollisionResistantID("token", c.Token, TokenLength),
	))
}

// RemoveMemberCommand frees the seat of MemberID in the owner's family.
type RemoveMemberCommand struct {
	OwnerID  uuid.UUID `json:"-"`
	MemberID uuid.UUID `json:"member_id"`
}

func (c RemoveMemberCommand) Validate() error {
	return validationError(validator.Apply(
		validator.RequiredUUID("owner_id", c.OwnerID),
		validator.RequiredUUID("member_id", c.MemberID),
	))
}

// LeaveFamilyCommand frees the caller's own seat.
type LeaveFamilyCommand struct {
	AccountID uuid.UUID `json:"-"`
}

func (c LeaveFamilyCommand) Validate() error {
	return validationError(validator.Apply(
		validator.RequiredUUID("account_id", c.AccountID),
	))
}

// RegisterAccountCommand creates or updates the identity record of an account.
type RegisterAccountCommand struct {
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
}

func (c RegisterAccountCommand) Validate() error {
	rules := []validator.Rule{
		validator.RequiredUUID("account_id", c.AccountID),
		validator.RequiredString("display_name", c.DisplayName),
		validator.MaxLenString("display_name", c.DisplayName, 100),
	}
	if c.Email != "" {
		rules = append(rules,
			validator.ValidEmail("email", strings.TrimSpace(c.Email)),
			validator.MaxLenString("email", c.Email, maxEmailLength),
		)
	}
	return validationError(validator.Apply(rules...))
}

// PlanChangeCommand reports the plan an owner holds after a billing event.
// An empty PlanID means the plan was cancelled.
type PlanChangeCommand struct {
	OwnerID     uuid.UUID  `json:"owner_id"`
	PlanID      string     `json:"plan_id"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

func (c PlanChangeCommand) Validate() error {
	return validationError(validator.Apply(
		validator.RequiredUUID("owner_id", c.OwnerID),
		validator.MaxLenString("plan_id", c.PlanID, 100),
	))
}

// normalizeEmail trims and case-folds an address so the same mailbox is not
// invited twice under different spellings.
func normalizeEmail(email string) string {
	// A Caser is stateful, so one is built per call.
	return cases.Fold().String(strings.TrimSpace(email))
}

// validationError joins validator failures with ErrValidation.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrValidation, err)
}
