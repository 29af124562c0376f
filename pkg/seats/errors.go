package seats

import (
	"errors"
	"net/http"
)

// Kind is the stable, machine-readable category of an engine error.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindAlreadyUsedOrExpired Kind = "already_used_or_expired"
	KindHasActivePlan        Kind = "has_active_plan"
	KindAlreadyMember        Kind = "already_member"
	KindConsistencyFault     Kind = "consistency_fault"
	KindTransient            Kind = "transient"
	KindInternal             Kind = "internal"
)

var (
	ErrValidation           = errors.New("invalid input")
	ErrForbidden            = errors.New("not allowed to manage this family")
	ErrNotFound             = errors.New("not found")
	ErrCapacityExceeded     = errors.New("no seats available")
	ErrAlreadyUsedOrExpired = errors.New("invite was already used or has expired")
	ErrHasActivePlan        = errors.New("account has an active plan of its own")
	ErrAlreadyMember        = errors.New("account already belongs to a family")
	ErrConsistencyFault     = errors.New("seat ledger invariant violated")
	ErrTransient            = errors.New("temporary failure, retry later")

	// Store-level sentinels, mapped to ErrNotFound by the engine.
	ErrAccountNotFound = errors.New("account not found")
	ErrFamilyNotFound  = errors.New("family not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrInviteNotFound  = errors.New("invite not found")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrConsistencyFault, KindConsistencyFault},
	{ErrTransient, KindTransient},
	{ErrValidation, KindValidation},
	{ErrForbidden, KindForbidden},
	{ErrCapacityExceeded, KindCapacityExceeded},
	{ErrAlreadyUsedOrExpired, KindAlreadyUsedOrExpired},
	{ErrHasActivePlan, KindHasActivePlan},
	{ErrAlreadyMember, KindAlreadyMember},
	{ErrNotFound, KindNotFound},
	{ErrAccountNotFound, KindNotFound},
	{ErrFamilyNotFound, KindNotFound},
	{ErrMemberNotFound, KindNotFound},
	{ErrInviteNotFound, KindNotFound},
}

// KindOf returns the kind of err. Errors outside the taxonomy are KindInternal.
// Returns an empty kind for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code the transport layer reports.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindCapacityExceeded, KindAlreadyUsedOrExpired:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindHasActivePlan, KindAlreadyMember:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the failed operation may be retried as is.
func (k Kind) Retryable() bool {
	return k == KindTransient
}
