package seathttp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/seatshare/handler"
	"github.com/dmitrymomot/seatshare/pkg/logger"
	"github.com/dmitrymomot/seatshare/pkg/seats"
	"github.com/dmitrymomot/seatshare/pkg/validator"
)

// retryAfterSeconds is advertised on transient failures.
const retryAfterSeconds = 1

// messages are the client-facing texts per kind. Internal details never leave the process.
var messages = map[seats.Kind]string{
	seats.KindValidation:           seats.ErrValidation.Error(),
	seats.KindForbidden:            seats.ErrForbidden.Error(),
	seats.KindNotFound:             seats.ErrNotFound.Error(),
	seats.KindCapacityExceeded:     seats.ErrCapacityExceeded.Error(),
	seats.KindAlreadyUsedOrExpired: seats.ErrAlreadyUsedOrExpired.Error(),
	seats.KindHasActivePlan:        seats.ErrHasActivePlan.Error(),
	seats.KindAlreadyMember:        seats.ErrAlreadyMember.Error(),
	seats.KindTransient:            seats.ErrTransient.Error(),
}

type errorResponse struct {
	handler.Response
	retryAfter bool
}

func (e errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if e.retryAfter {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	return e.Response.Render(w, r)
}

// fail turns an engine error into the JSON error body and logs server-side failures.
func (a *API) fail(ctx context.Context, op string, err error) handler.Response {
	kind := seats.KindOf(err)
	msg, ok := messages[kind]
	if !ok {
		msg = "internal error"
	}
	detail := &handler.ErrorDetail{Code: string(kind), Message: msg}
	if kind == seats.KindValidation {
		if ve := validator.ExtractValidationErrors(err); len(ve) > 0 {
			detail.Details = ve.Map()
		}
	}

	switch kind {
	case seats.KindInternal, seats.KindConsistencyFault:
		a.log.ErrorContext(ctx, "request failed", logger.Event(op), logger.Kind(string(kind)), logger.Error(err))
	case seats.KindTransient:
		a.log.WarnContext(ctx, "request failed, retryable", logger.Event(op), logger.Error(err))
	}

	return errorResponse{
		Response:   handler.JSONError(detail, handler.WithJSONStatus(kind.HTTPStatus())),
		retryAfter: kind.Retryable(),
	}
}
