package logger

import (
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// FamilyID records the family identifier under the key "family_id".
func FamilyID(id any) slog.Attr {
	return slog.Any("family_id", id)
}

// AccountID records an account identifier under the key "account_id".
func AccountID(id any) slog.Attr {
	return slog.Any("account_id", id)
}

// InviteID records the invite identifier under the key "invite_id".
// Tokens are bearer secrets and must never be logged; log the invite id instead.
func InviteID(id any) slog.Attr {
	return slog.Any("invite_id", id)
}

// Kind records a machine-readable error kind under the key "kind".
func Kind(kind string) slog.Attr {
	return slog.String("kind", kind)
}

// Count records an affected row count under the key "count".
func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
