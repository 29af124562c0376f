package mailnotify

import "errors"

var (
	ErrUnsupportedEvent = errors.New("mailnotify: unsupported event")
	ErrRenderFailed     = errors.New("mailnotify: failed to render email")
)
