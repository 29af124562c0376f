// Package templates holds the building blocks of transactional emails as
// templ components. Components are composed in Go and rendered with Render.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const (
	bodyStyle   = "margin:0;padding:24px;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;color:#18181b;"
	cardStyle   = "max-width:560px;margin:0 auto;padding:32px;background:#ffffff;border-radius:8px;"
	textStyle   = "margin:0 0 16px;font-size:15px;line-height:24px;"
	mutedStyle  = "margin:0 0 16px;font-size:13px;line-height:20px;color:#71717a;"
	buttonStyle = "display:inline-block;padding:12px 20px;background:#2563eb;color:#ffffff;border-radius:6px;text-decoration:none;font-weight:600;"
)

// Layout wraps the content components in an email document.
func Layout(title string, content ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title></head><body style="`+bodyStyle+`"><div style="`+cardStyle+`">`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<h1 style="margin:0 0 24px;font-size:20px;">`+templ.EscapeString(title)+`</h1>`); err != nil {
			return err
		}
		for _, c := range content {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// Text renders an escaped paragraph.
func Text(s string) templ.Component {
	return paragraph(textStyle, s)
}

// TextMuted renders an escaped paragraph in secondary color.
func TextMuted(s string) templ.Component {
	return paragraph(mutedStyle, s)
}

// Button renders a call-to-action link. Unsafe schemes are replaced by
// templ.FailedSanitizationURL.
func Button(label, href string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		url := templ.URL(href)
		_, err := io.WriteString(w, `<p style="margin:24px 0;"><a href="`+templ.EscapeString(string(url))+
			`" style="`+buttonStyle+`">`+templ.EscapeString(label)+`</a></p>`)
		return err
	})
}

func paragraph(style, s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p style="`+style+`">`+templ.EscapeString(s)+`</p>`)
		return err
	})
}
