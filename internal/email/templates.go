package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type view struct {
	AppName string
	Name    string
	Code    string
	Link    string
	TTL     string
}

// Composer renders the transactional mails sent by the auth flows.
type Composer struct {
	appName     string
	frontendURL string
	ttl         time.Duration
	pages       map[Kind]*template.Template
}

func NewComposer(appName, frontendURL string, ttl time.Duration) (*Composer, error) {
	files := map[Kind]string{
		KindVerifyEmail:   "templates/verify_email.html",
		KindResetPassword: "templates/reset_password.html",
		KindChangeEmail:   "templates/change_email.html",
	}
	pages := make(map[Kind]*template.Template, len(files))
	for kind, file := range files {
		t, err := template.ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[kind] = t
	}
	return &Composer{appName: appName, frontendURL: frontendURL, ttl: ttl, pages: pages}, nil
}

func (c *Composer) VerifyEmail(to, name, code string) (*Message, error) {
	v := c.view(name, code, c.frontendURL+"/auth/confirm")
	return c.render(KindVerifyEmail, to,
		fmt.Sprintf("[%s] Confirm your account", c.appName),
		fmt.Sprintf("Thanks for signing up to %s.\nConfirm your account at %s with code %s.\nThe code expires in %s.", c.appName, v.Link, code, v.TTL),
		v)
}

func (c *Composer) ResetPassword(to, name, code string) (*Message, error) {
	v := c.view(name, code, c.frontendURL+"/auth/new-password")
	return c.render(KindResetPassword, to,
		fmt.Sprintf("[%s] Reset your password", c.appName),
		fmt.Sprintf("We received a request to reset your %s password.\nOpen %s and enter code %s.\nThe code expires in %s.", c.appName, v.Link, code, v.TTL),
		v)
}

func (c *Composer) ChangeEmail(to, name, code string) (*Message, error) {
	v := c.view(name, code, "")
	return c.render(KindChangeEmail, to,
		fmt.Sprintf("[%s] Confirm your new email", c.appName),
		fmt.Sprintf("We received a request to move your %s account to this address.\nEnter code %s in the app to confirm.\nThe code expires in %s.", c.appName, code, v.TTL),
		v)
}

func (c *Composer) view(name, code, link string) view {
	return view{
		AppName: c.appName,
		Name:    name,
		Code:    code,
		Link:    link,
		TTL:     c.ttl.String(),
	}
}

func (c *Composer) render(kind Kind, to, subject, text string, v view) (*Message, error) {
	var buf bytes.Buffer
	if err := c.pages[kind].ExecuteTemplate(&buf, "layout", v); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return &Message{
		Kind:    kind,
		To:      to,
		Subject: subject,
		HTML:    buf.String(),
		Text:    text,
	}, nil
}
