package notifications

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Template names, also used as the "template" metric label.
const (
	TemplateContactMessage  = "contact_message"
	TemplateContactReply    = "contact_reply"
	TemplatePasswordReset   = "password_reset"
	TemplatePasswordChanged = "password_changed"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// Render executes the text and HTML variants of the named template.
func Render(name string, data any) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&tb, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("render %s.txt: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&hb, name+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s.html: %w", name, err)
	}
	return strings.TrimSpace(tb.String()), hb.String(), nil
}

// Contact is the data of a contact form submission.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// ContactMessage builds the operator notification for a submission.
func ContactMessage(c Contact, operator string) (Message, error) {
	return build(TemplateContactMessage, []string{operator}, "Message from site from "+c.Name, c)
}

// ContactReply builds the acknowledgement sent back to the submitter.
func ContactReply(c Contact) (Message, error) {
	return build(TemplateContactReply, []string{c.Email}, "Thank you for contacting us!", c)
}

// PasswordResetData feeds the password reset templates.
type PasswordResetData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// PasswordReset builds the reset link email.
func PasswordReset(to string, data PasswordResetData) (Message, error) {
	return build(TemplatePasswordReset, []string{to}, "Password reset", data)
}

// PasswordChanged builds the confirmation sent after a completed reset.
func PasswordChanged(to, name string) (Message, error) {
	return build(TemplatePasswordChanged, []string{to}, "Your password has been changed", struct{ Name string }{name})
}

func build(name string, to []string, subject string, data any) (Message, error) {
	text, html, err := Render(name, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, Text: text, HTML: html, Template: name}, nil
}
