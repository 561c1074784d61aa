package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

const serviceName = "leadflow"

//go:embed templates/alert.html
var templates embed.FS

var alertTemplate = template.Must(template.ParseFS(templates, "templates/alert.html"))

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	if from == "" {
		from = user
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

// SendAlert mirrors an admin alert to the configured address.
func (s *EmailSender) SendAlert(subject, body string) error {
	html, err := RenderAlert(AlertEmailData{
		Subject: subject,
		Body:    stripMarkup(body),
		Service: serviceName,
		SentAt:  time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	})
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("[%s] %s", serviceName, subject))
	m.SetBody("text/plain", stripMarkup(body))
	m.AddAlternative("text/html", html)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func RenderAlert(data AlertEmailData) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render alert email: %w", err)
	}
	return buf.String(), nil
}

// stripMarkup drops the WhatsApp bold markers.
func stripMarkup(s string) string {
	return strings.ReplaceAll(s, "*", "")
}
