package mailer

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"gopkg.in/gomail.v2"
)

// DefaultBodyTemplate is the plain-text body of the entry code email.
const DefaultBodyTemplate = `Hi {{.Email}},

This is your entry code to {{.SiteName}}:

{{.Code}}

The entry code is valid for {{printf "%.f" .CodeExpiration.Minutes}} minutes.

If you did not request an entry code, you can ignore this email.


Regards,

{{.SiteName}}
`

// BodyParams is passed as data when executing the body template.
type BodyParams struct {
	Email          string
	SiteName       string
	Code           string
	CodeExpiration time.Duration
}

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	ReplyTo  string
	Subject  string
	SiteName string
	CodeTTL  time.Duration

	tmpl *template.Template
}

func New(host string, port int, username, password, from, replyTo, subject, siteName string, codeTTL time.Duration) (*Mailer, error) {
	const op = "mailer.New"

	tmpl, err := template.New("email").Parse(DefaultBodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Mailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		ReplyTo:  replyTo,
		Subject:  subject,
		SiteName: siteName,
		CodeTTL:  codeTTL,
		tmpl:     tmpl,
	}, nil
}

// Body renders the email body for the given recipient and code.
func (m *Mailer) Body(to, code string) (string, error) {
	const op = "mailer.Body"

	var buf bytes.Buffer

	err := m.tmpl.Execute(&buf, BodyParams{
		Email:          to,
		SiteName:       m.SiteName,
		Code:           code,
		CodeExpiration: m.CodeTTL,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return buf.String(), nil
}

func (m *Mailer) Send(to, code string) error {
	const op = "mailer.Send"

	body, err := m.Body(to, code)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)

	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
