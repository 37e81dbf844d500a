package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

var verificationTemplate = template.Must(template.New("verification").Parse(
	`<p>Hello {{.Name}},</p><p>Your verification code is: <b>{{.Code}}</b></p><p>The code expires in 15 minutes.</p>`))

var twoFactorTemplate = template.Must(template.New("twofactor").Parse(
	`<p>Hello {{.Name}},</p><p>Your two-factor authentication OTP is: <b>{{.Code}}</b></p><p>The code expires in 15 minutes.</p>`))

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(host string, port int, username, password, from string) *Sender {
	dialer := gomail.NewDialer(host, port, username, password)
	return &Sender{
		dialer: dialer,
		from:   from,
	}
}

func (s *Sender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *Sender) SendVerificationCode(to, name, code string) error {
	body, err := render(verificationTemplate, name, code)
	if err != nil {
		return err
	}
	return s.Send(to, "Verification Code", body)
}

func (s *Sender) SendTwoFactorCode(to, name, code string) error {
	body, err := render(twoFactorTemplate, name, code)
	if err != nil {
		return err
	}
	return s.Send(to, "Two-Factor Authentication OTP", body)
}

func render(t *template.Template, name, code string) (string, error) {
	buf := new(bytes.Buffer)
	err := t.Execute(buf, struct{ Name, Code string }{Name: name, Code: code})
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return buf.String(), nil
}
