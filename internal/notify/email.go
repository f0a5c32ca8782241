package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	From        string   `mapstructure:"from"`
	DisplayName string   `mapstructure:"display_name"`
	To          []string `mapstructure:"to"`
}

func (c SMTPConfig) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("smtp host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("smtp port %d is out of range", c.Port)
	case c.From == "":
		return errors.New("smtp from address is required")
	case len(c.To) == 0:
		return errors.New("at least one recipient is required")
	}
	return nil
}

// Email sends plain-text and HTML mail over SMTP with STARTTLS, TLS 1.3 or
// newer.
type Email struct {
	cfg  SMTPConfig
	send func(*gomail.Message) error
}

func NewEmail(cfg SMTPConfig) (*Email, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS13}
	return &Email{cfg: cfg, send: func(m *gomail.Message) error { return d.DialAndSend(m) }}, nil
}

func (e *Email) Name() string { return "email" }

// Notify does not honor ctx once the SMTP exchange has started.
func (e *Email) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.send(e.message(msg)); err != nil {
		return fmt.Errorf("failed to send email via %s:%d: %w", e.cfg.Host, e.cfg.Port, err)
	}
	return nil
}

func (e *Email) message(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.cfg.From, e.cfg.DisplayName))
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	m.AddAlternative("text/html", "<pre>"+html.EscapeString(msg.Body)+"</pre>")
	return m
}
