// Package mailer renders the daily adherence report as an HTML email and
// delivers it over plain SMTP.
package mailer

import (
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Config holds SMTP delivery settings.
type Config struct {
	Host          string   `mapstructure:"host" yaml:"host"`
	Port          int      `mapstructure:"port" yaml:"port"`
	From          string   `mapstructure:"from" yaml:"from"`
	Recipients    []string `mapstructure:"recipients" yaml:"recipients"`
	TestRecipient string   `mapstructure:"test_recipient" yaml:"test_recipient"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 25
	}
}

// Sender delivers rendered reports. The send function is swappable for tests.
type Sender struct {
	cfg  Config
	log  *zap.Logger
	send func(addr, from string, to []string, msg []byte) error
}

// New builds a Sender using net/smtp for delivery.
func New(cfg Config) *Sender {
	cfg.applyDefaults()
	return &Sender{
		cfg: cfg,
		log: zap.L().Named("mailer"),
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Send delivers the HTML body to the configured recipients. In test mode
// only the test recipient receives it and the subject is prefixed.
func (s *Sender) Send(subject, html string, testMode bool) error {
	recipients := s.cfg.Recipients
	if testMode {
		if s.cfg.TestRecipient == "" {
			return eris.New("mailer: no test recipient configured")
		}
		recipients = []string{s.cfg.TestRecipient}
		subject = "[TEST] " + subject
	}
	if len(recipients) == 0 {
		return eris.New("mailer: no recipients configured")
	}
	if s.cfg.From == "" {
		return eris.New("mailer: no from address configured")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	msg := buildMessage(s.cfg.From, recipients, subject, html)

	s.log.Info("sending report email",
		zap.String("server", addr),
		zap.Int("recipients", len(recipients)),
		zap.String("subject", subject))

	if err := s.send(addr, s.cfg.From, recipients, msg); err != nil {
		return eris.Wrapf(err, "mailer: send via %s", addr)
	}
	return nil
}

// Subject builds the standard report subject for a given report date.
func Subject(reportDate time.Time) string {
	return fmt.Sprintf("PVS Report (%s)", reportDate.Format("2006-01-02"))
}

func buildMessage(from string, to []string, subject, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
