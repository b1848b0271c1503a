package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig configures an [SMTPSender].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay using PLAIN auth when a
// username is set. net/smtp upgrades to STARTTLS when the server offers it.
type SMTPSender struct {
	cfg      SMTPConfig
	addr     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

// NewSMTPSender validates cfg and returns a sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail: smtp host required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	from, err := NormalizeAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("mail: smtp from: %w", err)
	}
	cfg.From = from

	s := &SMTPSender{
		cfg:      cfg,
		addr:     net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

// Send delivers msg. smtp.SendMail has no context support, so ctx is only
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := NormalizeAddress(msg.To)
	if err != nil {
		return err
	}
	return s.sendMail(s.addr, s.auth, s.cfg.From, []string{to}, s.compose(to, msg))
}

func (s *SMTPSender) compose(to string, msg Message) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, "From", s.cfg.From)
	writeHeader(&buf, "To", to)
	writeHeader(&buf, "Subject", msg.Subject)
	writeHeader(&buf, "Date", s.now().UTC().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
