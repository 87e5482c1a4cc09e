package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// sendMailFunc matches smtp.SendMail; tests substitute a recorder.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers alerts over SMTP as plain-text mail.  A delivery
// Target (set by rule actions) overrides the configured recipient list.
type EmailChannel struct {
	cfg    config.SMTPConfig
	send   sendMailFunc
	logger logging.Logger
}

// NewEmailChannel builds the channel from SMTP settings.
func NewEmailChannel(cfg config.SMTPConfig, logger logging.Logger) *EmailChannel {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EmailChannel{cfg: cfg, send: smtp.SendMail, logger: logger.Named("email")}
}

// Type reports the channel medium.
func (c *EmailChannel) Type() mtypes.ChannelType { return mtypes.ChannelEmail }

// Send renders and mails the delivery.
func (c *EmailChannel) Send(ctx context.Context, d monitoring.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := c.cfg.DefaultRecipients
	if d.Target != "" {
		to = []string{d.Target}
	}
	if len(to) == 0 {
		return errors.Delivery("email: no recipients configured", nil)
	}

	msg := c.render(d, to)
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	var auth smtp.Auth
	if c.cfg.User != "" {
		auth = smtp.PlainAuth("", c.cfg.User, c.cfg.Password, c.cfg.Host)
	}
	if err := c.send(addr, auth, c.cfg.From, to, msg); err != nil {
		return errors.Delivery("email: send failed", err)
	}
	return nil
}

func (c *EmailChannel) render(d monitoring.Delivery, to []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject(d))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	if d.Digest {
		fmt.Fprintf(&b, "Watchlist %q collected %d alerts.\r\n\r\n", d.WatchlistName, len(d.Alerts))
	}
	for _, a := range d.Alerts {
		fmt.Fprintf(&b, "[%s] %s\r\n", strings.ToUpper(string(a.Severity)), a.Title)
		if a.Description != "" {
			fmt.Fprintf(&b, "%s\r\n", a.Description)
		}
		if a.PatentNumber != "" {
			fmt.Fprintf(&b, "Patent: %s\r\n", a.PatentNumber)
		}
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}
