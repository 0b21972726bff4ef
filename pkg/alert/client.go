// Package alert emails the pharmacy operations address when the station
// runs into trouble it cannot resolve on its own.
package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/apotheka/dispense-station/config"
)

type Client struct {
	cfg Config
}

// NewFromCentral creates a new alert client from central config
func NewFromCentral(cfg config.AlertConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	return &Client{cfg: cfg}, nil
}

func (c *Client) Enabled() bool { return c.cfg.Enabled }

// RemoteSyncFailure reports a run of consecutive backend failures on a
// station.
func (c *Client) RemoteSyncFailure(ctx context.Context, machineID string, consecutive int, cause error) error {
	subject := fmt.Sprintf("[dispense-station] backend unreachable (machine %s)", machineID)
	body := fmt.Sprintf(
		"Station machine %s failed %d consecutive remote sync calls.\n\nLast error:\n%v\n\nReported at %s.\n",
		machineID, consecutive, cause, time.Now().Format(time.RFC1123),
	)
	return c.send(ctx, subject, body)
}

func (c *Client) send(ctx context.Context, subject, body string) error {
	if !c.cfg.Enabled {
		return ErrDisabled{}
	}

	msg, err := buildMessage(c.cfg, subject, body)
	if err != nil {
		return err
	}

	d := c.newDialer()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	// Respect ctx deadline if it's sooner than our config timeout.
	wait := c.cfg.SMTPTimeout()
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return ErrSend{Provider: "gomail/smtp", Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func (c *Client) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(c.cfg.SMTPHost, c.cfg.SMTPPort, c.cfg.SMTPUsername, c.cfg.SMTPPassword)

	d.SSL = c.cfg.SMTPUseTLS

	if c.cfg.SMTPUseTLS {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return d
}

func buildMessage(cfg Config, subject, body string) (*gomail.Message, error) {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, ErrInvalidMessage{Reason: "from is required"}
	}
	if len(cfg.To) == 0 {
		return nil, ErrInvalidMessage{Reason: "at least one recipient is required"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", cfg.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg, nil
}
