package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPMailer sends alerts as plain text mail over implicit TLS.
type SMTPMailer struct {
	addr   string
	host   string
	from   string
	to     string
	auth   smtp.Auth
	tlsCfg *tls.Config
}

func NewSMTPMailer(host string, port int, username, password, from, to string) (*SMTPMailer, error) {
	host = strings.TrimSpace(host)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if host == "" {
		return nil, errors.New("mailer: host is required")
	}
	if from == "" {
		return nil, errors.New("mailer: from address is required")
	}
	if to == "" {
		return nil, errors.New("mailer: recipient is required")
	}
	if port <= 0 {
		port = 465
	}

	var auth smtp.Auth
	if strings.TrimSpace(username) != "" && strings.TrimSpace(password) != "" {
		auth = smtp.PlainAuth("", strings.TrimSpace(username), strings.TrimSpace(password), host)
	}

	return &SMTPMailer{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		host:   host,
		from:   from,
		to:     to,
		auth:   auth,
		tlsCfg: &tls.Config{ServerName: host},
	}, nil
}

func (m *SMTPMailer) Notify(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message := m.message(alert)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.send(message)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// message renders the RFC 5322 message for alert.
func (m *SMTPMailer) message(alert Alert) []byte {
	headers := [][2]string{
		{"From", m.from},
		{"To", m.to},
		{"Subject", alert.Subject()},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=utf-8"},
	}

	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0])
		b.WriteString(": ")
		b.WriteString(h[1])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(alert.Body())
	return []byte(b.String())
}

func (m *SMTPMailer) send(message []byte) error {
	conn, err := tls.Dial("tcp", m.addr, m.tlsCfg)
	if err != nil {
		return fmt.Errorf("mailer: dial smtp: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("mailer: create smtp client: %w", err)
	}
	defer client.Close()

	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return fmt.Errorf("mailer: authenticate: %w", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("mailer: set from: %w", err)
	}
	if err := client.Rcpt(m.to); err != nil {
		return fmt.Errorf("mailer: set recipient: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: get data writer: %w", err)
	}
	if _, err := wc.Write(message); err != nil {
		wc.Close()
		return fmt.Errorf("mailer: write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("mailer: close writer: %w", err)
	}
	return client.Quit()
}
