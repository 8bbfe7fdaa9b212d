// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer delivers outbound transactional email.

Two implementations satisfy [Sender]:

  - SMTPSender: authenticates with PLAIN auth and sends through net/smtp.
  - LogSender: writes the message to the structured log (development only).

Callers never depend on delivery succeeding for their own correctness; a failed
send is surfaced as an error and logged by the caller.
*/
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a [Message].
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// # SMTP

// SMTPConfig holds the connection settings for [SMTPSender].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends email through an SMTP relay.
type SMTPSender struct {
	config   SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender constructs an [SMTPSender].
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config, sendMail: smtp.SendMail}
}

// Send implements [Sender].
func (sender *SMTPSender) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mailer: context error: %w", err)
	}

	if strings.ContainsAny(message.To, "\r\n") || strings.ContainsAny(message.Subject, "\r\n") {
		return fmt.Errorf("mailer: header injection rejected")
	}

	var auth smtp.Auth
	if sender.config.Username != "" {
		auth = smtp.PlainAuth("", sender.config.Username, sender.config.Password, sender.config.Host)
	}

	address := net.JoinHostPort(sender.config.Host, strconv.Itoa(sender.config.Port))
	if err := sender.sendMail(address, auth, sender.config.From, []string{message.To}, sender.compose(message)); err != nil {
		return fmt.Errorf("mailer: smtp send failed: %w", err)
	}

	return nil
}

// compose renders RFC 5322 headers followed by the body.
func (sender *SMTPSender) compose(message Message) []byte {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "From: %s\r\n", sender.config.From)
	fmt.Fprintf(&buffer, "To: %s\r\n", message.To)
	fmt.Fprintf(&buffer, "Subject: %s\r\n", message.Subject)
	fmt.Fprintf(&buffer, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buffer.WriteString("MIME-Version: 1.0\r\n")
	buffer.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buffer.WriteString(message.Body)
	return buffer.Bytes()
}

// # Development

// LogSender records messages in the structured log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a [LogSender].
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements [Sender].
func (sender *LogSender) Send(ctx context.Context, message Message) error {
	sender.logger.InfoContext(ctx, "mail_logged",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("body", message.Body),
	)
	return nil
}
