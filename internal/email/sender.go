// Package email provides the reminder notifier for the application.
// It supports both development mode (log-only) and production mode (SMTP).
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"os"
	"strconv"
)

// Sender defines the interface for transmitting a session reminder. A send
// either succeeds or reports an error; retry policy is the transport's own
// concern and is not implemented here. Implementations must respect the
// context deadline: a hung mail server is reported as a failed send, never
// an indefinite block.
type Sender interface {
	SendSessionReminder(ctx context.Context, r Reminder) error
}

// Config holds email configuration
type Config struct {
	Mode     string // "log" or "smtp"
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// NewConfig creates a new email configuration from environment variables
func NewConfig() *Config {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	return &Config{
		Mode:     getEnvOrDefault("EMAIL_MODE", "log"),
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnvOrDefault("SMTP_FROM", "noreply@quiethours.app"),
		FromName: getEnvOrDefault("SMTP_FROM_NAME", "QuietHours"),
	}
}

// NewSender creates a new email sender based on configuration
func NewSender(cfg *Config, logger *slog.Logger) Sender {
	if cfg.Mode == "smtp" {
		return &smtpSender{config: cfg, logger: logger}
	}
	return &logSender{logger: logger}
}

// logSender logs reminders instead of sending them (development mode)
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) SendSessionReminder(_ context.Context, r Reminder) error {
	s.logger.Info("[DEV] Session reminder",
		"to", r.To,
		"title", r.Title,
		"date", r.Date,
		"start", r.StartTime,
		"end", r.EndTime)
	return nil
}

// smtpSender sends reminders via SMTP (production mode)
type smtpSender struct {
	config *Config
	logger *slog.Logger
}

func (s *smtpSender) SendSessionReminder(ctx context.Context, r Reminder) error {
	subject := fmt.Sprintf("Reminder: %q starts in %d minutes", r.Title, r.LeadMinutes)
	body := buildReminderBody(r)

	message := fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From)
	message += fmt.Sprintf("To: %s\r\n", r.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "MIME-Version: 1.0\r\n"
	message += "Content-Type: text/html; charset=UTF-8\r\n"
	message += "\r\n"
	message += body

	if err := s.transmit(ctx, r.To, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Session reminder sent via SMTP", "to", r.To, "title", r.Title)
	return nil
}

// transmit drives the SMTP conversation over a connection bounded by the
// context deadline, so a half-open mail server surfaces as an error instead
// of blocking the caller for the kernel TCP timeout.
func (s *smtpSender) transmit(ctx context.Context, to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return err
		}
	}

	if s.config.User != "" {
		auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(message); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func buildReminderBody(r Reminder) string {
	description := ""
	if r.Description != "" {
		description = fmt.Sprintf(`<p><strong>Description:</strong> %s</p>`, r.Description)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Quiet Hour Reminder</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
        <h1 style="color: white; margin: 0;">Quiet Hour Reminder</h1>
        <p style="color: white;">Your focused work session is starting soon.</p>
    </div>

    <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
        <h2>Session Details</h2>
        <div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #667eea;">
            <h3>%s</h3>
            <p><strong>Date:</strong> %s</p>
            <p><strong>Time:</strong> %s - %s</p>
            %s
        </div>

        <p>Your quiet hour session will begin in %d minutes. Make sure to:</p>
        <ul>
            <li>Turn off notifications on your devices</li>
            <li>Put your phone in silent mode</li>
            <li>Close your door or use headphones</li>
            <li>Have water and any materials ready</li>
        </ul>

        <p>Focus well and make the most of your dedicated time!</p>

        <hr style="border: none; border-top: 1px solid #ddd; margin: 30px 0;">

        <p style="font-size: 12px; color: #999; text-align: center;">
            Sent by QuietHours. This is an automated reminder for your scheduled session.
        </p>
    </div>
</body>
</html>
`, r.Title, r.Date, r.StartTime, r.EndTime, description, r.LeadMinutes)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
