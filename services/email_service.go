package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/hearthchat/api/config"
	"go.uber.org/zap"
)

// EmailService sends transactional mail via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
	logger   *zap.Logger
}

// NewEmailService creates an email service from the app configuration
func NewEmailService(logger *zap.Logger) *EmailService {
	cfg, _ := config.Get()
	if logger == nil {
		logger = zap.NewNop()
	}

	from := cfg.SMTP_FROM
	if from == "" {
		from = "noreply@hearthchat.app"
	}

	return &EmailService{
		host:     cfg.SMTP_HOST,
		port:     cfg.SMTP_PORT,
		username: cfg.SMTP_USERNAME,
		password: cfg.SMTP_PASSWORD,
		from:     from,
		appURL:   cfg.APP_URL,
		logger:   logger,
	}
}

// IsConfigured checks if SMTP credentials are present
func (e *EmailService) IsConfigured() bool {
	return e.host != "" && e.username != "" && e.password != ""
}

// SendVerificationEmail sends the registration code to a new user. When SMTP
// is not configured (local development) the code is logged instead so the
// flow stays testable.
func (e *EmailService) SendVerificationEmail(toEmail, userName, code string) error {
	if !e.IsConfigured() {
		e.logger.Info("smtp not configured, verification code not emailed",
			zap.String("email", toEmail),
			zap.String("code", code))
		return nil
	}

	subject := "Verify Your Account - Hearth"
	body := e.buildVerificationEmailBody(userName, code)

	return e.sendEmail(toEmail, subject, body)
}

// buildVerificationEmailBody creates the HTML email body for account verification
func (e *EmailService) buildVerificationEmailBody(userName, code string) string {
	if userName == "" {
		userName = "there"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Verify Your Account - Hearth</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: #ffffff;
            border-radius: 8px;
            padding: 40px;
        }
        .logo h1 {
            color: #b5502a;
            font-size: 28px;
            margin: 0;
            text-align: center;
        }
        .code {
            font-size: 32px;
            font-weight: 700;
            letter-spacing: 6px;
            text-align: center;
            background-color: #f5f5f5;
            border-radius: 6px;
            padding: 16px;
            margin: 24px 0;
            color: #b5502a;
        }
        .footer {
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">
            <h1>Hearth</h1>
        </div>

        <p>Hello %s,</p>

        <p>Welcome to Hearth! Enter this code to verify your account:</p>

        <div class="code">%s</div>

        <p>The code expires in 15 minutes. If you didn't create a Hearth account, you can safely ignore this email.</p>

        <div class="footer">
            <p><strong>Hearth</strong> &mdash; a safe chat companion for families</p>
        </div>
    </div>
</body>
</html>`, userName, code)
}

// sendEmail sends an email using SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("Hearth <%s>", e.from)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	tlsConfig := &tls.Config{
		ServerName: e.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}
	if _, err := writer.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish message body: %w", err)
	}

	return conn.Quit()
}
