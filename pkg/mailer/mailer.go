package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message - письмо с PDF-вложением.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	PDFFilename string
	PDFBytes    []byte
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type MailerInterface interface {
	SendEmailWithPDF(ctx context.Context, msg Message) (string, error)
}

type SMTPMailer struct {
	cfg    Config
	logger *zap.Logger
}

func NewSMTPMailer(cfg Config, logger *zap.Logger) MailerInterface {
	return &SMTPMailer{cfg: cfg, logger: logger.Named("mailer")}
}

// SendEmailWithPDF отправляет письмо и возвращает его Message-ID.
func (m *SMTPMailer) SendEmailWithPDF(ctx context.Context, msg Message) (string, error) {
	if m.cfg.Host == "" {
		return "", fmt.Errorf("SMTP не настроен")
	}

	email, messageID, err := buildMessage(m.cfg.From, msg)
	if err != nil {
		return "", err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("не удалось создать SMTP-клиент: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return "", fmt.Errorf("ошибка отправки письма: %w", err)
	}

	m.logger.Info("Письмо отправлено",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("messageId", messageID),
	)
	return messageID, nil
}

func buildMessage(from string, msg Message) (*mail.Msg, string, error) {
	if len(msg.To) == 0 {
		return nil, "", fmt.Errorf("не указан получатель письма")
	}

	email := mail.NewMsg()
	if err := email.From(from); err != nil {
		return nil, "", fmt.Errorf("некорректный адрес отправителя: %w", err)
	}
	if err := email.To(msg.To...); err != nil {
		return nil, "", fmt.Errorf("некорректный адрес получателя: %w", err)
	}
	email.Subject(msg.Subject)

	messageID := uuid.NewString()
	email.SetMessageIDWithValue(messageID)

	email.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		email.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	if len(msg.PDFBytes) > 0 {
		if err := email.AttachReader(msg.PDFFilename, bytes.NewReader(msg.PDFBytes),
			mail.WithFileContentType(mail.ContentType("application/pdf"))); err != nil {
			return nil, "", fmt.Errorf("не удалось приложить отчёт: %w", err)
		}
	}
	return email, messageID, nil
}
