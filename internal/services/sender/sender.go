// Package sender отправляет почтовые уведомления по событиям из очереди.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/lib/smtp"
	"github.com/futurewave/telecom-backend/internal/models"
)

// Service читает события уведомлений и рассылает письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendWelcome отправляет приветственное письмо новому пользователю.
func (s *Service) SendWelcome(body []byte) error {
	var event models.WelcomeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal welcome event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Добро пожаловать в FutureWave"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаш аккаунт создан. Выберите тариф в каталоге и подключите подписку.",
		event.FirstName)

	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

// SendReceipt отправляет чек об успешном платеже.
func (s *Service) SendReceipt(body []byte) error {
	var event models.PaymentReceipt
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal payment receipt", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Чек об оплате тарифа"
	bodyText := fmt.Sprintf("Платёж принят.\n\nНомер транзакции: %s\nСумма: %.2f\nДата: %s",
		event.TransactionID, event.Amount, event.PaidAt.Format("02.01.2006 15:04"))

	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to))
	return nil
}
