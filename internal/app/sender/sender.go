// Package sender собирает и запускает notification-sender: потребитель
// очередей уведомлений, рассылающий письма.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/futurewave/telecom-backend/internal/config"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/lib/smtp"
	"github.com/futurewave/telecom-backend/internal/rabbitmq"
	senderservice "github.com/futurewave/telecom-backend/internal/services/sender"
)

// App инкапсулирует подключение к брокеру и сервис рассылки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New собирает notification-sender из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.New(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей очередей и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.welcome", a.senderService.SendWelcome); err != nil {
		a.logger.Error("failed to start welcome consumer", sl.Err(err))
		return err
	}
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.receipt", a.senderService.SendReceipt); err != nil {
		a.logger.Error("failed to start receipt consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
