package rabbitmq

// NotificationsExchange общий exchange почтовых уведомлений.
const NotificationsExchange = "notifications"

// Ключи маршрутизации уведомлений.
const (
	RoutingKeyWelcome = "welcome"
	RoutingKeyReceipt = "receipt"
)

// QueueConfig пара очередь/ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает notification-sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.welcome", RoutingKey: RoutingKeyWelcome},
		{QueueName: "notifications.receipt", RoutingKey: RoutingKeyReceipt},
	}
}
