package models

import "time"

// PaymentStatus статус платежа.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment платёж пользователя за тарифный план.
type Payment struct {
	ID            string        `json:"id"`
	UserID        int64         `json:"user_id"`
	PlanID        string        `json:"plan_id"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// PaymentReceipt событие для очереди уведомлений об успешном платеже.
type PaymentReceipt struct {
	Email         string    `json:"email"`
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}
