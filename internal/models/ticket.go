package models

import "time"

// TicketStatus статус тикета поддержки.
type TicketStatus string

const (
	TicketNew        TicketStatus = "NEW"
	TicketAssigned   TicketStatus = "ASSIGNED"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
)

// Ticket обращение пользователя в поддержку.
// EmployeeID заполняется при назначении тикета сотруднику.
type Ticket struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    string       `json:"priority"`
	Status      TicketStatus `json:"status"`
	UserID      int64        `json:"user_id"`
	EmployeeID  *int64       `json:"employee_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
