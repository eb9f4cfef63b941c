// Package models содержит доменные структуры сервисов FutureWave:
// пользователей, тарифные планы, подписки, платежи и тикеты поддержки.
package models

import "time"

// Роли пользователей. Хранятся строкой, сравниваются без учёта регистра.
const (
	RoleUser     = "USER"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// User представляет зарегистрированного пользователя системы.
// Email и Mobile глобально уникальны.
type User struct {
	ID               int64
	Email            string
	PasswordHash     string
	Mobile           string
	Role             string
	FirstName        string
	LastName         string
	AlternatePhone   string
	Address          string
	SecurityQuestion string
	SecurityAnswer   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserDTO данные пользователя без секретов, отдаются наружу.
type UserDTO struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Mobile         string `json:"mobile"`
	Role           string `json:"role"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	AlternatePhone string `json:"alternate_phone,omitempty"`
	Address        string `json:"address,omitempty"`
}

// WelcomeEvent событие для очереди уведомлений о регистрации.
type WelcomeEvent struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// ToDTO конвертирует пользователя в безопасное для выдачи представление.
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		Mobile:         u.Mobile,
		Role:           u.Role,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		AlternatePhone: u.AlternatePhone,
		Address:        u.Address,
	}
}
