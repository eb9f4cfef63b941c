package models

import "time"

// Plan тарифный план. Создаётся администратором, меняется только
// флаг Active; подписки ссылаются на план по ID и никогда не копируют его.
type Plan struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	DurationDays    int       `json:"duration_days"`
	DataLimitGB     int       `json:"data_limit_gb"`
	SMSLimit        int       `json:"sms_limit"`
	TalkTimeMinutes string    `json:"talk_time_minutes"` // строка, чтобы поддержать "unlimited"
	Features        []string  `json:"features"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PagedPlans страница тарифов для публичной выдачи.
type PagedPlans struct {
	Plans       []*Plan `json:"plans"`
	CurrentPage int     `json:"current_page"`
	PageSize    int     `json:"page_size"`
	TotalItems  int     `json:"total_items"`
	TotalPages  int     `json:"total_pages"`
}
