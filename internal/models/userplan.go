package models

import "time"

// PlanStatus статус подписки пользователя на тарифный план.
type PlanStatus string

const (
	// StatusUpcoming подписка оплачена, но начнётся после окончания текущей.
	StatusUpcoming PlanStatus = "UPCOMING"
	// StatusActive действующая подписка, не больше одной на пользователя.
	StatusActive PlanStatus = "ACTIVE"
	// StatusExpired завершённая подписка, дальше не меняется.
	StatusExpired PlanStatus = "EXPIRED"
)

// UserPlan подписка пользователя на тарифный план.
//
// Инварианты: у пользователя не больше одной ACTIVE подписки, суммарно
// ACTIVE+UPCOMING не больше двух; EndDate = StartDate + срок тарифа в днях;
// ссылка на план после создания не меняется.
type UserPlan struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	PlanID    string     `json:"plan_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Status    PlanStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserPlanView подписка вместе с краткими данными тарифа для выдачи наружу.
type UserPlanView struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	PlanID    string     `json:"plan_id"`
	PlanName  string     `json:"plan_name"`
	Price     float64    `json:"price"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Status    PlanStatus `json:"status"`
}

// PlanUsage снимок потребления по активной подписке.
// Значения Data/SMS симулируются, см. services/usage.
type PlanUsage struct {
	TotalDataUsed   float64 `json:"total_data_used"`
	TotalSMSUsed    float64 `json:"total_sms_used"`
	TotalTalkUsed   float64 `json:"total_talk_time_used"`
	DataLimitGB     int     `json:"data_limit_gb"`
	SMSLimit        int     `json:"sms_limit"`
	TalkTimeMinutes string  `json:"talk_time_minutes"`
	UsagePercentage float64 `json:"usage_percentage"`
	RemainingDays   int     `json:"remaining_days"`
	Status          string  `json:"status"`
}
