// Package usage симулирует потребление по активной подписке.
//
// Реальных счётчиков трафика нет: данные и SMS разыгрываются в диапазоне
// 10-80% от лимита тарифа, время разговоров фиксированное.
package usage

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/futurewave/telecom-backend/internal/models"
)

// Границы симулируемой доли потребления от лимита.
const (
	minUsageFraction = 0.1
	maxUsageFraction = 0.8
)

// talkTimeUsedMinutes фиксированное "потраченное" время разговоров.
const talkTimeUsedMinutes = 47.5

// Simulator генерирует снимки потребления.
type Simulator struct {
	rand *rand.Rand
}

// New создает Simulator со случайным зерном.
func New() *Simulator {
	return &Simulator{
		rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewWithSeed создает Simulator с фиксированным зерном, для тестов.
func NewWithSeed(seed uint64) *Simulator {
	return &Simulator{
		rand: rand.New(rand.NewPCG(seed, seed)),
	}
}

// fraction возвращает долю потребления в [minUsageFraction, maxUsageFraction].
func (s *Simulator) fraction() float64 {
	return minUsageFraction + s.rand.Float64()*(maxUsageFraction-minUsageFraction)
}

// round1 округляет до одного знака после запятой.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 округляет до двух знаков, половина уходит вверх.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Snapshot строит снимок потребления для активной подписки на тарифе plan.
//
// Data и SMS разыгрываются независимо и округляются до одного знака.
// Процент потребления считается по данным и округляется до двух знаков.
// Остаток дней - целое число полных суток до EndDate; отрицательный
// остаток обнуляется.
func (s *Simulator) Snapshot(plan *models.Plan, userPlan *models.UserPlan, now time.Time) models.PlanUsage {
	dataUsed := round1(s.fraction() * float64(plan.DataLimitGB))
	smsUsed := round1(s.fraction() * float64(plan.SMSLimit))

	var percentage float64
	if plan.DataLimitGB > 0 {
		percentage = round2(dataUsed / float64(plan.DataLimitGB) * 100)
	}

	remaining := int(userPlan.EndDate.Sub(now).Hours() / 24)
	if remaining < 0 {
		remaining = 0
	}

	return models.PlanUsage{
		TotalDataUsed:   dataUsed,
		TotalSMSUsed:    smsUsed,
		TotalTalkUsed:   talkTimeUsedMinutes,
		DataLimitGB:     plan.DataLimitGB,
		SMSLimit:        plan.SMSLimit,
		TalkTimeMinutes: plan.TalkTimeMinutes,
		UsagePercentage: percentage,
		RemainingDays:   remaining,
		Status:          string(userPlan.Status),
	}
}
