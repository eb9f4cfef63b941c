// Package jwt реализует выпуск и разбор JWT токенов с claim-полями FutureWave.
//
// Maker описывает интерфейс для выпуска и проверки токенов, MakerImpl —
// реализация на симметричном ключе HS256. Ключ общий для всех сервисов
// и приходит из конфига.
package jwt

import (
	"log/slog"
	"time"
)

// Maker описывает интерфейс для выпуска и разбора JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен с subject = id пользователя,
	// email и списком ролей в claims.
	GenerateToken(userID int64, email string, roles []string) (string, error)
	// ParseToken разбирает токен и возвращает claims либо ошибку.
	ParseToken(tokenStr string) (*Claims, error)
	// Validate возвращает false при любой ошибке разбора, не пробрасывая её.
	Validate(tokenStr string) bool
	// DecodeClaims возвращает claims либо nil, если разбор не удался.
	DecodeClaims(tokenStr string) *Claims
}

// MakerImpl реализует Maker на секретном ключе и TTL токена.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	log       *slog.Logger
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, ttl time.Duration, log *slog.Logger) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		log:       log,
	}
}
