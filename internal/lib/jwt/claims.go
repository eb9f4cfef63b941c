package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/futurewave/telecom-backend/internal/lib/sl"
)

// Claims описывает данные, хранящиеся в JWT.
//
// Subject стандартного набора несёт id пользователя строкой,
// Email и Roles — пользовательские поля.
type Claims struct {
	Email                string   `json:"email"`
	Roles                []string `json:"roles"`
	jwt.RegisteredClaims          // ExpiresAt, IssuedAt, Subject и пр.
}

// UserID возвращает subject токена как числовой id пользователя.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// GenerateToken выпускает токен с заданными subject, email и ролями,
// подписывая его секретным ключом. Время жизни определяется tokenTTL.
func (j *MakerImpl) GenerateToken(userID int64, email string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken разбирает токен, проверяет подпись и срок действия,
// возвращает Claims, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}

// Validate возвращает true только для корректного токена. Любая причина
// отказа (подпись, структура, срок) одинаково даёт false; конкретика
// попадает только в лог, наружу не отдаётся.
func (j *MakerImpl) Validate(tokenStr string) bool {
	if _, err := j.ParseToken(tokenStr); err != nil {
		j.log.Debug("token validation failed", sl.Err(err))
		return false
	}
	return true
}

// DecodeClaims возвращает claims токена либо nil при любой ошибке разбора.
// Вызывающий обязан трактовать nil как "не аутентифицирован".
func (j *MakerImpl) DecodeClaims(tokenStr string) *Claims {
	claims, err := j.ParseToken(tokenStr)
	if err != nil {
		j.log.Debug("failed to decode claims", sl.Err(err))
		return nil
	}
	return claims
}
