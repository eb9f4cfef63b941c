// Package txid генерирует идентификаторы платёжных транзакций.
//
// Формат: TXN<yyyymmdd>-<uuid4>. Дата оставлена для удобства поиска
// по логам, уникальность обеспечивает uuid: идентификаторы не
// повторяются между рестартами и инстансами сервиса.
package txid

import (
	"time"

	"github.com/google/uuid"
)

const prefix = "TXN"

// New возвращает новый уникальный идентификатор транзакции.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt возвращает идентификатор с датной частью от переданного момента.
func NewAt(t time.Time) string {
	return prefix + t.Format("20060102") + "-" + uuid.NewString()
}
