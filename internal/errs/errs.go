// Package errs определяет типизированные доменные ошибки сервисов.
//
// Бизнес-логика возвращает ошибки этого пакета в точке обнаружения,
// а http/response транслирует их в коды состояния: NotFound - 404,
// InvalidState - 400, ErrAuthenticationFailed - 401,
// ServiceUnavailable - 503, всё остальное - 500 с обезличенным текстом.
package errs

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed неверные учётные данные.
var ErrAuthenticationFailed = errors.New("invalid credentials")

// NotFoundError сущность не найдена: пользователь, план, подписка, тикет.
type NotFoundError struct {
	Entity string
	Field  string
	Value  any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Entity, e.Field, e.Value)
}

// NotFound создает NotFoundError.
func NotFound(entity, field string, value any) error {
	return &NotFoundError{Entity: entity, Field: field, Value: value}
}

// IsNotFound сообщает, есть ли в цепочке NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidStateError нарушение бизнес-правила: превышен лимит подписок,
// отмена не-UPCOMING подписки, несовпавший секретный ответ и т.п.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// InvalidState создает InvalidStateError с готовым сообщением.
func InvalidState(msg string) error {
	return &InvalidStateError{Msg: msg}
}

// IsInvalidState сообщает, есть ли в цепочке InvalidStateError.
func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}

// ServiceUnavailableError соседний сервис недоступен на транспортном
// уровне. Отделена от NotFound: "сервис ответил false" - бизнес-ошибка,
// "сервис не ответил" - транзиентная, её можно ретраить.
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("service %s unavailable: %v", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// Unavailable создает ServiceUnavailableError.
func Unavailable(service string, err error) error {
	return &ServiceUnavailableError{Service: service, Err: err}
}

// IsUnavailable сообщает, есть ли в цепочке ServiceUnavailableError.
func IsUnavailable(err error) bool {
	var su *ServiceUnavailableError
	return errors.As(err, &su)
}
