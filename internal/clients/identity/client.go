// Package identity содержит HTTP-клиент auth-сервиса для межсервисной
// валидации пользователей и их ролей.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/futurewave/telecom-backend/internal/errs"
)

const serviceName = "auth-service"

// Client клиент auth-сервиса.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт клиент auth-сервиса с таймаутом на запрос.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ValidateUser проверяет существование пользователя.
func (c *Client) ValidateUser(ctx context.Context, userID int64) (bool, error) {
	const op = "clients.identity.ValidateUser"
	endpoint := fmt.Sprintf("%s/account/validate-user/%d", c.baseURL, userID)
	ok, err := c.getBool(ctx, endpoint)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// ValidateRole проверяет, что пользователь существует и имеет роль role.
func (c *Client) ValidateRole(ctx context.Context, userID int64, role string) (bool, error) {
	const op = "clients.identity.ValidateRole"
	endpoint := fmt.Sprintf("%s/account/validate-user/%s/%s",
		c.baseURL, strconv.FormatInt(userID, 10), url.PathEscape(role))
	ok, err := c.getBool(ctx, endpoint)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// getBool выполняет GET и читает булев ответ. Недоступность удалённого
// сервиса оборачивается в errs.Unavailable, чтобы вызывающий мог отличить
// "сервис ответил false" от "сервис не отвечает".
func (c *Client) getBool(ctx context.Context, endpoint string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errs.Unavailable(serviceName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, errs.Unavailable(serviceName,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result, nil
}
