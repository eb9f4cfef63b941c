// Package plans содержит HTTP-клиент plan-сервиса для межсервисной
// валидации тарифов.
package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/futurewave/telecom-backend/internal/errs"
)

const serviceName = "plan-service"

// Client клиент plan-сервиса.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт клиент plan-сервиса с таймаутом на запрос.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ValidatePlan проверяет существование тарифа.
func (c *Client) ValidatePlan(ctx context.Context, planID string) (bool, error) {
	const op = "clients.plans.ValidatePlan"

	endpoint := fmt.Sprintf("%s/plans/validate-plan/%s", c.baseURL, url.PathEscape(planID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, errs.Unavailable(serviceName, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("%s: %w", op, errs.Unavailable(serviceName,
			fmt.Errorf("unexpected status %d", resp.StatusCode)))
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var result bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
