package notifysender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// settingEndpoint ключ настройки приложения с URL отправителя
const settingEndpoint = "endpoint"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент отправки уведомлений через подключенные приложения со scope
// mail-send / text-message-send. Endpoint берется из настроек приложения
type Client struct {
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента отправки уведомлений
func NewClient(timeout time.Duration, log Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Send отправляет уведомление через приложение app
func (c *Client) Send(ctx context.Context, app *domain.ConnectedApp, request *SendRequest) (*SendResult, error) {
	endpoint, ok := app.Settings[settingEndpoint]
	if !ok || endpoint == "" {
		return nil, fmt.Errorf("%w: app id=%d (%s)", ErrMissingEndpoint, app.ID, app.Name)
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/send", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if !result.Success {
		reason := "unknown"
		if result.Error != nil {
			reason = *result.Error
		}
		return &result, fmt.Errorf("%w: app id=%d, reason=%s", ErrSendRejected, app.ID, reason)
	}

	c.log.Info("Notification sent via app id=%d (%s), channel=%s", app.ID, app.Name, request.Channel)
	return &result, nil
}
