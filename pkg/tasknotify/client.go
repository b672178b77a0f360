package tasknotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Payload - тело уведомления внешней системы задач о завершённом осмотре.
// Осмотр под отгрузку может прийти без taskId, только с freightId.
type Payload struct {
	TaskID          string    `json:"taskId,omitempty"`
	FreightID       string    `json:"freightId,omitempty"`
	InspectionID    uint64    `json:"inspectionId"`
	EquipmentStatus string    `json:"equipmentStatus"`
	CompletedAt     time.Time `json:"completedAt"`
}

type NotifierInterface interface {
	Notify(ctx context.Context, p Payload) error
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *zap.Logger
}

func New(endpoint, token string, timeout time.Duration, logger *zap.Logger) NotifierInterface {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		token:      token,
		logger:     logger.Named("tasknotify"),
	}
}

func (c *Client) Notify(ctx context.Context, p Payload) error {
	if c.endpoint == "" {
		c.logger.Debug("Адрес системы задач не настроен, уведомление пропущено", zap.Uint64("inspectionID", p.InspectionID))
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки уведомления по осмотру %d: %w", p.InspectionID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("система задач вернула статус: %s", resp.Status)
	}
	return nil
}
