package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"prodcontrol/console/internal/models"
)

// PlanningClient клиент сервиса планирования производства.
// План считается внешним алгоритмом, консоль потребляет его как есть.
type PlanningClient struct {
	baseURL string
	client  *http.Client
}

// NewPlanningClient создает клиент сервиса планирования
func NewPlanningClient(baseURL string, timeout time.Duration) *PlanningClient {
	return &PlanningClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetPlan возвращает актуальный производственный план:
// предложения по продуктам, расход сырья и общую выручку
func (plc *PlanningClient) GetPlan(ctx context.Context) (*models.ProductionPlan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, plc.baseURL+"/products/suggestion", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := plc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get production plan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("planning API error (status %d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var plan models.ProductionPlan
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &plan, nil
}
