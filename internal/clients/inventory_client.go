package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"prodcontrol/console/internal/models"
)

// InventoryClient клиент складского сервиса (сырье и остатки)
type InventoryClient struct {
	baseURL string
	client  *http.Client
}

// NewInventoryClient создает клиент складского сервиса.
// baseURL — корень API бэкенда, например http://localhost:8080/api
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListMaterials возвращает все сырье в порядке, заданном сервером
func (ic *InventoryClient) ListMaterials(ctx context.Context) ([]models.RawMaterial, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ic.baseURL+"/raw-materials", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw materials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inventory API error (status %d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var materials []models.RawMaterial
	if err := json.Unmarshal(body, &materials); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return materials, nil
}

// CreateMaterial создает сырье, ID присваивает сервер
func (ic *InventoryClient) CreateMaterial(ctx context.Context, material models.RawMaterial) (*models.RawMaterial, error) {
	payload, err := json.Marshal(material)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal material: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ic.baseURL+"/raw-materials", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw material: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("inventory API error (status %d): %s", resp.StatusCode, string(body))
	}

	var created models.RawMaterial
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &created, nil
}

// UpdateMaterial заменяет имя и остаток сырья целиком
func (ic *InventoryClient) UpdateMaterial(ctx context.Context, id int64, material models.RawMaterial) (*models.RawMaterial, error) {
	payload, err := json.Marshal(material)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal material: %w", err)
	}

	url := fmt.Sprintf("%s/raw-materials/%d", ic.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to update raw material %d: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("raw material %d: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory API error (status %d): %s", resp.StatusCode, string(body))
	}

	var updated models.RawMaterial
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &updated, nil
}

// DeleteMaterial удаляет сырье. Если сырье входит в рецептуру,
// бэкенд отвечает 409 и возвращается ErrMaterialInUse.
func (ic *InventoryClient) DeleteMaterial(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/raw-materials/%d", ic.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := ic.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete raw material %d: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		log.Printf("⚠️ Склад: сырье %d используется в рецептуре, удаление отклонено", id)
		return fmt.Errorf("raw material %d: %w", id, ErrMaterialInUse)
	case http.StatusNotFound:
		return fmt.Errorf("raw material %d: %w", id, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inventory API error (status %d): %s", resp.StatusCode, string(body))
	}
}
