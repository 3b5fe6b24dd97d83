package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"prodcontrol/console/internal/models"
)

// ProductClient клиент сервиса продуктов и рецептур
type ProductClient struct {
	baseURL string
	client  *http.Client
}

// NewProductClient создает клиент сервиса продуктов
func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListProducts возвращает продукты вместе с их рецептурами
func (pc *ProductClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("product API error (status %d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return products, nil
}

// CreateProduct создает продукт без рецептуры
func (pc *ProductClient) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/products", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("product API error (status %d): %s", resp.StatusCode, string(body))
	}

	var created models.Product
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &created, nil
}

// UpdateProduct обновляет только скалярные поля (имя и цену),
// рецептура этим вызовом не затрагивается
func (pc *ProductClient) UpdateProduct(ctx context.Context, id int64, product models.Product) (*models.Product, error) {
	product.Composition = nil

	payload, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	reqURL := fmt.Sprintf("%s/products/%d", pc.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product API error (status %d): %s", resp.StatusCode, string(body))
	}

	var updated models.Product
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &updated, nil
}

// DeleteProduct удаляет продукт вместе с его рецептурой
func (pc *ProductClient) DeleteProduct(ctx context.Context, id int64) error {
	reqURL := fmt.Sprintf("%s/products/%d", pc.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("product API error (status %d): %s", resp.StatusCode, string(body))
	}
}

// AddComposition добавляет позицию рецептуры: продукт id потребляет
// quantity единиц сырья materialId. Параметры передаются в query string,
// тело пустое, но Content-Type обязан быть application/json — бэкенд
// отклоняет запросы с другим типом.
func (pc *ProductClient) AddComposition(ctx context.Context, productID, materialID int64, quantity int) error {
	params := url.Values{}
	params.Set("materialId", strconv.FormatInt(materialID, 10))
	params.Set("quantity", strconv.Itoa(quantity))

	reqURL := fmt.Sprintf("%s/products/%d/composition?%s", pc.baseURL, productID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to add composition for product %d: %w", productID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("product %d or material %d: %w", productID, materialID, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("product API error (status %d): %s", resp.StatusCode, string(body))
	}
}

// RemoveComposition удаляет ровно одну позицию рецептуры
func (pc *ProductClient) RemoveComposition(ctx context.Context, productID, materialID int64) error {
	reqURL := fmt.Sprintf("%s/products/%d/composition/%d", pc.baseURL, productID, materialID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to remove composition for product %d: %w", productID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("composition %d/%d: %w", productID, materialID, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("product API error (status %d): %s", resp.StatusCode, string(body))
	}
}
