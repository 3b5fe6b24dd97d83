package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"prodcontrol/console/internal/clients"
	"prodcontrol/console/internal/models"
)

// Ошибки валидации рецептуры
var (
	ErrNoMaterialSelected = errors.New("сырье не выбрано")
	ErrBadLinkQuantity    = errors.New("количество должно быть целым числом > 0")
	ErrInvalidValue       = errors.New("цена должна быть числом >= 0")
)

// ProductService управляет экраном продуктов и целостностью рецептур.
// Снимок продуктов, как и на складе, заменяется целиком после каждой
// мутации: счетчик позиций рецептуры всегда отражает состояние сервера.
type ProductService struct {
	client *clients.ProductClient

	mu         sync.RWMutex
	products   []models.Product
	expandedID *int64 // Аккордеон: раскрыта максимум одна строка
	editingID  *int64 // Модалка редактирования, независима от аккордеона

	// Транзиентные поля формы "добавить ингредиент" раскрытой строки
	selectedMaterialID *int64
	linkQuantity       string
}

// NewProductService создает сервис продуктов
func NewProductService(client *clients.ProductClient) *ProductService {
	return &ProductService{
		client: client,
	}
}

// LoadProducts перечитывает продукты с рецептурами и заменяет снимок.
// Фоновая ошибка загрузки логируется, снимок становится пустым.
func (ps *ProductService) LoadProducts(ctx context.Context) ([]models.Product, error) {
	products, err := ps.client.ListProducts(ctx)
	if err != nil {
		log.Printf("⚠️ Продукты: ошибка загрузки списка: %v", err)
		ps.mu.Lock()
		ps.products = []models.Product{}
		ps.mu.Unlock()
		return []models.Product{}, nil
	}

	ps.mu.Lock()
	ps.products = products
	snapshot := append([]models.Product(nil), ps.products...)
	ps.mu.Unlock()

	log.Printf("🏭 Продукты: загружено %d позиций", len(snapshot))
	return snapshot, nil
}

// Products возвращает текущий снимок
func (ps *ProductService) Products() []models.Product {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return append([]models.Product(nil), ps.products...)
}

// Product возвращает продукт из снимка по id
func (ps *ProductService) Product(id int64) (*models.Product, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for i := range ps.products {
		if ps.products[i].ID != nil && *ps.products[i].ID == id {
			p := ps.products[i]
			return &p, true
		}
	}
	return nil, false
}

// validateProductForm проверяет поля формы продукта
func validateProductForm(name, valueStr string) (string, float64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, ErrEmptyName
	}
	valueStr = strings.TrimSpace(valueStr)
	if valueStr == "" {
		return "", 0, ErrInvalidValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value < 0 {
		return "", 0, ErrInvalidValue
	}
	return name, value, nil
}

// CreateProduct валидирует форму, создает продукт и перечитывает список
func (ps *ProductService) CreateProduct(ctx context.Context, name, valueStr string) (*models.Product, error) {
	cleanName, value, err := validateProductForm(name, valueStr)
	if err != nil {
		return nil, err
	}

	created, err := ps.client.CreateProduct(ctx, models.Product{
		Name:  cleanName,
		Value: value,
	})
	if err != nil {
		log.Printf("⚠️ Продукты: ошибка создания %q: %v", cleanName, err)
		return nil, fmt.Errorf("ошибка сохранения: %w", err)
	}

	log.Printf("✅ Продукты: создан %q (цена %.2f)", created.Name, created.Value)
	if _, err := ps.LoadProducts(ctx); err != nil {
		log.Printf("⚠️ Продукты: список после создания не перечитан: %v", err)
	}
	return created, nil
}

// UpdateProduct обновляет имя и цену, рецептура не затрагивается
func (ps *ProductService) UpdateProduct(ctx context.Context, id int64, name, valueStr string) (*models.Product, error) {
	cleanName, value, err := validateProductForm(name, valueStr)
	if err != nil {
		return nil, err
	}

	updated, err := ps.client.UpdateProduct(ctx, id, models.Product{
		Name:  cleanName,
		Value: value,
	})
	if err != nil {
		log.Printf("⚠️ Продукты: ошибка обновления %d: %v", id, err)
		return nil, fmt.Errorf("ошибка сохранения: %w", err)
	}

	ps.mu.Lock()
	ps.editingID = nil
	ps.mu.Unlock()

	if _, err := ps.LoadProducts(ctx); err != nil {
		log.Printf("⚠️ Продукты: список после обновления не перечитан: %v", err)
	}
	return updated, nil
}

// DeleteProduct удаляет продукт и перечитывает список.
// Гейт по роли администратора проверяет контроллер.
func (ps *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := ps.client.DeleteProduct(ctx, id); err != nil {
		log.Printf("⚠️ Продукты: ошибка удаления %d: %v", id, err)
		return fmt.Errorf("ошибка удаления: %w", err)
	}

	ps.mu.Lock()
	if ps.expandedID != nil && *ps.expandedID == id {
		ps.expandedID = nil
	}
	ps.mu.Unlock()

	log.Printf("🗑️ Продукты: продукт %d удален", id)
	if _, err := ps.LoadProducts(ctx); err != nil {
		log.Printf("⚠️ Продукты: список после удаления не перечитан: %v", err)
	}
	return nil
}

// AddIngredient добавляет позицию рецептуры раскрытого продукта.
// Требуются выбранное сырье и положительное целое количество; при
// успехе транзиентные поля формы очищаются и список перечитывается.
// Ошибка бэкенда пробрасывается наверх как алерт: это запись,
// критичная для целостности данных, молчаливый лог здесь недостаточен.
func (ps *ProductService) AddIngredient(ctx context.Context, productID int64, materialIDStr, quantityStr string) error {
	// Пустые поля запроса добираются из сохраненной формы раскрытой строки
	ps.mu.RLock()
	if strings.TrimSpace(materialIDStr) == "" && ps.selectedMaterialID != nil {
		materialIDStr = strconv.FormatInt(*ps.selectedMaterialID, 10)
	}
	if strings.TrimSpace(quantityStr) == "" {
		quantityStr = ps.linkQuantity
	}
	ps.mu.RUnlock()

	materialIDStr = strings.TrimSpace(materialIDStr)
	if materialIDStr == "" {
		return ErrNoMaterialSelected
	}
	materialID, err := strconv.ParseInt(materialIDStr, 10, 64)
	if err != nil {
		return ErrNoMaterialSelected
	}

	quantityStr = strings.TrimSpace(quantityStr)
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil || quantity <= 0 {
		return ErrBadLinkQuantity
	}

	if err := ps.client.AddComposition(ctx, productID, materialID, quantity); err != nil {
		log.Printf("❌ Рецептура: ошибка добавления сырья %d к продукту %d: %v", materialID, productID, err)
		return fmt.Errorf("ошибка сохранения ингредиента: %w", err)
	}

	ps.mu.Lock()
	ps.selectedMaterialID = nil
	ps.linkQuantity = ""
	ps.mu.Unlock()

	log.Printf("✅ Рецептура: продукт %d, сырье %d x%d добавлено", productID, materialID, quantity)
	if _, err := ps.LoadProducts(ctx); err != nil {
		log.Printf("⚠️ Рецептура: список после добавления не перечитан: %v", err)
	}
	return nil
}

// RemoveIngredient удаляет ровно одну позицию рецептуры и перечитывает список
func (ps *ProductService) RemoveIngredient(ctx context.Context, productID, materialID int64) error {
	if err := ps.client.RemoveComposition(ctx, productID, materialID); err != nil {
		log.Printf("⚠️ Рецептура: ошибка удаления сырья %d из продукта %d: %v", materialID, productID, err)
		return fmt.Errorf("ошибка удаления ингредиента: %w", err)
	}

	log.Printf("🗑️ Рецептура: продукт %d, сырье %d удалено из состава", productID, materialID)
	if _, err := ps.LoadProducts(ctx); err != nil {
		log.Printf("⚠️ Рецептура: список после удаления не перечитан: %v", err)
	}
	return nil
}

// ToggleExpand управляет аккордеоном: раскрытие строки сворачивает
// прежнюю, повторное раскрытие той же строки сворачивает ее.
// Возвращает id раскрытой строки или nil.
func (ps *ProductService) ToggleExpand(id int64) *int64 {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.expandedID != nil && *ps.expandedID == id {
		ps.expandedID = nil
		ps.selectedMaterialID = nil
		ps.linkQuantity = ""
		return nil
	}
	ps.expandedID = &id
	ps.selectedMaterialID = nil
	ps.linkQuantity = ""
	out := id
	return &out
}

// SetIngredientForm сохраняет выбор формы "добавить ингредиент"
// раскрытой строки: выбранное сырье и введенное количество.
// Количество хранится как строка до отправки, как и в полях ввода.
func (ps *ProductService) SetIngredientForm(materialIDStr, quantityStr string) error {
	materialIDStr = strings.TrimSpace(materialIDStr)

	var selected *int64
	if materialIDStr != "" {
		materialID, err := strconv.ParseInt(materialIDStr, 10, 64)
		if err != nil {
			return ErrNoMaterialSelected
		}
		selected = &materialID
	}

	ps.mu.Lock()
	ps.selectedMaterialID = selected
	ps.linkQuantity = strings.TrimSpace(quantityStr)
	ps.mu.Unlock()
	return nil
}

// IngredientForm возвращает сохраненные поля формы раскрытой строки
func (ps *ProductService) IngredientForm() (*int64, string) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if ps.selectedMaterialID == nil {
		return nil, ps.linkQuantity
	}
	id := *ps.selectedMaterialID
	return &id, ps.linkQuantity
}

// ExpandedID возвращает id раскрытой строки или nil
func (ps *ProductService) ExpandedID() *int64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if ps.expandedID == nil {
		return nil
	}
	id := *ps.expandedID
	return &id
}

// StartEdit открывает модалку редактирования (эксклюзивно, независимо
// от состояния аккордеона)
func (ps *ProductService) StartEdit(id int64) {
	ps.mu.Lock()
	ps.editingID = &id
	ps.mu.Unlock()
}

// CancelEdit закрывает модалку редактирования
func (ps *ProductService) CancelEdit() {
	ps.mu.Lock()
	ps.editingID = nil
	ps.mu.Unlock()
}

// EditingID возвращает id редактируемого продукта или nil
func (ps *ProductService) EditingID() *int64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if ps.editingID == nil {
		return nil
	}
	id := *ps.editingID
	return &id
}
