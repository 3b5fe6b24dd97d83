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

// Ошибки валидации форм склада. Запрос на бэкенд при них не отправляется.
var (
	ErrEmptyName       = errors.New("название не заполнено")
	ErrInvalidQuantity = errors.New("количество должно быть целым числом >= 0")
)

// InventoryService управляет экраном склада: держит собственный снимок
// списка сырья и состояние редактирования. После каждой мутации список
// перечитывается целиком, оптимистичных локальных правок нет.
type InventoryService struct {
	client *clients.InventoryClient

	mu        sync.RWMutex
	materials []models.RawMaterial
	editingID *int64 // Одновременно редактируется не больше одной записи
	loadOnce  bool   // Первая загрузка уже выполнялась (для разового алерта)
}

// NewInventoryService создает сервис склада
func NewInventoryService(client *clients.InventoryClient) *InventoryService {
	return &InventoryService{
		client: client,
	}
}

// LoadMaterials перечитывает список сырья с бэкенда и заменяет снимок
// целиком. Ошибка транспорта не фатальна: снимок становится пустым,
// ошибка логируется и возвращается только для первой загрузки, чтобы
// показать алерт один раз.
func (is *InventoryService) LoadMaterials(ctx context.Context) ([]models.RawMaterial, error) {
	materials, err := is.client.ListMaterials(ctx)

	is.mu.Lock()
	first := !is.loadOnce
	is.loadOnce = true
	if err != nil {
		is.materials = []models.RawMaterial{}
	} else {
		is.materials = materials
	}
	snapshot := append([]models.RawMaterial(nil), is.materials...)
	is.mu.Unlock()

	if err != nil {
		log.Printf("⚠️ Склад: ошибка загрузки списка сырья: %v", err)
		if first {
			return snapshot, fmt.Errorf("не удалось подключиться к серверу: %w", err)
		}
		return snapshot, nil
	}

	log.Printf("📦 Склад: загружено %d позиций сырья", len(snapshot))
	return snapshot, nil
}

// Materials возвращает текущий снимок без похода на бэкенд
func (is *InventoryService) Materials() []models.RawMaterial {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return append([]models.RawMaterial(nil), is.materials...)
}

// validateMaterialForm проверяет поля формы до отправки запроса
func validateMaterialForm(name, quantityStr string) (string, int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, ErrEmptyName
	}
	quantityStr = strings.TrimSpace(quantityStr)
	if quantityStr == "" {
		return "", 0, ErrInvalidQuantity
	}
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil || quantity < 0 {
		return "", 0, ErrInvalidQuantity
	}
	return name, quantity, nil
}

// CreateMaterial валидирует форму, создает сырье и перечитывает список.
// При ошибке валидации запрос не уходит, при ошибке бэкенда снимок
// остается прежним.
func (is *InventoryService) CreateMaterial(ctx context.Context, name, quantityStr string) (*models.RawMaterial, error) {
	cleanName, quantity, err := validateMaterialForm(name, quantityStr)
	if err != nil {
		return nil, err
	}

	created, err := is.client.CreateMaterial(ctx, models.RawMaterial{
		Name:          cleanName,
		StockQuantity: quantity,
	})
	if err != nil {
		log.Printf("⚠️ Склад: ошибка создания сырья %q: %v", cleanName, err)
		return nil, fmt.Errorf("ошибка сохранения: %w", err)
	}

	log.Printf("✅ Склад: создано сырье %q (остаток %d)", created.Name, created.StockQuantity)
	if _, err := is.LoadMaterials(ctx); err != nil {
		log.Printf("⚠️ Склад: список после создания не перечитан: %v", err)
	}
	return created, nil
}

// UpdateMaterial заменяет имя и остаток, закрывает режим редактирования
// и перечитывает список
func (is *InventoryService) UpdateMaterial(ctx context.Context, id int64, name, quantityStr string) (*models.RawMaterial, error) {
	cleanName, quantity, err := validateMaterialForm(name, quantityStr)
	if err != nil {
		return nil, err
	}

	updated, err := is.client.UpdateMaterial(ctx, id, models.RawMaterial{
		Name:          cleanName,
		StockQuantity: quantity,
	})
	if err != nil {
		log.Printf("⚠️ Склад: ошибка обновления сырья %d: %v", id, err)
		return nil, fmt.Errorf("ошибка сохранения: %w", err)
	}

	is.CancelEdit()
	if _, err := is.LoadMaterials(ctx); err != nil {
		log.Printf("⚠️ Склад: список после обновления не перечитан: %v", err)
	}
	return updated, nil
}

// DeleteMaterial удаляет сырье и перечитывает список. Конфликт
// (сырье входит в рецептуру) пробрасывается как ErrMaterialInUse,
// чтобы показать пользователю специфичное сообщение.
func (is *InventoryService) DeleteMaterial(ctx context.Context, id int64) error {
	if err := is.client.DeleteMaterial(ctx, id); err != nil {
		if errors.Is(err, clients.ErrMaterialInUse) {
			return err
		}
		log.Printf("⚠️ Склад: ошибка удаления сырья %d: %v", id, err)
		return fmt.Errorf("ошибка удаления: %w", err)
	}

	log.Printf("🗑️ Склад: сырье %d удалено", id)
	if _, err := is.LoadMaterials(ctx); err != nil {
		log.Printf("⚠️ Склад: список после удаления не перечитан: %v", err)
	}
	return nil
}

// StartEdit открывает режим редактирования для одной записи.
// Редактирование эксклюзивно: открытие новой записи закрывает прежнюю.
func (is *InventoryService) StartEdit(id int64) {
	is.mu.Lock()
	is.editingID = &id
	is.mu.Unlock()
}

// CancelEdit закрывает режим редактирования
func (is *InventoryService) CancelEdit() {
	is.mu.Lock()
	is.editingID = nil
	is.mu.Unlock()
}

// EditingID возвращает id редактируемой записи или nil
func (is *InventoryService) EditingID() *int64 {
	is.mu.RLock()
	defer is.mu.RUnlock()
	if is.editingID == nil {
		return nil
	}
	id := *is.editingID
	return &id
}
