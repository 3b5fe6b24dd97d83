package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prodcontrol/console/internal/clients"
	"prodcontrol/console/internal/services"
)

// InventoryController управляет API endpoints экрана склада
type InventoryController struct {
	inventoryService *services.InventoryService
}

// NewInventoryController создает контроллер склада
func NewInventoryController(inventoryService *services.InventoryService) *InventoryController {
	return &InventoryController{
		inventoryService: inventoryService,
	}
}

// GetMaterials возвращает список сырья (перечитывает с бэкенда)
// GET /api/v1/inventory/materials
func (ic *InventoryController) GetMaterials(c *gin.Context) {
	materials, err := ic.inventoryService.LoadMaterials(c.Request.Context())

	// Сбой первой загрузки показываем один раз, дальше отдаем
	// пустой/прежний список без экрана ошибки
	response := gin.H{
		"materials": materials,
		"count":     len(materials),
	}
	if id := ic.inventoryService.EditingID(); id != nil {
		response["editing_id"] = *id
	}
	if err != nil {
		response["alert"] = "Не удалось подключиться к серверу!"
	}

	c.JSON(http.StatusOK, response)
}

// CreateMaterial создает сырье
// POST /api/v1/inventory/materials
func (ic *InventoryController) CreateMaterial(c *gin.Context) {
	var request struct {
		Name          string `json:"name"`
		StockQuantity string `json:"stockQuantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	created, err := ic.inventoryService.CreateMaterial(c.Request.Context(), request.Name, request.StockQuantity)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrEmptyName) || errors.Is(err, services.ErrInvalidQuantity) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Ошибка создания сырья",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateMaterial заменяет имя и остаток сырья
// PUT /api/v1/inventory/materials/:id
func (ic *InventoryController) UpdateMaterial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID сырья не указан",
		})
		return
	}

	var request struct {
		Name          string `json:"name"`
		StockQuantity string `json:"stockQuantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	updated, err := ic.inventoryService.UpdateMaterial(c.Request.Context(), id, request.Name, request.StockQuantity)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrInvalidQuantity):
			status = http.StatusBadRequest
		case errors.Is(err, clients.ErrNotFound):
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Ошибка обновления сырья",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteMaterial удаляет сырье. Конфликт (сырье в рецептуре)
// отличается от прочих сбоев и статусом, и сообщением.
// DELETE /api/v1/inventory/materials/:id
func (ic *InventoryController) DeleteMaterial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID сырья не указан",
		})
		return
	}

	if err := ic.inventoryService.DeleteMaterial(c.Request.Context(), id); err != nil {
		if errors.Is(err, clients.ErrMaterialInUse) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Удаление невозможно: сырье используется в рецептуре",
				"details": err.Error(),
			})
			return
		}
		if errors.Is(err, clients.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Сырье не найдено",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Ошибка удаления сырья",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Сырье успешно удалено",
	})
}

// StartEdit открывает режим редактирования записи (эксклюзивно)
// PUT /api/v1/inventory/materials/:id/edit
func (ic *InventoryController) StartEdit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID сырья не указан",
		})
		return
	}

	ic.inventoryService.StartEdit(id)
	c.JSON(http.StatusOK, gin.H{
		"editing_id": id,
	})
}

// CancelEdit закрывает режим редактирования
// DELETE /api/v1/inventory/materials/edit
func (ic *InventoryController) CancelEdit(c *gin.Context) {
	ic.inventoryService.CancelEdit()
	c.JSON(http.StatusOK, gin.H{
		"editing_id": nil,
	})
}

// ImportMaterials массовый импорт сырья из XLSX/CSV файла
// POST /api/v1/inventory/materials/import (multipart, поле "file")
func (ic *InventoryController) ImportMaterials(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Файл не передан",
			"details": err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Не удалось открыть файл",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Не удалось прочитать файл",
			"details": err.Error(),
		})
		return
	}

	report, err := ic.inventoryService.ImportMaterialsFile(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка импорта файла",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
