package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prodcontrol/console/internal/clients"
	"prodcontrol/console/internal/services"
)

// ProductController управляет API endpoints экрана продуктов и рецептур
type ProductController struct {
	productService *services.ProductService
	shellService   *services.ShellService
}

// NewProductController создает контроллер продуктов
func NewProductController(productService *services.ProductService, shellService *services.ShellService) *ProductController {
	return &ProductController{
		productService: productService,
		shellService:   shellService,
	}
}

// GetProducts возвращает список продуктов с рецептурами
// GET /api/v1/products
func (pc *ProductController) GetProducts(c *gin.Context) {
	products, _ := pc.productService.LoadProducts(c.Request.Context())

	response := gin.H{
		"products": products,
		"count":    len(products),
		"is_admin": pc.shellService.IsAdmin(),
	}
	if id := pc.productService.ExpandedID(); id != nil {
		response["expanded_id"] = *id
	}
	if id := pc.productService.EditingID(); id != nil {
		response["editing_id"] = *id
	}
	if materialID, quantity := pc.productService.IngredientForm(); materialID != nil || quantity != "" {
		form := gin.H{"quantity": quantity}
		if materialID != nil {
			form["material_id"] = *materialID
		}
		response["ingredient_form"] = form
	}

	c.JSON(http.StatusOK, response)
}

// CreateProduct создает продукт (без рецептуры)
// POST /api/v1/products
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var request struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	created, err := pc.productService.CreateProduct(c.Request.Context(), request.Name, request.Value)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrEmptyName) || errors.Is(err, services.ErrInvalidValue) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Ошибка создания продукта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateProduct обновляет имя и цену, рецептура не затрагивается
// PUT /api/v1/products/:id
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}

	var request struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	updated, err := pc.productService.UpdateProduct(c.Request.Context(), id, request.Name, request.Value)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrInvalidValue):
			status = http.StatusBadRequest
		case errors.Is(err, clients.ErrNotFound):
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Ошибка обновления продукта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProduct удаляет продукт вместе с рецептурой.
// Доступно только администратору.
// DELETE /api/v1/products/:id
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if !pc.shellService.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Удаление продуктов доступно только администратору",
		})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Продукт не найден",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Ошибка удаления продукта",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Продукт успешно удален",
	})
}

// ToggleExpand раскрывает или сворачивает строку продукта (аккордеон)
// PUT /api/v1/products/:id/expand
func (pc *ProductController) ToggleExpand(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}

	expanded := pc.productService.ToggleExpand(id)
	response := gin.H{"expanded_id": nil}
	if expanded != nil {
		response["expanded_id"] = *expanded
	}
	c.JSON(http.StatusOK, response)
}

// SetIngredientForm сохраняет поля формы "добавить ингредиент"
// раскрытой строки (выбор сырья в списке, ввод количества)
// PUT /api/v1/products/:id/composition/form
func (pc *ProductController) SetIngredientForm(c *gin.Context) {
	if _, err := strconv.ParseInt(c.Param("id"), 10, 64); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}

	var request struct {
		MaterialID string `json:"materialId"`
		Quantity   string `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := pc.productService.SetIngredientForm(request.MaterialID, request.Quantity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверный выбор сырья",
			"details": err.Error(),
		})
		return
	}

	materialID, quantity := pc.productService.IngredientForm()
	form := gin.H{"quantity": quantity}
	if materialID != nil {
		form["material_id"] = *materialID
	}
	c.JSON(http.StatusOK, gin.H{"ingredient_form": form})
}

// AddIngredient добавляет позицию рецептуры. Пустые поля тела
// добираются из сохраненной формы.
// POST /api/v1/products/:id/composition
func (pc *ProductController) AddIngredient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}

	var request struct {
		MaterialID string `json:"materialId"`
		Quantity   string `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := pc.productService.AddIngredient(c.Request.Context(), id, request.MaterialID, request.Quantity); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrNoMaterialSelected) || errors.Is(err, services.ErrBadLinkQuantity) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Ошибка добавления ингредиента",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Ингредиент добавлен в рецептуру",
	})
}

// RemoveIngredient удаляет одну позицию рецептуры
// DELETE /api/v1/products/:id/composition/:materialId
func (pc *ProductController) RemoveIngredient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}
	materialID, err := strconv.ParseInt(c.Param("materialId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID сырья не указан",
		})
		return
	}

	if err := pc.productService.RemoveIngredient(c.Request.Context(), id, materialID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Ошибка удаления ингредиента",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ингредиент удален из рецептуры",
	})
}

// StartEdit открывает модалку редактирования продукта
// PUT /api/v1/products/:id/edit
func (pc *ProductController) StartEdit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ID продукта не указан",
		})
		return
	}

	pc.productService.StartEdit(id)
	c.JSON(http.StatusOK, gin.H{
		"editing_id": id,
	})
}

// CancelEdit закрывает модалку редактирования
// DELETE /api/v1/products/edit
func (pc *ProductController) CancelEdit(c *gin.Context) {
	pc.productService.CancelEdit()
	c.JSON(http.StatusOK, gin.H{
		"editing_id": nil,
	})
}
