package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prodcontrol/console/internal/services"
)

// ShellController управляет состоянием оболочки консоли
type ShellController struct {
	shellService *services.ShellService
}

// NewShellController создает контроллер оболочки
func NewShellController(shellService *services.ShellService) *ShellController {
	return &ShellController{
		shellService: shellService,
	}
}

// GetShell возвращает активный экран и флаг администратора
// GET /api/v1/shell
func (sc *ShellController) GetShell(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"screen":   sc.shellService.Screen(),
		"is_admin": sc.shellService.IsAdmin(),
	})
}

// SetScreen переключает активный экран
// PUT /api/v1/shell/screen
func (sc *ShellController) SetScreen(c *gin.Context) {
	var request struct {
		Screen string `json:"screen"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	if err := sc.shellService.SetScreen(services.Screen(request.Screen)); err != nil {
		if errors.Is(err, services.ErrUnknownScreen) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Неизвестный экран",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка переключения экрана",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"screen": sc.shellService.Screen(),
	})
}

// SetRole переключает рекомендательный флаг администратора
// PUT /api/v1/shell/role
func (sc *ShellController) SetRole(c *gin.Context) {
	var request struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры запроса",
			"details": err.Error(),
		})
		return
	}

	sc.shellService.SetAdmin(request.IsAdmin)
	c.JSON(http.StatusOK, gin.H{
		"is_admin": sc.shellService.IsAdmin(),
	})
}
