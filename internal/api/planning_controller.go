package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prodcontrol/console/internal/services"
)

// PlanningController управляет API endpoints дашборда планирования
type PlanningController struct {
	planningService *services.PlanningService
	shellService    *services.ShellService
}

// NewPlanningController создает контроллер планирования
func NewPlanningController(planningService *services.PlanningService, shellService *services.ShellService) *PlanningController {
	return &PlanningController{
		planningService: planningService,
		shellService:    shellService,
	}
}

// GetPlan возвращает текущий снимок плана с долями выручки
// GET /api/v1/planning/plan
func (plc *PlanningController) GetPlan(c *gin.Context) {
	state, report := plc.planningService.SimulationStatus()

	response := gin.H{
		"plan":             plc.planningService.Snapshot(),
		"simulation_state": state,
		"is_admin":         plc.shellService.IsAdmin(),
	}
	if report != nil {
		response["simulation_report"] = report
	}

	c.JSON(http.StatusOK, response)
}

// RefreshPlan принудительно обновляет снимок плана
// POST /api/v1/planning/refresh
func (plc *PlanningController) RefreshPlan(c *gin.Context) {
	if err := plc.planningService.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Ошибка обновления плана",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan": plc.planningService.Snapshot(),
	})
}

// Simulate запускает симуляцию выполнения плана.
// Доступно только администратору.
// POST /api/v1/planning/simulate
func (plc *PlanningController) Simulate(c *gin.Context) {
	if !plc.shellService.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Симуляция доступна только администратору",
		})
		return
	}

	if err := plc.planningService.Simulate(); err != nil {
		status := http.StatusConflict
		if errors.Is(err, services.ErrEmptyPlan) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Симуляция не запущена",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"simulation_state": services.SimulationRunning,
	})
}

// GetSimulation возвращает состояние машины симуляции и отчет, если готов
// GET /api/v1/planning/simulation
func (plc *PlanningController) GetSimulation(c *gin.Context) {
	state, report := plc.planningService.SimulationStatus()

	response := gin.H{
		"simulation_state": state,
	}
	if report != nil {
		response["simulation_report"] = report
	}

	c.JSON(http.StatusOK, response)
}

// DismissSimulation закрывает отчет симуляции
// DELETE /api/v1/planning/simulation
func (plc *PlanningController) DismissSimulation(c *gin.Context) {
	plc.planningService.DismissReport()
	state, _ := plc.planningService.SimulationStatus()

	c.JSON(http.StatusOK, gin.H{
		"simulation_state": state,
	})
}
