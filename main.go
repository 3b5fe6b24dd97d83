package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"prodcontrol/console/internal/api"
	"prodcontrol/console/internal/clients"
	"prodcontrol/console/internal/config"
	"prodcontrol/console/internal/services"
)

func main() {
	// Загружаем переменные окружения из .env файла (если существует)
	// Игнорируем ошибку, если файл не найден (для production окружений)
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Printf("✅ Переменные окружения загружены из .env файла")
	}

	// Загрузка конфигурации
	cfg := config.Load()
	log.Printf("📋 Бэкенд планирования: %s", cfg.BackendURL)

	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second

	// Типизированные REST клиенты внешнего бэкенда
	inventoryClient := clients.NewInventoryClient(cfg.BackendURL, timeout)
	productClient := clients.NewProductClient(cfg.BackendURL, timeout)
	planningClient := clients.NewPlanningClient(cfg.BackendURL, timeout)
	log.Println("✅ REST клиенты бэкенда инициализированы")

	// Сервисы экранов консоли
	inventoryService := services.NewInventoryService(inventoryClient)
	log.Println("✅ Inventory service initialized")

	productService := services.NewProductService(productClient)
	log.Println("✅ Product service initialized")

	planningService := services.NewPlanningService(
		planningClient,
		time.Duration(cfg.PlanPollSeconds)*time.Second,
		time.Duration(cfg.SimulationDelayMs)*time.Millisecond,
	)
	log.Println("✅ Planning service initialized")

	shellService := services.NewShellService()
	log.Println("✅ Shell service initialized")

	// WebSocket хаб дашборда планирования
	hub := api.NewHub()
	go hub.Run()
	planningService.SetHub(hub)
	log.Println("🖥️ WebSocket Hub запущен для панелей дашборда")

	// Отключаем логи gin для скорости
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Health check endpoint (должен быть до CORS)
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "Production Console",
			"version": "1.0.0",
		})
	})

	// Логирование всех запросов
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf("🌐 %s %s - Status: %d - Latency: %v", method, path, status, latency)
	})

	// CORS для фронтенда
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Контроллеры
	inventoryController := api.NewInventoryController(inventoryService)
	productController := api.NewProductController(productService, shellService)
	planningController := api.NewPlanningController(planningService, shellService)
	shellController := api.NewShellController(shellService)
	wsController := api.NewWSController(hub, planningService)

	// API routes
	apiGroup := r.Group("/api/v1")

	// Оболочка консоли
	shellGroup := apiGroup.Group("/shell")
	{
		shellGroup.GET("", shellController.GetShell)        // Активный экран и роль
		shellGroup.PUT("/screen", shellController.SetScreen) // Переключить экран
		shellGroup.PUT("/role", shellController.SetRole)     // Переключить роль
	}
	log.Println("🖥️ Shell endpoints enabled: /api/v1/shell")

	// Склад сырья
	inventoryGroup := apiGroup.Group("/inventory")
	{
		inventoryGroup.GET("/materials", inventoryController.GetMaterials)          // Список сырья
		inventoryGroup.POST("/materials", inventoryController.CreateMaterial)       // Создать сырье
		inventoryGroup.PUT("/materials/:id", inventoryController.UpdateMaterial)    // Обновить сырье
		inventoryGroup.DELETE("/materials/:id", inventoryController.DeleteMaterial) // Удалить сырье (409 при конфликте)
		inventoryGroup.PUT("/materials/:id/edit", inventoryController.StartEdit)    // Открыть редактирование
		inventoryGroup.DELETE("/materials/edit", inventoryController.CancelEdit)    // Закрыть редактирование
		inventoryGroup.POST("/materials/import", inventoryController.ImportMaterials) // Массовый импорт из XLSX/CSV
	}
	log.Println("📦 Inventory endpoints enabled: /api/v1/inventory/materials")

	// Продукты и рецептуры
	productGroup := apiGroup.Group("/products")
	{
		productGroup.GET("", productController.GetProducts)          // Список продуктов с рецептурами
		productGroup.POST("", productController.CreateProduct)       // Создать продукт
		productGroup.PUT("/:id", productController.UpdateProduct)    // Обновить имя и цену
		productGroup.DELETE("/:id", productController.DeleteProduct) // Удалить продукт (только админ)
		productGroup.PUT("/:id/expand", productController.ToggleExpand) // Аккордеон рецептуры
		productGroup.PUT("/:id/edit", productController.StartEdit)      // Открыть модалку редактирования
		productGroup.DELETE("/edit", productController.CancelEdit)      // Закрыть модалку
		productGroup.PUT("/:id/composition/form", productController.SetIngredientForm)           // Поля формы ингредиента
		productGroup.POST("/:id/composition", productController.AddIngredient)                   // Добавить ингредиент
		productGroup.DELETE("/:id/composition/:materialId", productController.RemoveIngredient)  // Удалить ингредиент
	}
	log.Println("🏭 Product endpoints enabled: /api/v1/products")

	// Дашборд планирования производства
	planningGroup := apiGroup.Group("/planning")
	{
		planningGroup.GET("/plan", planningController.GetPlan)        // Текущий снимок плана
		planningGroup.POST("/refresh", planningController.RefreshPlan) // Принудительное обновление
		planningGroup.POST("/simulate", planningController.Simulate)   // Запуск симуляции (только админ)
		planningGroup.GET("/simulation", planningController.GetSimulation)       // Состояние симуляции
		planningGroup.DELETE("/simulation", planningController.DismissSimulation) // Закрыть отчет
		planningGroup.GET("/ws", wsController.ServeDashboardWS)        // WebSocket панели дашборда
	}
	log.Println("📈 Planning endpoints enabled: /api/v1/planning")

	// Запуск на порту из конфига
	port := cfg.ServerPort
	if port == "" {
		port = os.Getenv("PORT")
		if port == "" {
			port = "8090"
		}
	}

	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📡 API доступен на http://0.0.0.0:%s/api/v1", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
