package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"prodcontrol/console/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Разрешаем подключения с любого origin (для разработки)
		// В продакшене лучше проверять конкретные домены
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSController связывает панели дашборда с циклом опроса плана:
// опрос живет, только пока подключена хотя бы одна панель
type WSController struct {
	hub             *Hub
	planningService *services.PlanningService
}

// NewWSController создает WebSocket контроллер дашборда
func NewWSController(hub *Hub, planningService *services.PlanningService) *WSController {
	return &WSController{
		hub:             hub,
		planningService: planningService,
	}
}

// ServeDashboardWS обрабатывает подключение панели дашборда.
// GET /api/v1/planning/ws
func (wc *WSController) ServeDashboardWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ Ошибка обновления WebSocket соединения: %v", err)
		return
	}

	wc.hub.AddClient(conn)
	wc.planningService.Subscribe()
	log.Printf("🖥️ Панель дашборда подключена. Всего подключений: %d", wc.hub.GetClientsCount())

	// Обрабатываем отключение клиента: последняя панель гасит опрос
	defer func() {
		wc.hub.RemoveClient(conn)
		wc.planningService.Unsubscribe()
		log.Printf("🖥️ Панель дашборда отключена. Осталось подключений: %d", wc.hub.GetClientsCount())
	}()

	// Читаем сообщения от клиента (ping/pong для поддержания соединения)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket ошибка: %v", err)
			}
			break
		}
	}
}
