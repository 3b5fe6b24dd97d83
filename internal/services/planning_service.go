package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prodcontrol/console/internal/clients"
	"prodcontrol/console/internal/models"
)

// SimulationState состояние машины симуляции
type SimulationState string

const (
	SimulationIdle    SimulationState = "idle"
	SimulationRunning SimulationState = "running"
	SimulationResult  SimulationState = "result"
)

// Ошибки предусловий симуляции
var (
	ErrSimulationRunning  = errors.New("симуляция уже выполняется")
	ErrReportNotDismissed = errors.New("отчет предыдущей симуляции не закрыт")
	ErrEmptyPlan          = errors.New("план пуст, симулировать нечего")
)

// SimulationDisclaimer обязательная пометка в отчете: симуляция
// ничего не меняет в реальных остатках
const SimulationDisclaimer = "Это симуляция. Реальные остатки сырья на складе не изменены."

// PlanBroadcaster получатель обновлений плана (WebSocket хаб дашборда)
type PlanBroadcaster interface {
	BroadcastMessage(message []byte)
}

// PlanSnapshot снимок плана для выдачи наружу и рассылки в хаб
type PlanSnapshot struct {
	Suggestions   []models.SuggestionShare `json:"suggestions"`
	MaterialUsage []models.MaterialUsage   `json:"materialUsage"`
	TotalRevenue  float64                  `json:"totalRevenue"`
	FetchedAt     *time.Time               `json:"fetchedAt,omitempty"`
}

// PlanningService держит живое представление производственного плана.
// План считается внешним сервисом и заменяется целиком при каждом
// обновлении; частичные результаты не показываются. Поверх снимка
// сервис считает доли выручки и выполняет локальную симуляцию,
// не трогающую авторитетные данные.
type PlanningService struct {
	client       *clients.PlanningClient
	hub          PlanBroadcaster
	pollInterval time.Duration
	simDelay     time.Duration

	mu         sync.Mutex
	plan       models.ProductionPlan
	fetchedAt  *time.Time
	reqSeq     uint64 // Номер последнего выданного запроса
	appliedSeq uint64 // Номер запроса, чей ответ применен к снимку

	simState SimulationState
	report   *models.SimulationReport

	subscribers int
	pollCancel  context.CancelFunc
}

// NewPlanningService создает сервис планирования
func NewPlanningService(client *clients.PlanningClient, pollInterval, simDelay time.Duration) *PlanningService {
	return &PlanningService{
		client:       client,
		pollInterval: pollInterval,
		simDelay:     simDelay,
		simState:     SimulationIdle,
	}
}

// SetHub подключает хаб дашборда для рассылки обновлений плана
func (pls *PlanningService) SetHub(hub PlanBroadcaster) {
	pls.hub = hub
}

// Refresh запрашивает план и заменяет снимок целиком. Ответ
// отбрасывается, если после его отправки был выдан более новый запрос:
// перекрывающиеся тики не упорядочены, применяется только самый свежий.
func (pls *PlanningService) Refresh(ctx context.Context) error {
	pls.mu.Lock()
	pls.reqSeq++
	seq := pls.reqSeq
	pls.mu.Unlock()

	plan, err := pls.client.GetPlan(ctx)
	if err != nil {
		return fmt.Errorf("ошибка обновления плана: %w", err)
	}

	now := time.Now()

	pls.mu.Lock()
	if seq < pls.reqSeq || seq <= pls.appliedSeq {
		// Пока ждали ответ, был выдан более новый запрос — этот ответ
		// устарел и к снимку не применяется
		pls.mu.Unlock()
		log.Printf("⏭️ План: устаревший ответ #%d отброшен (текущий запрос #%d)", seq, pls.reqSeq)
		return nil
	}
	pls.plan = *plan
	pls.fetchedAt = &now
	pls.appliedSeq = seq
	pls.mu.Unlock()

	log.Printf("📈 План: обновлен (%d позиций, выручка %.2f)", len(plan.Suggestions), plan.TotalRevenue)
	return nil
}

// Snapshot возвращает текущий план с долями выручки по позициям
func (pls *PlanningService) Snapshot() PlanSnapshot {
	pls.mu.Lock()
	plan := pls.plan
	fetchedAt := pls.fetchedAt
	pls.mu.Unlock()

	return PlanSnapshot{
		Suggestions:   revenueShares(plan),
		MaterialUsage: plan.MaterialUsage,
		TotalRevenue:  plan.TotalRevenue,
		FetchedAt:     fetchedAt,
	}
}

// revenueShares считает долю каждой позиции в общей выручке.
// При нулевой выручке доли равны нулю: деления на ноль и NaN нет.
func revenueShares(plan models.ProductionPlan) []models.SuggestionShare {
	shares := make([]models.SuggestionShare, 0, len(plan.Suggestions))
	total := decimal.NewFromFloat(plan.TotalRevenue)

	for _, s := range plan.Suggestions {
		share := 0.0
		if !total.IsZero() {
			share = decimal.NewFromFloat(s.TotalValue).Div(total).InexactFloat64()
		}
		shares = append(shares, models.SuggestionShare{
			ProductionSuggestion: s,
			RevenueShare:         share,
		})
	}
	return shares
}

// SimulationStatus возвращает состояние машины симуляции и отчет,
// если он готов
func (pls *PlanningService) SimulationStatus() (SimulationState, *models.SimulationReport) {
	pls.mu.Lock()
	defer pls.mu.Unlock()
	return pls.simState, pls.report
}

// Simulate запускает локальную симуляцию выполнения плана.
// В running можно попасть только из idle: пока симуляция в полете или
// ее отчет не закрыт, повторный запуск отклоняется; отмены нет.
// Расчет идет по уже загруженному снимку: ни одного сетевого вызова,
// ни одной мутации. Минимальная длительность гарантируется таймером —
// при замене заглушки на реальный вызов машина состояний не изменится.
func (pls *PlanningService) Simulate() error {
	pls.mu.Lock()
	switch pls.simState {
	case SimulationRunning:
		pls.mu.Unlock()
		return ErrSimulationRunning
	case SimulationResult:
		pls.mu.Unlock()
		return ErrReportNotDismissed
	}
	if len(pls.plan.Suggestions) == 0 {
		pls.mu.Unlock()
		return ErrEmptyPlan
	}
	// Снимок фиксируется на входе: обновления плана по таймеру
	// не влияют на уже запущенный расчет
	plan := pls.plan
	pls.simState = SimulationRunning
	pls.report = nil
	pls.mu.Unlock()

	log.Printf("🧪 Симуляция: запущена (%d позиций плана)", len(plan.Suggestions))

	go func() {
		timer := time.NewTimer(pls.simDelay)
		defer timer.Stop()

		totalUnits := 0
		for _, s := range plan.Suggestions {
			totalUnits += s.Quantity
		}

		<-timer.C

		report := &models.SimulationReport{
			ID:           uuid.New().String(),
			ProductTypes: len(plan.Suggestions),
			TotalUnits:   totalUnits,
			TotalProfit:  plan.TotalRevenue,
			Disclaimer:   SimulationDisclaimer,
			FinishedAt:   time.Now(),
		}

		pls.mu.Lock()
		pls.simState = SimulationResult
		pls.report = report
		pls.mu.Unlock()

		log.Printf("🧪 Симуляция %s: %d видов продукции, %d единиц, прибыль %.2f",
			report.ID, report.ProductTypes, report.TotalUnits, report.TotalProfit)
	}()

	return nil
}

// DismissReport закрывает отчет и возвращает машину в idle
func (pls *PlanningService) DismissReport() {
	pls.mu.Lock()
	if pls.simState == SimulationResult {
		pls.simState = SimulationIdle
		pls.report = nil
	}
	pls.mu.Unlock()
}

// Subscribe регистрирует подписчика дашборда. Первый подписчик
// запускает цикл опроса плана.
func (pls *PlanningService) Subscribe() {
	pls.mu.Lock()
	pls.subscribers++
	start := pls.subscribers == 1 && pls.pollCancel == nil
	var ctx context.Context
	if start {
		ctx, pls.pollCancel = context.WithCancel(context.Background())
	}
	count := pls.subscribers
	pls.mu.Unlock()

	if start {
		go pls.pollLoop(ctx)
		log.Printf("⏰ План: цикл опроса запущен (каждые %v)", pls.pollInterval)
	}
	log.Printf("🖥️ Дашборд: подписчик добавлен, всего %d", count)
}

// Unsubscribe снимает подписчика. Последний останавливает цикл опроса:
// таймер гасится детерминированно, осиротевших тикеров не остается.
func (pls *PlanningService) Unsubscribe() {
	pls.mu.Lock()
	if pls.subscribers > 0 {
		pls.subscribers--
	}
	stop := pls.subscribers == 0 && pls.pollCancel != nil
	var cancel context.CancelFunc
	if stop {
		cancel = pls.pollCancel
		pls.pollCancel = nil
	}
	count := pls.subscribers
	pls.mu.Unlock()

	if stop {
		cancel()
		log.Printf("⏰ План: цикл опроса остановлен (подписчиков нет)")
	}
	log.Printf("🖥️ Дашборд: подписчик отключен, осталось %d", count)
}

// pollLoop опрашивает сервис планирования, пока жив контекст.
// Ответ, пришедший после отмены, не применяется: контекст обрывает
// запрос, а сторож reqSeq отбрасывает перегнанные ответы.
func (pls *PlanningService) pollLoop(ctx context.Context) {
	pls.refreshTick(ctx)

	ticker := time.NewTicker(pls.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pls.refreshTick(ctx)
		}
	}
}

// refreshTick фоновое обновление: ошибка только логируется,
// дашборд продолжает показывать прежний снимок
func (pls *PlanningService) refreshTick(ctx context.Context) {
	if err := pls.Refresh(ctx); err != nil {
		log.Printf("⚠️ План: тик опроса не удался: %v", err)
		return
	}
	pls.broadcast()
}

// broadcast рассылает свежий снимок подписчикам дашборда
func (pls *PlanningService) broadcast() {
	if pls.hub == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{
		"type": "plan",
		"plan": pls.Snapshot(),
	})
	if err != nil {
		log.Printf("⚠️ План: ошибка сериализации снимка: %v", err)
		return
	}
	pls.hub.BroadcastMessage(msg)
}
