package services

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prodcontrol/console/internal/clients"
	"prodcontrol/console/internal/models"
)

func planJSON(plan models.ProductionPlan) []byte {
	data, _ := json.Marshal(plan)
	return data
}

func newPlanningFixture(t *testing.T, handler http.Handler, pollInterval, simDelay time.Duration) *PlanningService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := clients.NewPlanningClient(server.URL, 2*time.Second)
	return NewPlanningService(client, pollInterval, simDelay)
}

func staticPlanHandler(plan models.ProductionPlan) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(planJSON(plan))
	})
}

func TestRefreshReplacesSnapshotWholesale(t *testing.T) {
	var current atomic.Value
	current.Store(models.ProductionPlan{
		Suggestions:  []models.ProductionSuggestion{{ProductName: "Пицца", Quantity: 10, TotalValue: 100}},
		TotalRevenue: 100,
	})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(planJSON(current.Load().(models.ProductionPlan)))
	})
	svc := newPlanningFixture(t, handler, time.Minute, time.Millisecond)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := svc.Snapshot(); len(got.Suggestions) != 1 || got.TotalRevenue != 100 {
		t.Fatalf("первый снимок: %+v", got)
	}

	// Новый ответ полностью вытесняет старый, включая пропавшие позиции
	current.Store(models.ProductionPlan{
		Suggestions: []models.ProductionSuggestion{
			{ProductName: "Суп", Quantity: 5, TotalValue: 40},
			{ProductName: "Салат", Quantity: 3, TotalValue: 60},
		},
		TotalRevenue: 100,
	})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("повторный Refresh: %v", err)
	}
	got := svc.Snapshot()
	if len(got.Suggestions) != 2 {
		t.Fatalf("снимок должен заменяться целиком: %+v", got.Suggestions)
	}
	if got.Suggestions[0].ProductName != "Суп" {
		t.Errorf("порядок сервера должен сохраняться: %+v", got.Suggestions)
	}
	if got.FetchedAt == nil {
		t.Error("у примененного снимка должна быть отметка времени")
	}
}

func TestRevenueShares(t *testing.T) {
	svc := newPlanningFixture(t, staticPlanHandler(models.ProductionPlan{
		Suggestions: []models.ProductionSuggestion{
			{ProductName: "Пицца", Quantity: 10, TotalValue: 75},
			{ProductName: "Суп", Quantity: 5, TotalValue: 25},
		},
		TotalRevenue: 100,
	}), time.Minute, time.Millisecond)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got := svc.Snapshot()
	if got.Suggestions[0].RevenueShare != 0.75 {
		t.Errorf("доля первой позиции: ожидали 0.75, получили %v", got.Suggestions[0].RevenueShare)
	}
	if got.Suggestions[1].RevenueShare != 0.25 {
		t.Errorf("доля второй позиции: ожидали 0.25, получили %v", got.Suggestions[1].RevenueShare)
	}
}

func TestRevenueSharesZeroTotal(t *testing.T) {
	svc := newPlanningFixture(t, staticPlanHandler(models.ProductionPlan{
		Suggestions: []models.ProductionSuggestion{
			{ProductName: "Бесплатный", Quantity: 10, TotalValue: 0},
		},
		TotalRevenue: 0,
	}), time.Minute, time.Millisecond)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got := svc.Snapshot()
	share := got.Suggestions[0].RevenueShare
	if math.IsNaN(share) || math.IsInf(share, 0) {
		t.Fatalf("нулевая выручка не должна давать NaN/Inf: %v", share)
	}
	if share != 0 {
		t.Errorf("доля при нулевой выручке: ожидали 0, получили %v", share)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	var calls int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			// Первый ответ задерживается и приходит после второго
			time.Sleep(150 * time.Millisecond)
			w.Write(planJSON(models.ProductionPlan{TotalRevenue: 111}))
			return
		}
		w.Write(planJSON(models.ProductionPlan{TotalRevenue: 222}))
	})
	svc := newPlanningFixture(t, handler, time.Minute, time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Refresh(context.Background())
	}()

	time.Sleep(30 * time.Millisecond)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	wg.Wait()

	if got := svc.Snapshot(); got.TotalRevenue != 222 {
		t.Fatalf("перегнанный ответ должен отбрасываться, снимок: %+v", got)
	}
}

func TestSimulateRequiresNonEmptyPlan(t *testing.T) {
	svc := NewPlanningService(nil, time.Minute, time.Millisecond)

	if err := svc.Simulate(); err != ErrEmptyPlan {
		t.Fatalf("пустой план: ожидали ErrEmptyPlan, получили %v", err)
	}
	if state, _ := svc.SimulationStatus(); state != SimulationIdle {
		t.Errorf("после отказа машина остается в idle: %v", state)
	}
}

func TestSimulateStateMachine(t *testing.T) {
	plan := models.ProductionPlan{
		Suggestions: []models.ProductionSuggestion{
			{ProductName: "Пицца", Quantity: 10, TotalValue: 100},
			{ProductName: "Суп", Quantity: 5, TotalValue: 50},
		},
		TotalRevenue: 150,
	}
	svc := newPlanningFixture(t, staticPlanHandler(plan), time.Minute, 50*time.Millisecond)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := svc.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if state, report := svc.SimulationStatus(); state != SimulationRunning || report != nil {
		t.Fatalf("сразу после запуска: state=%v report=%v", state, report)
	}

	// Повторный запуск во время выполнения отклоняется
	if err := svc.Simulate(); err != ErrSimulationRunning {
		t.Fatalf("ожидали ErrSimulationRunning, получили %v", err)
	}

	report := waitForResult(t, svc, time.Second)
	if report.ProductTypes != 2 {
		t.Errorf("видов продукции: ожидали 2, получили %d", report.ProductTypes)
	}
	if report.TotalUnits != 15 {
		t.Errorf("единиц всего: ожидали 15, получили %d", report.TotalUnits)
	}
	if report.TotalProfit != 150 {
		t.Errorf("прибыль: ожидали 150, получили %v", report.TotalProfit)
	}
	if report.Disclaimer != SimulationDisclaimer {
		t.Errorf("в отчете обязана быть пометка о симуляции: %q", report.Disclaimer)
	}

	// Пока отчет открыт, новый запуск отклоняется: в running можно
	// попасть только из idle, через закрытие отчета
	if err := svc.Simulate(); err != ErrReportNotDismissed {
		t.Fatalf("запуск поверх открытого отчета: ожидали ErrReportNotDismissed, получили %v", err)
	}
	if state, rep := svc.SimulationStatus(); state != SimulationResult || rep == nil {
		t.Fatalf("отклоненный запуск не должен трогать отчет: state=%v report=%v", state, rep)
	}

	// Закрытие отчета возвращает машину в idle
	svc.DismissReport()
	if state, rep := svc.SimulationStatus(); state != SimulationIdle || rep != nil {
		t.Errorf("после закрытия отчета: state=%v report=%v", state, rep)
	}

	// Из idle запуск снова доступен
	if err := svc.Simulate(); err != nil {
		t.Fatalf("после закрытия отчета запуск должен проходить: %v", err)
	}
	waitForResult(t, svc, time.Second)
}

func TestSimulationDoesNotTouchPlan(t *testing.T) {
	plan := models.ProductionPlan{
		Suggestions: []models.ProductionSuggestion{
			{ProductName: "Пицца", Quantity: 10, TotalValue: 100},
		},
		MaterialUsage: []models.MaterialUsage{
			{MaterialName: "Мука", QuantityUsed: 20, RemainingStock: 30},
		},
		TotalRevenue: 100,
	}
	svc := newPlanningFixture(t, staticPlanHandler(plan), time.Minute, 10*time.Millisecond)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := svc.Snapshot()

	if err := svc.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	waitForResult(t, svc, time.Second)

	after := svc.Snapshot()
	if after.TotalRevenue != before.TotalRevenue ||
		len(after.Suggestions) != len(before.Suggestions) ||
		after.MaterialUsage[0].RemainingStock != before.MaterialUsage[0].RemainingStock {
		t.Errorf("симуляция не должна менять снимок плана:\nдо:    %+v\nпосле: %+v", before, after)
	}
}

func waitForResult(t *testing.T, svc *PlanningService, timeout time.Duration) *models.SimulationReport {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if state, report := svc.SimulationStatus(); state == SimulationResult {
			return report
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("симуляция не завершилась за отведенное время")
	return nil
}

// captureHub собирает рассылаемые сообщения вместо WebSocket хаба
type captureHub struct {
	mu       sync.Mutex
	messages [][]byte
}

func (ch *captureHub) BroadcastMessage(message []byte) {
	ch.mu.Lock()
	ch.messages = append(ch.messages, message)
	ch.mu.Unlock()
}

func (ch *captureHub) count() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.messages)
}

func TestPollLoopLifecycle(t *testing.T) {
	var calls int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write(planJSON(models.ProductionPlan{TotalRevenue: 10}))
	})
	svc := newPlanningFixture(t, handler, 20*time.Millisecond, time.Millisecond)

	hub := &captureHub{}
	svc.SetHub(hub)

	svc.Subscribe()
	time.Sleep(90 * time.Millisecond)

	if got := atomic.LoadInt64(&calls); got < 2 {
		t.Fatalf("опрос должен идти по таймеру, запросов: %d", got)
	}
	if hub.count() == 0 {
		t.Fatal("обновления плана должны рассылаться подписчикам")
	}

	// Проверяем формат рассылаемого сообщения
	hub.mu.Lock()
	var msg struct {
		Type string       `json:"type"`
		Plan PlanSnapshot `json:"plan"`
	}
	err := json.Unmarshal(hub.messages[0], &msg)
	hub.mu.Unlock()
	if err != nil {
		t.Fatalf("сообщение хаба не разбирается: %v", err)
	}
	if msg.Type != "plan" || msg.Plan.TotalRevenue != 10 {
		t.Errorf("сообщение хаба: %+v", msg)
	}

	// Последний подписчик гасит опрос
	svc.Unsubscribe()
	time.Sleep(30 * time.Millisecond)
	settled := atomic.LoadInt64(&calls)
	time.Sleep(80 * time.Millisecond)
	if got := atomic.LoadInt64(&calls); got != settled {
		t.Errorf("после отписки опрос должен остановиться: было %d, стало %d", settled, got)
	}
}

func TestSecondSubscriberDoesNotRestartLoop(t *testing.T) {
	var calls int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write(planJSON(models.ProductionPlan{}))
	})
	svc := newPlanningFixture(t, handler, 30*time.Millisecond, time.Millisecond)

	svc.Subscribe()
	svc.Subscribe()
	time.Sleep(50 * time.Millisecond)

	// Уход одного из двух подписчиков не останавливает опрос
	svc.Unsubscribe()
	before := atomic.LoadInt64(&calls)
	time.Sleep(70 * time.Millisecond)
	if got := atomic.LoadInt64(&calls); got <= before {
		t.Errorf("опрос должен продолжаться при живом подписчике: было %d, стало %d", before, got)
	}

	svc.Unsubscribe()
}
