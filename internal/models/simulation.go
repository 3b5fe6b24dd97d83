package models

import "time"

// SimulationReport результат локальной симуляции выполнения плана.
// Живет только в памяти консоли: никуда не отправляется и не сохраняется,
// остатки сырья при симуляции не меняются.
type SimulationReport struct {
	ID           string    `json:"id"`
	ProductTypes int       `json:"productTypes"` // Сколько разных продуктов в плане
	TotalUnits   int       `json:"totalUnits"`   // Суммарное количество единиц
	TotalProfit  float64   `json:"totalProfit"`  // Выручка из последнего плана, без изменений
	Disclaimer   string    `json:"disclaimer"`
	FinishedAt   time.Time `json:"finishedAt"`
}
