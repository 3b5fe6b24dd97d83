package models

// ProductionSuggestion одна строка производственного плана:
// продукт, количество к производству и его вклад в выручку.
// Считается внешним сервисом планирования, здесь только отображается.
type ProductionSuggestion struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	TotalValue  float64 `json:"totalValue"`
}

// MaterialUsage расход сырья по плану (считается сервисом планирования)
type MaterialUsage struct {
	MaterialName   string `json:"materialName"`
	QuantityUsed   int    `json:"quantityUsed"`
	RemainingStock int    `json:"remainingStock"`
}

// ProductionPlan ответ сервиса планирования целиком.
// Заменяется при каждом опросе, частичные результаты не показываются.
type ProductionPlan struct {
	Suggestions   []ProductionSuggestion `json:"suggestions"`
	MaterialUsage []MaterialUsage        `json:"materialUsage"`
	TotalRevenue  float64                `json:"totalRevenue"`
}

// SuggestionShare строка плана с долей от общей выручки (0..1)
type SuggestionShare struct {
	ProductionSuggestion
	RevenueShare float64 `json:"revenueShare"`
}
