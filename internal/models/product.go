package models

// Product представляет продукт с ценой и рецептурой (составом).
type Product struct {
	ID          *int64            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Value       float64           `json:"value"`
	Composition []CompositionLink `json:"composition,omitempty"`
}

// CompositionLink связь продукт → сырье: на единицу продукта
// расходуется Quantity единиц RawMaterial. Одно и то же сырье может
// входить в рецептуры разных продуктов с независимыми количествами.
type CompositionLink struct {
	ID          int64       `json:"id"`
	RawMaterial RawMaterial `json:"rawMaterial"`
	Quantity    int         `json:"quantity"`
}

// Producible продукт без единой позиции в рецептуре произвести нельзя.
// Это производный факт для отображения, не отдельное состояние сущности.
func (p *Product) Producible() bool {
	return len(p.Composition) > 0
}
