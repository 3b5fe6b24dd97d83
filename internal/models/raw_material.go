package models

// RawMaterial представляет сырье на складе.
// ID присваивается складским сервисом при создании, до этого nil.
type RawMaterial struct {
	ID            *int64 `json:"id,omitempty"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stockQuantity"`
}

// MaterialImportRow результат обработки одной строки файла импорта
type MaterialImportRow struct {
	Row      int    `json:"row"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Error    string `json:"error,omitempty"`
}

// MaterialImportReport итог массового импорта сырья
type MaterialImportReport struct {
	BatchID  string              `json:"batch_id"`
	Total    int                 `json:"total"`
	Created  int                 `json:"created"`
	Skipped  int                 `json:"skipped"`
	Failures []MaterialImportRow `json:"failures,omitempty"`
}
