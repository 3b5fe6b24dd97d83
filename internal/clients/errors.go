package clients

import "errors"

// Ошибки, которые консоль различает по смыслу, а не только по тексту.
var (
	// ErrMaterialInUse сырье нельзя удалить, пока оно входит в рецептуру
	// хотя бы одного продукта. Бэкенд отвечает конфликтом (409).
	ErrMaterialInUse = errors.New("сырье используется в рецептуре и не может быть удалено")

	// ErrNotFound запрошенная сущность отсутствует на бэкенде
	ErrNotFound = errors.New("запись не найдена")
)
