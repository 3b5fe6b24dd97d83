package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"prodcontrol/console/internal/models"
)

// Массовый импорт сырья из файла накладной (XLSX или CSV).
// Каждая валидная строка создается через складской сервис обычным
// create, поэтому импорт подчиняется тем же правилам, что и форма:
// непустое имя, целый неотрицательный остаток, полная перезагрузка
// списка после мутаций.

// ImportMaterialsFile разбирает файл и создает сырье построчно.
// Невалидные строки пропускаются и попадают в отчет, импорт при этом
// продолжается.
func (is *InventoryService) ImportMaterialsFile(ctx context.Context, filename string, data []byte) (*models.MaterialImportReport, error) {
	var rows [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		rows, err = parseXLSXRows(data)
	} else {
		rows, err = parseCSVRows(data)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора файла %q: %w", filename, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("файл %q пуст", filename)
	}

	headerIdx, nameCol, qtyCol := detectMaterialColumns(rows)
	if nameCol < 0 || qtyCol < 0 {
		return nil, fmt.Errorf("в файле %q не найдены колонки названия и количества", filename)
	}

	report := &models.MaterialImportReport{
		BatchID: uuid.New().String(),
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		report.Total++

		name := ""
		if nameCol < len(row) {
			name = strings.TrimSpace(row[nameCol])
		}
		qtyStr := ""
		if qtyCol < len(row) {
			qtyStr = strings.TrimSpace(row[qtyCol])
		}

		cleanName, quantity, verr := validateMaterialForm(name, qtyStr)
		if verr != nil {
			report.Skipped++
			report.Failures = append(report.Failures, models.MaterialImportRow{
				Row:   i + 1,
				Name:  name,
				Error: verr.Error(),
			})
			log.Printf("⚠️ Импорт %s: строка %d пропущена: %v", report.BatchID, i+1, verr)
			continue
		}

		if _, err := is.client.CreateMaterial(ctx, models.RawMaterial{
			Name:          cleanName,
			StockQuantity: quantity,
		}); err != nil {
			report.Skipped++
			report.Failures = append(report.Failures, models.MaterialImportRow{
				Row:      i + 1,
				Name:     cleanName,
				Quantity: quantity,
				Error:    err.Error(),
			})
			log.Printf("⚠️ Импорт %s: строка %d не сохранена: %v", report.BatchID, i+1, err)
			continue
		}
		report.Created++
	}

	// Снимок перечитываем один раз после всех строк
	if report.Created > 0 {
		if _, err := is.LoadMaterials(ctx); err != nil {
			log.Printf("⚠️ Импорт %s: список после импорта не перечитан: %v", report.BatchID, err)
		}
	}

	log.Printf("✅ Импорт %s завершен: создано %d из %d строк (пропущено %d)",
		report.BatchID, report.Created, report.Total, report.Skipped)
	return report, nil
}

// parseXLSXRows читает первый лист XLSX файла
func parseXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия XLSX файла: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("файл не содержит листов")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа: %w", err)
	}
	return rows, nil
}

// parseCSVRows читает CSV, при необходимости декодируя Windows-1251
func parseCSVRows(data []byte) ([][]string, error) {
	utf8Data := data
	if !utf8.Valid(data) {
		decoder := charmap.Windows1251.NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err == nil {
			utf8Data = decoded
		}
	}

	reader := csv.NewReader(bytes.NewReader(utf8Data))
	reader.Comma = detectDelimiter(utf8Data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// detectDelimiter выбирает разделитель по первой строке файла
func detectDelimiter(data []byte) rune {
	firstLine := string(data)
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// detectMaterialColumns ищет строку заголовков и индексы колонок
// названия и количества по ключевым словам
func detectMaterialColumns(rows [][]string) (headerIdx, nameCol, qtyCol int) {
	nameKeywords := []string{"наименование", "название", "сырье", "материал", "name", "material"}
	qtyKeywords := []string{"количество", "остаток", "quantity", "stock", "qty"}

	maxRows := 10
	if len(rows) < maxRows {
		maxRows = len(rows)
	}

	nameCol, qtyCol = -1, -1
	for i := 0; i < maxRows; i++ {
		n, q := -1, -1
		for j, cell := range rows[i] {
			cellLower := strings.ToLower(strings.TrimSpace(cell))
			for _, kw := range nameKeywords {
				if strings.Contains(cellLower, kw) {
					n = j
					break
				}
			}
			for _, kw := range qtyKeywords {
				if strings.Contains(cellLower, kw) {
					q = j
					break
				}
			}
		}
		if n >= 0 && q >= 0 {
			return i, n, q
		}
	}

	// Заголовков нет: пробуем формат "название;число" без шапки
	if len(rows[0]) >= 2 {
		if _, err := strconv.Atoi(strings.TrimSpace(rows[0][1])); err == nil {
			return -1, 0, 1
		}
	}
	return 0, -1, -1
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
