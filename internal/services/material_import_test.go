package services

import (
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestImportCSVWithHeaders(t *testing.T) {
	fb := &fakeInventoryBackend{}
	svc, _ := newInventoryFixture(t, fb)

	data := []byte("Наименование;Количество\nМука;50\nСыр;20\n;10\nТоматы;abc\n")
	report, err := svc.ImportMaterialsFile(context.Background(), "nakladnaya.csv", data)
	if err != nil {
		t.Fatalf("ImportMaterialsFile: %v", err)
	}

	if report.Total != 4 {
		t.Errorf("ожидали 4 строки данных, получили %d", report.Total)
	}
	if report.Created != 2 {
		t.Errorf("ожидали 2 созданные позиции, получили %d", report.Created)
	}
	if report.Skipped != 2 {
		t.Errorf("ожидали 2 пропущенные строки, получили %d", report.Skipped)
	}
	if len(report.Failures) != 2 {
		t.Errorf("пропущенные строки должны попасть в отчет: %+v", report.Failures)
	}
	if report.BatchID == "" {
		t.Error("у импорта должен быть идентификатор партии")
	}

	// Снимок перечитан после импорта
	materials := svc.Materials()
	if len(materials) != 2 {
		t.Errorf("снимок после импорта: %+v", materials)
	}
}

func TestImportCSVHeaderless(t *testing.T) {
	fb := &fakeInventoryBackend{}
	svc, _ := newInventoryFixture(t, fb)

	data := []byte("Мука;50\nСыр;20\n")
	report, err := svc.ImportMaterialsFile(context.Background(), "plain.csv", data)
	if err != nil {
		t.Fatalf("ImportMaterialsFile: %v", err)
	}
	if report.Created != 2 {
		t.Errorf("формат без шапки: ожидали 2 позиции, получили %d", report.Created)
	}
}

func TestImportCSVCommaDelimiter(t *testing.T) {
	fb := &fakeInventoryBackend{}
	svc, _ := newInventoryFixture(t, fb)

	data := []byte("name,quantity\nFlour,15\n")
	report, err := svc.ImportMaterialsFile(context.Background(), "en.csv", data)
	if err != nil {
		t.Fatalf("ImportMaterialsFile: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("CSV с запятыми: ожидали 1 позицию, получили %d", report.Created)
	}
}

func TestImportCSVWindows1251(t *testing.T) {
	fb := &fakeInventoryBackend{}
	svc, _ := newInventoryFixture(t, fb)

	encoder := charmap.Windows1251.NewEncoder()
	data, err := encoder.Bytes([]byte("Наименование;Остаток\nМука;50\n"))
	if err != nil {
		t.Fatalf("подготовка cp1251 данных: %v", err)
	}

	report, err := svc.ImportMaterialsFile(context.Background(), "cp1251.csv", data)
	if err != nil {
		t.Fatalf("ImportMaterialsFile: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("cp1251 файл: ожидали 1 позицию, получили %d", report.Created)
	}
	if got := svc.Materials(); len(got) != 1 || got[0].Name != "Мука" {
		t.Errorf("имя должно декодироваться из cp1251: %+v", got)
	}
}

func TestImportXLSX(t *testing.T) {
	fb := &fakeInventoryBackend{}
	svc, _ := newInventoryFixture(t, fb)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "Наименование")
	f.SetCellValue(sheet, "B1", "Количество")
	f.SetCellValue(sheet, "A2", "Мука")
	f.SetCellValue(sheet, "B2", 50)
	f.SetCellValue(sheet, "A3", "Сыр")
	f.SetCellValue(sheet, "B3", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("подготовка XLSX: %v", err)
	}

	report, err := svc.ImportMaterialsFile(context.Background(), "nakladnaya.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("ImportMaterialsFile: %v", err)
	}
	if report.Created != 2 {
		t.Errorf("XLSX импорт: ожидали 2 позиции, получили %d", report.Created)
	}
}

func TestImportRejectsFileWithoutColumns(t *testing.T) {
	fb := &fakeInventoryBackend{}
	svc, _ := newInventoryFixture(t, fb)

	data := []byte("что-то;совсем другое\nстрока;текст\n")
	if _, err := svc.ImportMaterialsFile(context.Background(), "garbage.csv", data); err == nil {
		t.Fatal("файл без распознаваемых колонок должен отклоняться")
	}
}

func TestDetectDelimiter(t *testing.T) {
	if got := detectDelimiter([]byte("a;b;c\n1,2")); got != ';' {
		t.Errorf("ожидали ';', получили %q", got)
	}
	if got := detectDelimiter([]byte("a,b,c\n")); got != ',' {
		t.Errorf("ожидали ',', получили %q", got)
	}
}
