package report

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"shopfloor/internal/service/workload"
	"shopfloor/internal/storage"
)

const (
	SheetOverall  = "Итого"
	SheetDays     = "По дням"
	SheetMachines = "По станкам"
)

type StatisticsProvider interface {
	Window(from, to string) (storage.Window, error)
	ProductionStatistics(ctx context.Context, window storage.Window) (*workload.Statistics, error)
}

type ExcelService struct {
	stats StatisticsProvider
}

func NewExcelService(stats StatisticsProvider) *ExcelService {
	return &ExcelService{stats: stats}
}

// Window строит окно отчёта по строкам запроса, в поясе цеха.
func (g *ExcelService) Window(from, to string) (storage.Window, error) {
	return g.stats.Window(from, to)
}

var bucketHeaders = []string{"Факт, шт", "План, шт", "Брак, шт", "Часы", "Сессии", "Эффективность, %", "Брак, %"}

func (g *ExcelService) GenerateExcel(ctx context.Context, window storage.Window) ([]byte, error) {
	const op = "service.report.GenerateExcel"

	stats, err := g.stats.ProductionStatistics(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch statistics: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Жирная шапка с заливкой
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.SetSheetName("Sheet1", SheetOverall); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	writeOverall(f, stats, headerStyle)

	if _, err := f.NewSheet(SheetDays); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	writeHeader(f, SheetDays, append([]string{"Дата"}, bucketHeaders...), headerStyle)
	for i, d := range stats.Days {
		row := i + 2
		f.SetCellValue(SheetDays, cellName(1, row), d.Date)
		writeBucket(f, SheetDays, 2, row, d.Bucket)
	}

	if _, err := f.NewSheet(SheetMachines); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	writeHeader(f, SheetMachines, append([]string{"Станок"}, bucketHeaders...), headerStyle)
	for i, m := range stats.Machines {
		row := i + 2
		f.SetCellValue(SheetMachines, cellName(1, row), m.MachineName)
		writeBucket(f, SheetMachines, 2, row, m.Bucket)
	}

	for _, sheet := range []string{SheetOverall, SheetDays, SheetMachines} {
		// Закрепляем первую строку
		f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
		})
		f.SetColWidth(sheet, "A", "H", 16)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func writeOverall(f *excelize.File, stats *workload.Statistics, style int) {
	writeHeader(f, SheetOverall, append([]string{"Период"}, bucketHeaders...), style)

	// To исключающая граница окна, в отчёте показываем последний день
	period := fmt.Sprintf("%s - %s",
		stats.From.Format(time.DateOnly),
		stats.To.Add(-time.Nanosecond).Format(time.DateOnly))
	f.SetCellValue(SheetOverall, cellName(1, 2), period)
	writeBucket(f, SheetOverall, 2, 2, stats.Overall)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), style)
}

func writeBucket(f *excelize.File, sheet string, col, row int, b workload.Bucket) {
	values := []any{b.Actual, b.Expected, b.Defects, b.Hours, b.Sessions, b.Efficiency, b.DefectRate}
	for i, v := range values {
		f.SetCellValue(sheet, cellName(col+i, row), v)
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
