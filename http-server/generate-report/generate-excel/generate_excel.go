package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shopfloor/http-server/respond"
	"shopfloor/internal/storage"
)

type GenerateExcelHandler interface {
	Window(from, to string) (storage.Window, error)
	GenerateExcel(ctx context.Context, window storage.Window) ([]byte, error)
}

func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateReportExcel"

		// без from/to — с начала месяца по сегодня
		window, err := gen.Window(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second) // На Excel можно побольше времени
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, window)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		fileName := fmt.Sprintf("Production_Report_%s.xlsx", time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Error("failed to write excel", slog.String("op", op), slog.String("error", err.Error()))
		}
	}
}
