package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	analytics "shopfloor/http-server/analytics/get"
	generate_excel "shopfloor/http-server/generate-report/generate-excel"
	getmaterials "shopfloor/http-server/materials/get"
	"shopfloor/http-server/orders/issue"
	orderprogress "shopfloor/http-server/orders/progress"
	"shopfloor/http-server/sessions/end"
	force_close "shopfloor/http-server/sessions/force-close"
	getsession "shopfloor/http-server/sessions/get"
	"shopfloor/http-server/sessions/start"
	"shopfloor/http-server/shifts/get"
	"shopfloor/http-server/shifts/lunch"
	"shopfloor/http-server/shifts/remove"
	"shopfloor/http-server/shifts/scan"
	getworkers "shopfloor/http-server/workers/get"
	saveworkers "shopfloor/http-server/workers/save"
	"shopfloor/internal/config"
	"shopfloor/internal/metrics"
	"shopfloor/internal/middleware/auth"
	mwmetrics "shopfloor/internal/middleware/metrics"
	"shopfloor/internal/service/materials"
	"shopfloor/internal/service/progress"
	"shopfloor/internal/service/report"
	"shopfloor/internal/service/session"
	"shopfloor/internal/service/timekeeping"
	"shopfloor/internal/service/workload"
)

type services struct {
	sessions  *session.Tracker
	shifts    *timekeeping.Keeper
	orders    *progress.OrderService
	materials *materials.Ledger
	analytics *workload.Estimator
	report    *report.ExcelService
	roster    saveworkers.WorkerCreator
}

func routes(cfg config.Config, log *slog.Logger, m *metrics.Metrics, svc services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(mwmetrics.Duration(m))

	router.Method(http.MethodGet, "/metrics", m.Handler())

	// Сессии оператора
	router.Post("/api/sessions/start", start.StartSession(log, svc.sessions))
	router.Post("/api/sessions/{id}/end", end.EndSession(log, svc.sessions))
	router.Get("/api/sessions/active/{userID}", getsession.GetActiveSession(log, svc.sessions))

	// Табель: QR-точки, обед, ошибочные смены
	router.Post("/api/shifts/scan", scan.ScanClock(log, svc.shifts))
	router.Get("/api/shifts/{userID}/today", get.GetShift(log, svc.shifts))
	router.Post("/api/shifts/{userID}/lunch/start", lunch.StartLunch(log, svc.shifts))
	router.Post("/api/shifts/{userID}/lunch/end", lunch.EndLunch(log, svc.shifts))
	router.Post("/api/shifts/{userID}/lunch/decline", lunch.DeclineLunch(log, svc.shifts))
	router.Delete("/api/shifts/{id}", remove.DeleteShift(log, svc.shifts))

	// Аналитика
	router.Get("/api/analytics/workload", analytics.GetWorkload(log, svc.analytics))
	router.Get("/api/analytics/statistics", analytics.GetStatistics(log, svc.analytics))
	router.Get("/api/analytics/efficiency/{userID}", analytics.GetEfficiency(log, svc.analytics))
	router.Get("/api/report/excel", generate_excel.GenerateReportExcel(log, svc.report))

	router.Get("/api/orders/{id}/progress", orderprogress.GetOrderProgress(log, svc.orders))
	router.Get("/api/materials/low-stock", getmaterials.GetLowStock(log, svc.materials))
	router.Get("/api/workers", getworkers.GetWorkers(log, svc.analytics))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Post("/sessions/{id}/force-close", force_close.ForceCloseSession(log, svc.sessions))
	adminRouter.Delete("/shifts/{id}", remove.DeleteShift(log, svc.shifts))
	adminRouter.Post("/orders/{id}/issue", issue.IssueOrder(log, svc.orders))
	adminRouter.Post("/workers", saveworkers.SaveWorker(log, svc.roster))

	router.Mount("/api/admin", adminRouter)

	return router
}
