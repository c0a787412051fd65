package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"shopfloor/internal/config"
	"shopfloor/internal/metrics"
	"shopfloor/internal/notify"
	"shopfloor/internal/service/materials"
	"shopfloor/internal/service/progress"
	"shopfloor/internal/service/report"
	"shopfloor/internal/service/session"
	"shopfloor/internal/service/timekeeping"
	"shopfloor/internal/service/workload"
	"shopfloor/internal/storage"
	"shopfloor/internal/storage/memory"
	"shopfloor/internal/storage/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// store: хранилище целиком, транзакции ядра и чтение для аналитики.
type store interface {
	storage.Transactor
	storage.AnalyticsReader
	CreateWorker(ctx context.Context, w storage.Worker) (int64, error)
}

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env)

	st, closeStore, err := openStore(*cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New()
	notifier, closeNotifier := setupNotifier(*cfg, log)
	defer closeNotifier()

	svc := buildServices(*cfg, st, notifier, m, log)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, m, svc),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Reaper.Enabled {
		reaper := session.NewReaper(svc.sessions, cfg.Reaper.Interval, cfg.Reaper.MaxSessionAge, log)
		g.Go(func() error {
			return reaper.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped")
}

func buildServices(cfg config.Config, st store, notifier notify.Notifier, m *metrics.Metrics, log *slog.Logger) services {
	shiftSettings := timekeeping.SettingsFromConfig(cfg.Shift)
	keeper := timekeeping.New(st, shiftSettings, notifier, m, log, time.Now)
	ledger := materials.NewLedger(st, log)

	tracker := session.NewTracker(session.Deps{
		Tx:        st,
		Shifts:    keeper,
		Progress:  progress.NewEngine(log),
		Orders:    progress.NewDeriver(log),
		Materials: ledger,
		Notifier:  notifier,
		Metrics:   m,
		Log:       log,
		Now:       time.Now,
	})

	estimator := workload.New(st, cfg.Shift.EligibleRoles, shiftSettings.Location, log)

	return services{
		sessions:  tracker,
		shifts:    keeper,
		orders:    progress.NewOrderService(st, log),
		materials: ledger,
		analytics: estimator,
		report:    report.NewExcelService(estimator),
		roster:    st,
	}
}

func openStore(cfg config.Config, log *slog.Logger) (store, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("используется хранилище в памяти, данные не сохраняются между запусками")
		st := memory.New()
		seedDemo(st)
		return st, func() {}, nil
	case config.StorageMySQL:
		st, err := mysql.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.MigrateOnStart {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := st.Migrate(ctx); err != nil {
				st.Close()
				return nil, nil, err
			}
			log.Info("схема БД применена")
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func setupNotifier(cfg config.Config, log *slog.Logger) (notify.Notifier, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		return notify.NewLog(log), func() {}
	}

	n := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	log.Info("уведомления отправляются в kafka", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic))

	return n, func() {
		if err := n.Close(); err != nil {
			log.Warn("ошибка закрытия kafka writer", slog.String("error", err.Error()))
		}
	}
}

// seedDemo заполняет хранилище в памяти минимальным набором для локального запуска.
func seedDemo(st *memory.Store) {
	deadline := time.Now().AddDate(0, 0, 3).UTC()

	saw := st.AddMachine(storage.Machine{Name: "Пила торцовочная", EfficiencyNorm: 40, Quantity: 2})
	welder := st.AddMachine(storage.Machine{Name: "Сварочный станок", EfficiencyNorm: 15, Quantity: 1})

	order := st.AddOrder(storage.Order{Number: "Q6-0001", Priority: storage.PriorityHigh, Deadline: &deadline})
	cut := st.AddTask(storage.Task{OrderID: order, MachineID: saw, Operation: "резка профиля", TotalQuantity: 120, Priority: storage.PriorityHigh, Sequence: 1})
	st.AddTask(storage.Task{OrderID: order, MachineID: welder, Operation: "сварка рам", TotalQuantity: 30, Priority: storage.PriorityHigh, Sequence: 2})

	profile := st.AddMaterial(storage.Material{Name: "Профиль ПВХ", CurrentStock: 600, MinStock: 100, Unit: "м"})
	st.AssignMaterial(cut, profile, 360)

	st.AddWorker(storage.Worker{Name: "Иванов И.И.", Role: "OPERATOR", IsActive: true})
	st.AddWorker(storage.Worker{Name: "Петров П.П.", Role: "MASTER", IsActive: true})
}

type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	// Всегда пишем в основной вывод (stdout)
	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	// Если это ошибка — пишем в файл
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		if fileErr := h.errorHandler.Handle(ctx, r.Clone()); fileErr != nil {
			fmt.Fprintf(os.Stderr, "errors.log write failed: %v\n", fileErr)
		}
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env string) *slog.Logger {
	var level slog.Level = slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	// Основной handler — пишет всё в stdout
	var coreHandler slog.Handler
	switch env {
	case envDev:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case envLocal, envProd:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	// Файловый handler — только ошибки
	errorFile, err := os.OpenFile("errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		slog.Warn("Cannot open error log file", "error", err)
		return slog.New(coreHandler)
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
