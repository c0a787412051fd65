package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"shopfloor/internal/config"
	"shopfloor/internal/storage"
)

const errDuplicateEntry = 1062

//go:embed schema.sql
var schema string

// querier: общее у *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage struct {
	db   *sql.DB
	q    querier
	inTx bool
}

func New(cfg config.Config) (*Storage, error) {
	const op = "storage.mysql.New"

	dsn := mysql.NewConfig()
	dsn.User = cfg.DBUser
	dsn.Passwd = cfg.DBPassword
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort)
	dsn.DBName = cfg.DBName
	dsn.ParseTime = cfg.ParseTime
	dsn.Loc = time.UTC

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(3 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return NewWithDB(db), nil
}

func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db, q: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Migrate создаёт таблицы, если их ещё нет.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.mysql.Migrate"

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: ошибка применения схемы: %w", op, err)
		}
	}

	return nil
}

// RunInTx выполняет fn в одной транзакции READ COMMITTED.
func (s *Storage) RunInTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	return s.withTx(ctx, func(tx *Storage) error {
		return fn(tx)
	})
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *Storage) error) error {
	const op = "storage.mysql.withTx"

	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(&Storage{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit transaction: %w", op, err)
	}

	return nil
}

func (s *Storage) Savepoint(ctx context.Context, name string, fn func(repo storage.Repository) error) error {
	const op = "storage.mysql.Savepoint"

	if !s.inTx {
		return s.RunInTx(ctx, fn)
	}

	if _, err := s.q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(s); err != nil {
		if _, rbErr := s.q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("%s: rollback to savepoint: %w", op, rbErr)
		}
		return err
	}

	if _, err := s.q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%s: release savepoint: %w", op, err)
	}

	return nil
}

// forUpdate добавляет блокировку строки только внутри транзакции.
func (s *Storage) forUpdate(query string) string {
	if s.inTx {
		return query + " FOR UPDATE"
	}
	return query
}

func isDuplicate(err error) bool {
	mysqlErr, ok := err.(*mysql.MySQLError)
	return ok && mysqlErr.Number == errDuplicateEntry
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

func toInterfaceSlice(items []string) []interface{} {
	res := make([]interface{}, len(items))
	for i, item := range items {
		res[i] = item
	}
	return res
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

var (
	_ storage.Repository      = (*Storage)(nil)
	_ storage.Transactor      = (*Storage)(nil)
	_ storage.AnalyticsReader = (*Storage)(nil)
)
