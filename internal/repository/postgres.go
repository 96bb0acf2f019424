package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/codec"
	"github.com/mmeshcher/shortlink/internal/metrics"
	"github.com/mmeshcher/shortlink/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	queryTimeout   = 5 * time.Second
	connectTimeout = 10 * time.Second
	returning      = "RETURNING id, url, active"
)

var recordColumns = []string{"id", "url", "active"}

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type PostgresRepository struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	logger *zap.Logger
}

func NewPostgresRepository(ctx context.Context, dsn string, poolCfg PoolConfig, logger *zap.Logger) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = poolCfg.MaxConnLifetime
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	repo := NewPostgresRepositoryFromDB(stdlib.OpenDBFromPool(pool), logger)
	repo.pool = pool

	repo.logger.Info("PostgreSQL repository initialized",
		zap.Int32("max_conns", config.MaxConns))

	return repo, nil
}

// NewPostgresRepositoryFromDB builds a repository over an already opened *sql.DB.
// Migrations are not applied.
func NewPostgresRepositoryFromDB(db *sql.DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger.With(zap.String("component", "postgres")),
	}
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (p *PostgresRepository) Get(ctx context.Context, id int64) (models.URLRecord, error) {
	query, args, err := p.sb.
		Select(recordColumns...).
		From("urls").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("%w: build query: %v", ErrDatabase, err)
	}

	return p.queryRecord(ctx, "get", query, args)
}

func (p *PostgresRepository) GetByURL(ctx context.Context, url string) (models.URLRecord, error) {
	query, args, err := p.sb.
		Select(recordColumns...).
		From("urls").
		Where(squirrel.Eq{"url": url}).
		ToSql()
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("%w: build query: %v", ErrDatabase, err)
	}

	return p.queryRecord(ctx, "get_by_url", query, args)
}

func (p *PostgresRepository) List(ctx context.Context) ([]models.URLRecord, error) {
	query, args, err := p.sb.
		Select(recordColumns...).
		From("urls").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build query: %v", ErrDatabase, err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer metrics.ObserveQuery("list")()

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, p.mapError(err)
	}
	defer rows.Close()

	records := make([]models.URLRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, p.mapError(err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, p.mapError(err)
	}

	return records, nil
}

// Add inserts url. A row already holding url yields ErrDuplicate.
func (p *PostgresRepository) Add(ctx context.Context, url string) (models.URLRecord, error) {
	query, args, err := p.sb.
		Insert("urls").
		Columns("url").
		Values(url).
		Suffix("ON CONFLICT (url) DO NOTHING " + returning).
		ToSql()
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("%w: build query: %v", ErrDatabase, err)
	}

	record, err := p.queryRecord(ctx, "add", query, args)
	if errors.Is(err, ErrNotFound) {
		return models.URLRecord{}, ErrDuplicate
	}

	return record, err
}

func (p *PostgresRepository) Delete(ctx context.Context, id int64) (models.URLRecord, error) {
	query, args, err := p.sb.
		Delete("urls").
		Where(squirrel.Eq{"id": id}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("%w: build query: %v", ErrDatabase, err)
	}

	return p.queryRecord(ctx, "delete", query, args)
}

func (p *PostgresRepository) Update(ctx context.Context, id int64, patch models.URLPatch) (models.URLRecord, error) {
	if patch.IsEmpty() {
		return p.Get(ctx, id)
	}

	builder := p.sb.Update("urls")
	if url, ok := patch.URL.Get(); ok {
		builder = builder.Set("url", url)
	}
	if active, ok := patch.Active.Get(); ok {
		builder = builder.Set("active", active)
	}

	query, args, err := builder.
		Where(squirrel.Eq{"id": id}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("%w: build query: %v", ErrDatabase, err)
	}

	return p.queryRecord(ctx, "update", query, args)
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

func (p *PostgresRepository) Close() error {
	err := p.db.Close()
	if p.pool != nil {
		p.pool.Close()
	}
	return err
}

func (p *PostgresRepository) queryRecord(ctx context.Context, queryType, query string, args []any) (models.URLRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	defer metrics.ObserveQuery(queryType)()

	record, err := scanRecord(p.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Debug("query failed", zap.String("query_type", queryType), zap.Error(err))
		}
		return models.URLRecord{}, p.mapError(err)
	}

	return record, nil
}

func (p *PostgresRepository) mapError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDatabase):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return ErrDuplicate
	default:
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.URLRecord, error) {
	var record models.URLRecord
	if err := row.Scan(&record.ID, &record.URL, &record.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.URLRecord{}, ErrNotFound
		}
		return models.URLRecord{}, err
	}

	code, err := codec.Encode(record.ID)
	if err != nil {
		return models.URLRecord{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	record.Code = code

	return record, nil
}
