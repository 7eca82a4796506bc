package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	dialectPostgres     = "postgres"
	colISBN             = "isbn"
	pgUniqueViolation   = "23505"
	logMsgBuildQuery    = "postgres: failed to build query"
	logMsgSQLExecuted   = "postgres: executed sql"
	createBooksTableSQL = `CREATE TABLE IF NOT EXISTS %s (
	isbn       TEXT PRIMARY KEY,
	amazon_url TEXT NOT NULL,
	author     TEXT NOT NULL,
	language   TEXT NOT NULL,
	pages      INTEGER NOT NULL CHECK (pages > 0),
	publisher  TEXT NOT NULL,
	title      TEXT NOT NULL,
	year       INTEGER NOT NULL
)`
)

var bookColumns = []interface{}{"isbn", "amazon_url", "author", "language", "pages", "publisher", "title", "year"}

type postgresBookStorage struct {
	logger *zap.Logger
	pool   *pgxpool.Pool
	table  string
	qb     goqu.DialectWrapper
}

// GetPostgresPool opens and checks a pgx connections pool.
func GetPostgresPool(ctx context.Context, config *PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %v", err)
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}
	if config.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = config.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %v", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return pool, nil
}

// NewPostgresBookStorage provides an instance of postgres-based book storage.
func NewPostgresBookStorage(logger *zap.Logger, pool *pgxpool.Pool, table string) BookStorage {
	return &postgresBookStorage{
		logger: logger,
		pool:   pool,
		table:  table,
		qb:     goqu.Dialect(dialectPostgres),
	}
}

// MigratePostgres creates the books table if it does not exist yet.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, table string) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(createBooksTableSQL, pgx.Identifier{table}.Sanitize()))
	return err
}

// Close releases all the pool connections.
func (ps *postgresBookStorage) Close() error {
	ps.pool.Close()
	return nil
}

// Add inserts a new book row. A primary key violation becomes ErrBookAlreadyExists.
func (ps *postgresBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	query, args, err := ps.qb.Insert(ps.table).Prepared(true).Rows(book).Returning(bookColumns...).ToSQL()
	if err != nil {
		ps.logger.Error(logMsgBuildQuery, zap.String("op", "add"), zap.Error(err))
		return book, err
	}

	created, err := ps.queryOne(ctx, query, args...)
	if isUniqueViolation(err) {
		return book, ErrBookAlreadyExists
	}
	if err != nil {
		return book, err
	}
	return created, nil
}

// GetOne retrieves a book row based on its isbn.
func (ps *postgresBookStorage) GetOne(ctx context.Context, isbn string) (Book, error) {
	query, args, err := ps.qb.From(ps.table).Prepared(true).
		Select(bookColumns...).
		Where(goqu.C(colISBN).Eq(isbn)).
		ToSQL()
	if err != nil {
		ps.logger.Error(logMsgBuildQuery, zap.String("op", "get"), zap.Error(err))
		return Book{}, err
	}

	book, err := ps.queryOne(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// Delete removes a book row based on its isbn.
func (ps *postgresBookStorage) Delete(ctx context.Context, isbn string) error {
	query, args, err := ps.qb.Delete(ps.table).Prepared(true).
		Where(goqu.C(colISBN).Eq(isbn)).
		ToSQL()
	if err != nil {
		ps.logger.Error(logMsgBuildQuery, zap.String("op", "delete"), zap.Error(err))
		return err
	}

	tag, err := ps.pool.Exec(ctx, query, args...)
	ps.logger.Debug(logMsgSQLExecuted, zap.String("query", query), zap.Error(err))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update sets only the patched columns in a single statement and returns the full row.
func (ps *postgresBookStorage) Update(ctx context.Context, isbn string, patch BookPatch) (Book, error) {
	if patch.IsEmpty() {
		return ps.GetOne(ctx, isbn)
	}

	query, args, err := ps.qb.Update(ps.table).Prepared(true).
		Set(goqu.Record(patch.Fields())).
		Where(goqu.C(colISBN).Eq(isbn)).
		Returning(bookColumns...).
		ToSQL()
	if err != nil {
		ps.logger.Error(logMsgBuildQuery, zap.String("op", "update"), zap.Error(err))
		return Book{}, err
	}

	book, err := ps.queryOne(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// GetAll retrieves all book rows ordered by isbn.
func (ps *postgresBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	query, args, err := ps.qb.From(ps.table).Prepared(true).
		Select(bookColumns...).
		Order(goqu.C(colISBN).Asc()).
		ToSQL()
	if err != nil {
		ps.logger.Error(logMsgBuildQuery, zap.String("op", "list"), zap.Error(err))
		return nil, err
	}

	rows, err := ps.pool.Query(ctx, query, args...)
	ps.logger.Debug(logMsgSQLExecuted, zap.String("query", query), zap.Error(err))
	if err != nil {
		return nil, err
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[Book])
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

func (ps *postgresBookStorage) queryOne(ctx context.Context, query string, args ...interface{}) (Book, error) {
	rows, err := ps.pool.Query(ctx, query, args...)
	ps.logger.Debug(logMsgSQLExecuted, zap.String("query", query), zap.Error(err))
	if err != nil {
		return Book{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Book])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
