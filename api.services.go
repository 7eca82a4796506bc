package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, isbn string) (Book, error)
	Delete(ctx context.Context, isbn string) error
	Update(ctx context.Context, isbn string, patch BookPatch) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

type BookService struct {
	logger  *zap.Logger
	timeout time.Duration
	storage BookStorage
}

// NewBookService provides a book service on top of the given storage. Each
// storage call is bounded by the configured operation timeout if any.
func NewBookService(logger *zap.Logger, config *Config, storage BookStorage) BookServiceProvider {
	bs := &BookService{
		logger:  logger,
		storage: storage,
	}
	if config != nil {
		bs.timeout = config.Storage.OperationTimeout
	}
	return bs
}

func (bs *BookService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if bs.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, bs.timeout)
}

func (bs *BookService) Add(ctx context.Context, book Book) (Book, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()
	created, err := bs.storage.Add(ctx, book)
	if err != nil {
		bs.logger.Debug("service: failed to add book", zap.String("book.isbn", book.ISBN), zap.Error(err))
	}
	return created, err
}

func (bs *BookService) GetOne(ctx context.Context, isbn string) (Book, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()
	return bs.storage.GetOne(ctx, isbn)
}

func (bs *BookService) Delete(ctx context.Context, isbn string) error {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()
	err := bs.storage.Delete(ctx, isbn)
	if err != nil {
		bs.logger.Debug("service: failed to delete book", zap.String("book.isbn", isbn), zap.Error(err))
	}
	return err
}

func (bs *BookService) Update(ctx context.Context, isbn string, patch BookPatch) (Book, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()
	book, err := bs.storage.Update(ctx, isbn, patch)
	if err != nil {
		bs.logger.Debug("service: failed to update book", zap.String("book.isbn", isbn), zap.Error(err))
	}
	return book, err
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()
	return bs.storage.GetAll(ctx)
}
