package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	hkey   string
}

// NewRedisBookStorage provides an instance of redis-based book storage.
// All books live in a single hash where each field is an isbn.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, hkey string) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
		hkey:   hkey,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		PoolTimeout:  config.PoolTimeout,
		Password:     config.Password,
		Username:     config.Username,
		DB:           config.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Close releases the underlying connections pool.
func (rs *redisBookStorage) Close() error {
	return rs.client.Close()
}

// Add inserts a new book record. HSETNX makes the isbn uniqueness check atomic.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	created, err := rs.client.HSetNX(ctx, rs.hkey, book.ISBN, bookBytes).Result()
	if err != nil {
		return book, err
	}
	if !created {
		return book, ErrBookAlreadyExists
	}
	return book, nil
}

// GetOne retrieves a book record based on its isbn.
func (rs *redisBookStorage) GetOne(ctx context.Context, isbn string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, rs.hkey, isbn).Result()
	if errors.Is(err, redis.Nil) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record based on its isbn.
func (rs *redisBookStorage) Delete(ctx context.Context, isbn string) error {
	removed, err := rs.client.HDel(ctx, rs.hkey, isbn).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrBookNotFound
	}
	return nil
}

// swapBookScript replaces a book field only if it still holds the value
// read by the caller. It returns 0 when the field changed or vanished.
var swapBookScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
	return 1
end
return 0
`)

// maxUpdateAttempts bounds the read-merge-swap loop of Update.
const maxUpdateAttempts = 100

// Update merges the patch onto the stored book. The merged record is written
// with a compare-and-swap on the isbn field alone, so writes to other books
// never abort it. A lost race on the same isbn reads the newer record and retries.
func (rs *redisBookStorage) Update(ctx context.Context, isbn string, patch BookPatch) (Book, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := rs.client.HGet(ctx, rs.hkey, isbn).Result()
		if errors.Is(err, redis.Nil) {
			return Book{}, ErrBookNotFound
		}
		if err != nil {
			return Book{}, err
		}

		var book Book
		if err = json.Unmarshal([]byte(current), &book); err != nil {
			return Book{}, err
		}
		book = patch.Apply(book)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return Book{}, err
		}

		swapped, err := swapBookScript.Run(ctx, rs.client, []string{rs.hkey}, isbn, current, bookBytes).Int()
		if err != nil {
			return Book{}, err
		}
		if swapped == 1 {
			return book, nil
		}
		rs.logger.Debug("redis: book changed during update, retrying", zap.String("book.isbn", isbn), zap.Int("attempt", attempt+1))
	}
	return Book{}, fmt.Errorf("redis: update of book %s kept conflicting after %d attempts", isbn, maxUpdateAttempts)
}

// GetAll retrieves all books stored in the hash, ordered by isbn.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	mapBooks, err := rs.client.HGetAll(ctx, rs.hkey).Result()
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(mapBooks))
	for _, bookJSONString := range mapBooks {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ISBN < books[j].ISBN })
	return books, nil
}
