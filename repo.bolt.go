package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, config *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: config,
	}
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// Add inserts a new book record. It fails if the isbn is already taken.
func (bs *boltBookStorage) Add(_ context.Context, book Book) (Book, error) {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		if b.Get([]byte(book.ISBN)) != nil {
			return ErrBookAlreadyExists
		}
		return b.Put([]byte(book.ISBN), bookBytes)
	})
	return book, err
}

// GetOne retrieves a book record based on its isbn.
func (bs *boltBookStorage) GetOne(_ context.Context, isbn string) (Book, error) {
	var book Book
	err := bs.client.View(func(tx *bolt.Tx) error {
		result := tx.Bucket([]byte(bs.config.BucketName)).Get([]byte(isbn))
		if result == nil {
			return ErrBookNotFound
		}
		return json.Unmarshal(result, &book)
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// Delete removes a book record based on its isbn.
func (bs *boltBookStorage) Delete(_ context.Context, isbn string) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		if b.Get([]byte(isbn)) == nil {
			return ErrBookNotFound
		}
		return b.Delete([]byte(isbn))
	})
}

// Update merges the patch onto the stored book inside a single read-write
// transaction and returns the resulting record.
func (bs *boltBookStorage) Update(_ context.Context, isbn string, patch BookPatch) (Book, error) {
	var book Book
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bs.config.BucketName))
		current := b.Get([]byte(isbn))
		if current == nil {
			return ErrBookNotFound
		}
		if err := json.Unmarshal(current, &book); err != nil {
			return err
		}
		book = patch.Apply(book)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return b.Put([]byte(isbn), bookBytes)
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetAll retrieves all books ordered by isbn since bolt keeps keys sorted.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	books := []Book{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bs.config.BucketName)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var book Book
			if err := json.Unmarshal(v, &book); err != nil {
				return err
			}
			books = append(books, book)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}
