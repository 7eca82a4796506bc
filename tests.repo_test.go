package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBookStorageContract checks the behavior every BookStorage driver must
// provide. The store is expected to be empty when called.
func runBookStorageContract(t *testing.T, store BookStorage) {
	ctx := context.Background()
	book := testBook()
	other := testBook()
	other.ISBN = "0131103628"
	other.Title = "The C Programming Language"

	t.Run("Get All Books On Empty Store", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("Add Book", func(t *testing.T) {
		created, err := store.Add(ctx, book)
		require.NoError(t, err)
		assert.Equal(t, book, created)
	})

	t.Run("Add Duplicate Book", func(t *testing.T) {
		// ensures the isbn stays unique.
		_, err := store.Add(ctx, book)
		assert.ErrorIs(t, err, ErrBookAlreadyExists)
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		got, err := store.GetOne(ctx, book.ISBN)
		require.NoError(t, err)
		assert.Equal(t, book, got)
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		got, err := store.GetOne(ctx, "0000000000")
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, got)
	})

	t.Run("Update Existent Book", func(t *testing.T) {
		// ensures only the patched field changes.
		author := "Someone Else"
		updated, err := store.Update(ctx, book.ISBN, BookPatch{Author: &author})
		require.NoError(t, err)
		expected := book
		expected.Author = author
		assert.Equal(t, expected, updated)

		got, err := store.GetOne(ctx, book.ISBN)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		book = expected
	})

	t.Run("Update NonExistent Book", func(t *testing.T) {
		year := 2020
		_, err := store.Update(ctx, "0000000000", BookPatch{Year: &year})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get All Books Ordered By ISBN", func(t *testing.T) {
		_, err := store.Add(ctx, other)
		require.NoError(t, err)
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Book{other, book}, books)
	})

	t.Run("Delete Existent Book", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, book.ISBN))
		_, err := store.GetOne(ctx, book.ISBN)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete NonExistent Book", func(t *testing.T) {
		// ensures a second delete reports not found.
		assert.ErrorIs(t, store.Delete(ctx, book.ISBN), ErrBookNotFound)
	})
}
