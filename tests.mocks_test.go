package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book Book) (Book, error)
	GetOneFunc func(ctx context.Context, isbn string) (Book, error)
	DeleteFunc func(ctx context.Context, isbn string) error
	UpdateFunc func(ctx context.Context, isbn string, patch BookPatch) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
	CloseFunc  func() error
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, isbn string) (Book, error) {
	return m.GetOneFunc(ctx, isbn)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, isbn string) error {
	return m.DeleteFunc(ctx, isbn)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, isbn string, patch BookPatch) (Book, error) {
	return m.UpdateFunc(ctx, isbn, patch)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Close mocks the release of the repository. It is a no-op when not set.
func (m *MockBookStorage) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

// MockValidator implements a fake Validator returning a preset result.
type MockValidator struct {
	ValidateFunc func(kind SchemaKind, payload []byte) *ValidationResult
}

func (mv *MockValidator) Validate(kind SchemaKind, payload []byte) *ValidationResult {
	return mv.ValidateFunc(kind, payload)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}
