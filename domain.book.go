package main

import (
	"context"
	"errors"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrBookAlreadyExists = errors.New("book already exists")
)

// Book represents a book entity. The isbn is its unique and immutable key.
type Book struct {
	ISBN      string `json:"isbn" db:"isbn"`
	AmazonURL string `json:"amazon_url" db:"amazon_url"`
	Author    string `json:"author" db:"author"`
	Language  string `json:"language" db:"language"`
	Pages     int    `json:"pages" db:"pages"`
	Publisher string `json:"publisher" db:"publisher"`
	Title     string `json:"title" db:"title"`
	Year      int    `json:"year" db:"year"`
}

// BookPatch holds the fields of a partial update. Nil fields are left untouched.
type BookPatch struct {
	AmazonURL *string `json:"amazon_url,omitempty"`
	Author    *string `json:"author,omitempty"`
	Language  *string `json:"language,omitempty"`
	Pages     *int    `json:"pages,omitempty"`
	Publisher *string `json:"publisher,omitempty"`
	Title     *string `json:"title,omitempty"`
	Year      *int    `json:"year,omitempty"`
}

// Apply merges the set fields of the patch onto a copy of book.
func (p BookPatch) Apply(book Book) Book {
	if p.AmazonURL != nil {
		book.AmazonURL = *p.AmazonURL
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.Language != nil {
		book.Language = *p.Language
	}
	if p.Pages != nil {
		book.Pages = *p.Pages
	}
	if p.Publisher != nil {
		book.Publisher = *p.Publisher
	}
	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Year != nil {
		book.Year = *p.Year
	}
	return book
}

// Fields returns the set fields keyed by column name.
func (p BookPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.AmazonURL != nil {
		fields["amazon_url"] = *p.AmazonURL
	}
	if p.Author != nil {
		fields["author"] = *p.Author
	}
	if p.Language != nil {
		fields["language"] = *p.Language
	}
	if p.Pages != nil {
		fields["pages"] = *p.Pages
	}
	if p.Publisher != nil {
		fields["publisher"] = *p.Publisher
	}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Year != nil {
		fields["year"] = *p.Year
	}
	return fields
}

// IsEmpty reports whether the patch carries no field at all.
func (p BookPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, isbn string) (Book, error)
	Delete(ctx context.Context, isbn string) error
	Update(ctx context.Context, isbn string, patch BookPatch) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Close() error
}
