package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const bookDeletedMessage = "Book deleted"

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := StatusResponse{
		RequestID: requestID,
		Status:    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		Message:   "Hello. Books api is available. Enjoy :)",
	}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// sendError writes an APIError and logs if the client could not receive it.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, status int, message string, errs []string) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	errResp := NewAPIError(requestID, status, message, errs)
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send error response", zap.Error(err))
	}
}

// decodeViolations turns a decoding failure of an already validated body
// into client messages. A number like 264.0 passes the integer schema rule
// but cannot fill an int field, so it is reported against its field.
func decodeViolations(err error) []string {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return []string{fmt.Sprintf("%s: Invalid type. Expected: %s, given: %s", ute.Field, ute.Type.Kind(), ute.Value)}
	}
	return []string{invalidJSONPayload}
}

// readAndValidate loads the raw body and checks it against the schema.
// It answers the client itself and returns false when the pipeline must stop.
func (api *APIHandler) readAndValidate(w http.ResponseWriter, r *http.Request, kind SchemaKind, message string) ([]byte, bool) {
	logger := api.GetLoggerFromContext(r.Context())
	body, err := ReadRequestBody(w, r, api.maxBodyBytes())
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			logger.Error(message, zap.Int64("request.limit", mbe.Limit), zap.Error(err))
			api.sendError(w, r, http.StatusRequestEntityTooLarge, message, []string{"request body too large"})
			return nil, false
		}
		logger.Error(message, zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, message, []string{invalidJSONPayload})
		return nil, false
	}

	result := api.validator.Validate(kind, body)
	if err = result.Err(); err != nil {
		logger.Error(message, zap.Strings("request.violations", result.Errors), zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, message, result.Errors)
		return nil, false
	}
	return body, true
}

// CreateBook validates the payload against the create schema and stores the new book.
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	body, ok := api.readAndValidate(w, r, CreateBookSchema, "failed to create the book")
	if !ok {
		return
	}

	var book Book
	if err := json.Unmarshal(body, &book); err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, "failed to create the book", decodeViolations(err))
		return
	}

	book, err := api.bookService.Add(r.Context(), book)
	if errors.Is(err, ErrBookAlreadyExists) {
		logger.Error("book already exists", zap.String("book.isbn", book.ISBN))
		api.sendError(w, r, http.StatusConflict, "book already exists", nil)
		return
	}
	if err != nil {
		logger.Error("failed to create book", zap.String("book.isbn", book.ISBN), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to create the book", nil)
		return
	}

	logger.Info("success to create book", zap.String("book.isbn", book.ISBN))
	if err = WriteResponse(r.Context(), w, http.StatusCreated, BookResponse{Book: book}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetAllBooks lists every stored book.
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to get all books", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to get all books", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}

	logger.Info("success to get all books", zap.Int("books.total", len(books)))
	if err = WriteResponse(r.Context(), w, http.StatusOK, BooksResponse{Books: books}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook fetches a single book by isbn.
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	isbn := ps.ByName("isbn")
	book, err := api.bookService.GetOne(r.Context(), isbn)
	if errors.Is(err, ErrBookNotFound) {
		logger.Error("book does not exist", zap.String("book.isbn", isbn))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", nil)
		return
	}
	if err != nil {
		logger.Error("failed to get book", zap.String("book.isbn", isbn), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to get the book", nil)
		return
	}

	logger.Info("success to get book", zap.String("book.isbn", isbn))
	if err = WriteResponse(r.Context(), w, http.StatusOK, BookResponse{Book: book}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// UpdateBook validates the partial payload against the update schema then
// merges it onto the stored book. The isbn itself cannot be changed.
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	isbn := ps.ByName("isbn")
	body, ok := api.readAndValidate(w, r, UpdateBookSchema, "failed to update the book")
	if !ok {
		return
	}

	var patch BookPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		logger.Error("failed to update book", zap.String("book.isbn", isbn), zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, "failed to update the book", decodeViolations(err))
		return
	}

	book, err := api.bookService.Update(r.Context(), isbn, patch)
	if errors.Is(err, ErrBookNotFound) {
		logger.Error("book does not exist", zap.String("book.isbn", isbn))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", nil)
		return
	}
	if err != nil {
		logger.Error("failed to update book", zap.String("book.isbn", isbn), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to update the book", nil)
		return
	}

	logger.Info("success to update book", zap.String("book.isbn", isbn))
	if err = WriteResponse(r.Context(), w, http.StatusOK, BookResponse{Book: book}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// DeleteOneBook removes a book by isbn.
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	isbn := ps.ByName("isbn")
	err := api.bookService.Delete(r.Context(), isbn)
	if errors.Is(err, ErrBookNotFound) {
		logger.Error("book does not exist", zap.String("book.isbn", isbn))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", nil)
		return
	}
	if err != nil {
		logger.Error("failed to delete book", zap.String("book.isbn", isbn), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to delete the book", nil)
		return
	}

	logger.Info("success to delete book", zap.String("book.isbn", isbn))
	if err = WriteResponse(r.Context(), w, http.StatusOK, MessageResponse{Message: bookDeletedMessage}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}
