package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStorageDown = errors.New("storage is down")

func newTestAPIHandler(t *testing.T, storage BookStorage) *APIHandler {
	t.Helper()
	bs := NewBookService(zap.NewNop(), nil, storage)
	config := &Config{Server: ServerConfig{MaxBodyBytes: 1 << 20}}
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: NewMockClocker().Now()},
		NewMockClocker(),
		NewMockUIDHandler("abc", true),
		newTestValidator(t),
		bs,
	)
}

// readResponse returns the status code and the decoded json body.
func readResponse(t *testing.T, w *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	return res.StatusCode, string(data)
}

func isbnParams(isbn string) httprouter.Params {
	return httprouter.Params{httprouter.Param{Key: "isbn", Value: isbn}}
}

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(t, &MockBookStorage{})
	api.Status(w, req, httprouter.Params{})
	code, body := readResponse(t, w)
	assert.Equal(t, http.StatusOK, code)

	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, "up & running since 0 mins", m["status"])
	assert.Equal(t, "Hello. Books api is available. Enjoy :)", m["message"])
	_, ok := m["requestid"]
	assert.True(t, ok)
}

// TestIndexHandler ensures the index redirects to the status.
func TestIndexHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(t, &MockBookStorage{})
	api.Index(w, req, httprouter.Params{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/status", w.Header().Get("Location"))
}

// TestCreateBookHandler ensures api handler validates then creates a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	var addCalled bool
	var addErr error
	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			addCalled = true
			return book, addErr
		},
	}
	api := newTestAPIHandler(t, mockRepo)

	reset := func(err error) {
		addCalled = false
		addErr = err
	}

	t.Run("should pass: valid payload", func(t *testing.T) {
		reset(nil)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(validCreatePayload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusCreated, code)
		assert.True(t, addCalled)
		assert.JSONEq(t, `{"book":`+validCreatePayload+`}`, body)
	})

	t.Run("should fail: missing fields", func(t *testing.T) {
		reset(nil)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"isbn":"123","title":"t"}`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, addCalled, "storage must not be reached")

		var apiErr APIError
		require.NoError(t, json.Unmarshal([]byte(body), &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Len(t, apiErr.Errors, 6)
	})

	t.Run("should fail: extra field", func(t *testing.T) {
		reset(nil)
		payload := strings.Replace(validCreatePayload, `"year": 2017`, `"year": 2017, "price": "10$"`, 1)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, _ := readResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, addCalled)
	})

	t.Run("should fail: malformed json", func(t *testing.T) {
		reset(nil)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"isbn":`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.JSONEq(t, `{"requestid":"","status":400,"message":"failed to create the book","error":["invalid JSON payload"]}`, body)
	})

	t.Run("should fail: integral float pages", func(t *testing.T) {
		reset(nil)
		payload := strings.Replace(validCreatePayload, `264`, `264.0`, 1)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, addCalled, "storage must not be reached")

		var apiErr APIError
		require.NoError(t, json.Unmarshal([]byte(body), &apiErr))
		require.Len(t, apiErr.Errors, 1)
		assert.Contains(t, apiErr.Errors[0], "pages")
		assert.Contains(t, apiErr.Errors[0], "264.0")
		assert.NotContains(t, apiErr.Errors, invalidJSONPayload)
	})

	t.Run("should fail: empty body", func(t *testing.T) {
		reset(nil)
		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, _ := readResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, addCalled)
	})

	t.Run("should fail: duplicate isbn", func(t *testing.T) {
		reset(ErrBookAlreadyExists)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(validCreatePayload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusConflict, code)
		assert.JSONEq(t, `{"requestid":"","status":409,"message":"book already exists"}`, body)
	})

	t.Run("should fail: storage error", func(t *testing.T) {
		reset(errStorageDown)
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(validCreatePayload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.NotContains(t, body, errStorageDown.Error())
	})

	t.Run("should fail: body too large", func(t *testing.T) {
		reset(nil)
		api.config.Server.MaxBodyBytes = 16
		defer func() { api.config.Server.MaxBodyBytes = 1 << 20 }()
		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(validCreatePayload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		code, _ := readResponse(t, w)
		assert.Equal(t, http.StatusRequestEntityTooLarge, code)
		assert.False(t, addCalled)
	})
}

// TestGetAllBooksHandler ensures the listing and its failure.
func TestGetAllBooksHandler(t *testing.T) {
	t.Run("should pass: empty list", func(t *testing.T) {
		api := newTestAPIHandler(t, &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) { return nil, nil },
		})
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books", nil), httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"books":[]}`, body)
	})

	t.Run("should pass: some books", func(t *testing.T) {
		api := newTestAPIHandler(t, &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) { return []Book{testBook()}, nil },
		})
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books", nil), httprouter.Params{})
		code, body := readResponse(t, w)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"books":[`+validCreatePayload+`]}`, body)
	})

	t.Run("should fail: storage error", func(t *testing.T) {
		api := newTestAPIHandler(t, &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) { return nil, errStorageDown },
		})
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books", nil), httprouter.Params{})
		code, _ := readResponse(t, w)
		assert.Equal(t, http.StatusInternalServerError, code)
	})
}

// TestGetOneBookHandler ensures a book is fetched by its isbn.
func TestGetOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, isbn string) (Book, error) {
			switch isbn {
			case testBook().ISBN:
				return testBook(), nil
			case "broken":
				return Book{}, errStorageDown
			}
			return Book{}, ErrBookNotFound
		},
	}
	api := newTestAPIHandler(t, mockRepo)

	testCases := []struct {
		name string
		isbn string
		code int
		body string
	}{
		{"should pass: existent book", testBook().ISBN, http.StatusOK, `{"book":` + validCreatePayload + `}`},
		{"should fail: unknown book", "0000000000", http.StatusNotFound, `{"requestid":"","status":404,"message":"book does not exist"}`},
		{"should fail: storage error", "broken", http.StatusInternalServerError, `{"requestid":"","status":500,"message":"failed to get the book"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/books/"+tc.isbn, nil), isbnParams(tc.isbn))
			code, body := readResponse(t, w)
			assert.Equal(t, tc.code, code)
			assert.JSONEq(t, tc.body, body)
		})
	}
}

// TestUpdateBookHandler ensures partial updates are validated and merged.
//
//nolint:funlen
func TestUpdateBookHandler(t *testing.T) {
	var updateCalled bool
	mockRepo := &MockBookStorage{
		UpdateFunc: func(ctx context.Context, isbn string, patch BookPatch) (Book, error) {
			updateCalled = true
			switch isbn {
			case testBook().ISBN:
				return patch.Apply(testBook()), nil
			case "broken":
				return Book{}, errStorageDown
			}
			return Book{}, ErrBookNotFound
		},
	}
	api := newTestAPIHandler(t, mockRepo)

	testCases := []struct {
		name         string
		isbn         string
		payload      string
		code         int
		storageReach bool
	}{
		{"should pass: single field", testBook().ISBN, `{"author":"Someone Else"}`, http.StatusOK, true},
		{"should fail: empty object", testBook().ISBN, `{}`, http.StatusBadRequest, false},
		{"should fail: empty body", testBook().ISBN, ``, http.StatusBadRequest, false},
		{"should fail: isbn in payload", testBook().ISBN, `{"isbn":"999"}`, http.StatusBadRequest, false},
		{"should fail: year too old", testBook().ISBN, `{"year":500}`, http.StatusBadRequest, false},
		{"should fail: extra field", testBook().ISBN, `{"price":"10$"}`, http.StatusBadRequest, false},
		{"should fail: integral float year", testBook().ISBN, `{"year":2017.0}`, http.StatusBadRequest, false},
		{"should fail: pages beyond int32", testBook().ISBN, `{"pages":3000000000}`, http.StatusBadRequest, false},
		{"should fail: unknown book", "0000000000", `{"pages":10}`, http.StatusNotFound, true},
		{"should fail: storage error", "broken", `{"pages":10}`, http.StatusInternalServerError, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			updateCalled = false
			req := httptest.NewRequest(http.MethodPut, "/books/"+tc.isbn, bytes.NewBufferString(tc.payload))
			w := httptest.NewRecorder()
			api.UpdateBook(w, req, isbnParams(tc.isbn))
			code, body := readResponse(t, w)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.storageReach, updateCalled)

			if code == http.StatusOK {
				var resp BookResponse
				require.NoError(t, json.Unmarshal([]byte(body), &resp))
				expected := testBook()
				expected.Author = "Someone Else"
				assert.Equal(t, expected, resp.Book)
			}
			if code == http.StatusBadRequest {
				var apiErr APIError
				require.NoError(t, json.Unmarshal([]byte(body), &apiErr))
				assert.NotEmpty(t, apiErr.Errors)
				if strings.HasPrefix(tc.payload, "{") && json.Valid([]byte(tc.payload)) {
					assert.NotContains(t, apiErr.Errors, invalidJSONPayload)
				}
			}
		})
	}
}

// TestDeleteOneBookHandler ensures deletion and its not found case.
func TestDeleteOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		DeleteFunc: func(ctx context.Context, isbn string) error {
			switch isbn {
			case testBook().ISBN:
				return nil
			case "broken":
				return errStorageDown
			}
			return ErrBookNotFound
		},
	}
	api := newTestAPIHandler(t, mockRepo)

	testCases := []struct {
		name string
		isbn string
		code int
		body string
	}{
		{"should pass: existent book", testBook().ISBN, http.StatusOK, `{"message":"Book deleted"}`},
		{"should fail: unknown book", "0000000000", http.StatusNotFound, `{"requestid":"","status":404,"message":"book does not exist"}`},
		{"should fail: storage error", "broken", http.StatusInternalServerError, `{"requestid":"","status":500,"message":"failed to delete the book"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/books/"+tc.isbn, nil), isbnParams(tc.isbn))
			code, body := readResponse(t, w)
			assert.Equal(t, tc.code, code)
			assert.JSONEq(t, tc.body, body)
		})
	}
}

// TestBookScenario runs a full lifecycle through the router and the bolt storage.
func TestBookScenario(t *testing.T) {
	api := newTestAPIHandler(t, newTestBoltStore(t))
	pub, ops := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(), NewMiddlewareMap(pub, ops))

	do := func(method, path, payload string) (int, string) {
		var body io.Reader
		if payload != "" {
			body = strings.NewReader(payload)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, body))
		return readResponse(t, w)
	}

	code, body := do(http.MethodPost, "/books", validCreatePayload)
	require.Equal(t, http.StatusCreated, code, body)
	assert.JSONEq(t, `{"book":`+validCreatePayload+`}`, body)

	code, body = do(http.MethodGet, "/books/0691161518", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"book":`+validCreatePayload+`}`, body)

	code, _ = do(http.MethodPost, "/books", validCreatePayload)
	assert.Equal(t, http.StatusConflict, code)

	code, body = do(http.MethodPut, "/books/0691161518", `{"year":500}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "year")

	code, body = do(http.MethodPut, "/books/0691161518", `{"author":"Someone Else"}`)
	assert.Equal(t, http.StatusOK, code)
	var updated BookResponse
	require.NoError(t, json.Unmarshal([]byte(body), &updated))
	expected := testBook()
	expected.Author = "Someone Else"
	assert.Equal(t, expected, updated.Book)

	code, body = do(http.MethodGet, "/books", "")
	assert.Equal(t, http.StatusOK, code)
	var all BooksResponse
	require.NoError(t, json.Unmarshal([]byte(body), &all))
	assert.Equal(t, []Book{expected}, all.Books)

	code, body = do(http.MethodDelete, "/books/0691161518", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"Book deleted"}`, body)

	code, _ = do(http.MethodGet, "/books/0691161518", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(http.MethodDelete, "/books/0691161518", "")
	assert.Equal(t, http.StatusNotFound, code)
}
