package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// StatusClientClosedRequest is the Nginx non standard status code used
// to record requests the client cancelled before we could answer.
const StatusClientClosedRequest = 499

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size.
type CustomResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		code:           http.StatusOK,
	}
}

// WriteHeader implements http.ResponseWriter interface. Only the first call is honored.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.ResponseWriter interface.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}
	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIError is the data model sent when an error occurred during request processing.
// Validation failures list every violation under `error`.
type APIError struct {
	RequestID string   `json:"requestid"`
	Status    int      `json:"status"`
	Message   string   `json:"message"`
	Errors    []string `json:"error,omitempty"`
}

// BookResponse wraps a single book.
type BookResponse struct {
	Book Book `json:"book"`
}

// BooksResponse wraps the list of all books.
type BooksResponse struct {
	Books []Book `json:"books"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func NewAPIError(requestid string, status int, message string, errs []string) *APIError {
	return &APIError{
		RequestID: requestid,
		Status:    status,
		Message:   message,
		Errors:    errs,
	}
}

// WriteErrorResponse is used to send error response to client. In case the client closes the request,
// it records the Nginx non standard status code 499 (Client Closed Request). In case of request
// processing timeout we set the status code to 504. In both cases the body is not sent.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, errResp *APIError) error {
	return WriteResponse(ctx, w, errResp.Status, errResp)
}

// WriteResponse is used to send a json api response to client. It sets the status code to 499
// in case client cancelled the request, and to 504 if the request processing timed out.
func WriteResponse(ctx context.Context, w http.ResponseWriter, status int, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(StatusClientClosedRequest)
		}
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}
