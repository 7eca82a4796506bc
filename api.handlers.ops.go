package main

import (
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// export goroutines to be used by expvar handler.
var goroutines = expvar.NewInt("goroutines")

// Maintenance handles request to enable or disable the maintenance mode of the service and respond
// to client requests with predefined message when the service is in maintenance mode.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	var response map[string]interface{}
	status := http.StatusOK

	q := r.URL.Query()
	mstatus := "show"
	if ps.ByName("status") != mstatus {
		mstatus = q.Get("status")
	}

	switch mstatus {
	case "enable":
		api.mode.mu.Lock()
		api.mode.message = q.Get("msg")
		api.mode.started = api.clock.Now()
		api.mode.enabled.Store(true)
		response = map[string]interface{}{
			"requestid":           requestID,
			"maintenance.started": api.mode.started.Format(time.RFC1123),
			"maintenance.message": api.mode.message,
			"message":             "Maintenance mode enabled successfully.",
		}
		api.mode.mu.Unlock()
		logger.Info("maintenance mode enabled")

	case "disable":
		api.mode.mu.Lock()
		api.mode.enabled.Store(false)
		api.mode.started = time.Time{}
		api.mode.message = ""
		api.mode.mu.Unlock()
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "Maintenance mode disabled successfully.",
		}
		logger.Info("maintenance mode disabled")

	case "show":
		api.mode.mu.RLock()
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "service currently unavailable.",
			"reason":    api.mode.message,
			"since":     api.mode.started.Format(time.RFC1123),
		}
		api.mode.mu.RUnlock()
		status = http.StatusServiceUnavailable

	default:
		api.sendError(w, r, http.StatusBadRequest, "invalid maintenance status", []string{"status must be enable or disable"})
		return
	}

	if err := WriteResponse(r.Context(), w, status, response); err != nil {
		logger.Error("failed to send maintenance response", zap.String("request.maintenance", mstatus), zap.Error(err))
	}
}

// GetMemStats returns memory statistics with number of goroutines in json.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC forces the run of the garbage collector asynchronously.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go runtime.GC()
	if err := WriteResponse(r.Context(), w, http.StatusOK, map[string]string{"called": "go runtime.GC()"}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send run gc response", zap.Error(err))
	}
}

// FreeOSMemory forces the garbage collector to and tries to returns the memory
// back to the operating system in an asynchronous fashion.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go debug.FreeOSMemory()
	if err := WriteResponse(r.Context(), w, http.StatusOK, map[string]string{"called": "go debug.FreeOSMemory()"}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send free os memory response", zap.Error(err))
	}
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returns by this handler do not contain the ops request which triggered that.
// That is why we remove 1 from the called field value in order to match the status stats.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.mode.mu.RLock()
	maintenanceModeStartedTime := ""
	if !api.mode.started.IsZero() {
		maintenanceModeStartedTime = api.mode.started.Format(time.RFC1123)
	}
	maintenance := map[string]interface{}{
		"enabled": api.mode.enabled.Load(),
		"started": maintenanceModeStartedTime,
		"message": api.mode.message,
	}
	api.mode.mu.RUnlock()

	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}

	api.stats.mu.RLock()
	status := make(map[int]uint64, len(api.stats.status))
	for code, count := range api.stats.status {
		status[code] = count
	}
	api.stats.mu.RUnlock()

	err := WriteResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"requestid":     requestID,
		"app.version":   api.stats.version,
		"app.container": api.stats.container,
		"app.platform":  api.stats.platform,
		"go.version":    api.stats.runtime,
		"called":        called,
		"started":       api.stats.started.Format(time.RFC1123),
		"uptime":        fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"maintenance":   maintenance,
		"status":        status,
	})
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send statistics response", zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations/settings. Credentials are never exposed.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	err := WriteResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"requestid": requestID,
		"configs":   api.config,
	})
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send settings response", zap.Error(err))
	}
}

// Ready reports whether the storage answers a full listing query.
func (api *APIHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		logger.Error("storage is not ready", zap.Error(err))
		api.sendError(w, r, http.StatusServiceUnavailable, "storage is not ready", nil)
		return
	}

	err = WriteResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"requestid":   requestID,
		"message":     "ready",
		"books.total": len(books),
	})
	if err != nil {
		logger.Error("failed to send ready response", zap.Error(err))
	}
}

// NotFound returns a handler used by the router for every unknown route.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || !api.idsHandler.IsValid(requestID, RequestIDPrefix) {
			requestID = api.idsHandler.Generate(RequestIDPrefix)
		}
		w.Header().Set(RequestIDHeader, requestID)
		err := WriteResponse(r.Context(), w, http.StatusNotFound, map[string]string{
			"requestid": requestID,
			"message":   "route does not exist",
			"path":      r.Method + " " + r.URL.Path,
		})
		if err != nil {
			api.logger.Error("failed to send not found response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}

// OpsHandlerWrapper turns a standard http.Handler into an httprouter.Handle.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

func (api *APIHandler) GetCPUProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Profile(w, r)
}

func (api *APIHandler) GetTraceProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Trace(w, r)
}

func (api *APIHandler) GetSymbol(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Symbol(w, r)
}

func (api *APIHandler) GetCmdLine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pprof.Cmdline(w, r)
}
