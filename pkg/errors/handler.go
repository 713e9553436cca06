package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Code      string                 `json:"code,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler turns errors into HTTP responses and logs them
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err. Domain errors carry their own status,
// app errors carry theirs, anything else is a 500 with the cause hidden unless
// debug is on.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	requestID := chimiddleware.GetReqID(r.Context())

	var (
		status int
		resp   ErrorResponse
	)

	if de, ok := AsDomainError(err); ok {
		status = de.StatusCode
		if status == 0 {
			status = statusForDomainType(de.Type)
		}
		resp = ErrorResponse{
			Error:     true,
			Type:      string(de.Type),
			Code:      de.Code,
			Message:   de.Message,
			Details:   de.Details,
			Retryable: de.Retryable,
			RequestID: requestID,
		}
		h.log(r, status, resp.Message, err,
			zap.String("error_code", de.Code),
			zap.Bool("retryable", de.Retryable))
	} else if appErr := GetAppError(err); appErr != nil {
		status = appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		resp = ErrorResponse{
			Error:     true,
			Type:      string(appErr.Type),
			Code:      appErr.Code,
			Message:   appErr.Message,
			Details:   appErr.Details,
			RequestID: requestID,
		}
		if h.debug && appErr.StackTrace != "" {
			if resp.Details == nil {
				resp.Details = make(map[string]interface{})
			}
			resp.Details["stack_trace"] = appErr.StackTrace
		}
		h.log(r, status, resp.Message, err, zap.String("error_type", string(appErr.Type)))
	} else {
		status = http.StatusInternalServerError
		resp = ErrorResponse{
			Error:     true,
			Type:      string(ErrorTypeInternal),
			Message:   "An internal error occurred",
			RequestID: requestID,
		}
		if h.debug {
			resp.Message = err.Error()
		}
		h.log(r, status, "Unhandled error", err)
	}

	h.sendJSON(w, status, resp)
}

// HandleStatus sends a bare error with a chosen status
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.log(r, status, message, nil)
	h.sendJSON(w, status, ErrorResponse{
		Error:     true,
		Type:      http.StatusText(status),
		Message:   message,
		RequestID: chimiddleware.GetReqID(r.Context()),
	})
}

func (h *ErrorHandler) log(r *http.Request, status int, msg string, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
	}, extra...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	switch {
	case status >= 500:
		h.logger.Error(msg, fields...)
	case status >= 400:
		h.logger.Warn(msg, fields...)
	default:
		h.logger.Info(msg, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware recovers panics into a 500 response
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
