package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK, headers: map[string]string{}}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func ErrorResponse(statusCode int, class, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: class, Message: message})
}

const classBadRequest = "bad_request"

// notFoundSentinels pairs each ownership error with the not-found error a
// caller sees when foreign resources are hidden.
var notFoundSentinels = []struct{ notOwned, notFound error }{
	{core.ErrAccountNotOwned, core.ErrAccountNotFound},
}

var lookupSentinels = []error{
	core.ErrAccountNotFound, core.ErrTransactionNotFound, core.ErrSubscriptionNotFound,
	core.ErrGoalNotFound, core.ErrCategoryNotFound,
}

// errorStatus maps err to a status, error class and client-facing message.
// With hideForeign set, a resource owned by someone else is reported exactly
// like a missing one.
func errorStatus(err error, hideForeign bool) (int, string, string) {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest, classBadRequest, err.Error()
	}

	class := core.Classify(err)
	switch class {
	case core.ClassValidation:
		return http.StatusBadRequest, string(class), err.Error()
	case core.ClassNotFound:
		return http.StatusNotFound, string(class), lookupMessage(err)
	case core.ClassNotOwned:
		if hideForeign {
			msg := "resource not found"
			for _, s := range notFoundSentinels {
				if errors.Is(err, s.notOwned) {
					msg = s.notFound.Error()
				}
			}
			return http.StatusNotFound, string(core.ClassNotFound), msg
		}
		return http.StatusForbidden, string(class), "resource belongs to another owner"
	case core.ClassConflict:
		return http.StatusConflict, string(class), err.Error()
	default:
		return http.StatusInternalServerError, string(core.ClassFatal), "internal error"
	}
}

// lookupMessage drops ids from not-found messages so missing and hidden
// resources read the same.
func lookupMessage(err error) string {
	for _, s := range lookupSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "resource not found"
}

// writeError logs fatal errors and writes the mapped error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, class, msg := errorStatus(err, s.hideForeign)
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	if status >= http.StatusInternalServerError {
		logger.LogError(r.Context(), "Request failed", err, op, class, nil)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldOperation, op, log.FieldErrorClass, class, log.FieldError, err.Error())
	}
	ErrorResponse(status, class, msg).Write(w)
}
