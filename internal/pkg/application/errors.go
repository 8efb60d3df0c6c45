package application

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
)

//Error is the body of every failed response
type Error struct {
	Status  int                 `json:"status"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

const (
	errCodeBadRequest   = "bad_request"
	errCodeNotFound     = "not_found"
	errCodeUnauthorised = "unauthorised"
	errCodeForbidden    = "forbidden"
	errCodeConflict     = "conflict"
	errCodeInternal     = "internal_error"
	errCodeValidation   = "validation_error"
)

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to write %d response: %s", status, err.Error())
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

//writeDomainError maps errors returned by the services onto http responses
func (h *handlers) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, Error{
			Status:  http.StatusBadRequest,
			Code:    errCodeValidation,
			Message: verr.Error(),
			Fields:  map[string][]string{verr.Field: {verr.Reason}},
		})
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, errCodeNotFound, "Not found.")
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, errCodeForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, domain.ErrIntegrityViolation):
		h.writeError(w, http.StatusConflict, errCodeConflict, err.Error())
	default:
		h.log.Errorf("Request %s %s failed: %s", r.Method, r.URL.Path, err.Error())
		h.writeError(w, http.StatusInternalServerError, errCodeInternal, "Internal server error.")
	}
}

func (h *handlers) unauthorised(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	h.writeError(w, http.StatusUnauthorized, errCodeUnauthorised, err.Error())
}
