package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/foodbridge/api/internal/domain"
)

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataResponse{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload, err := json.Marshal(messageResponse{Success: false, Message: msg})
	if err != nil {
		_, _ = w.Write([]byte(`{"success":false,"message":"internal error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps domain sentinel errors onto the HTTP taxonomy:
// validation 400, missing 404, ownership 403, state conflicts 400,
// everything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDonationNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrDonationUnavailable),
		errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrNotAccepted):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
