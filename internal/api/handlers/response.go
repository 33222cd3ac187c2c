package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

const (
	maxBodyBytes = 1 << 20

	msgInternalError = "что-то пошло не так, попробуйте еще раз"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConflictResponse тело ответа 409: какая услуга и на какое время недоступна
type ConflictResponse struct {
	Error       string `json:"error"`
	ServiceID   int64  `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// RespondJSON пишет ответ со статусом и JSON-телом; nil тело не пишется
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет {"error": message}
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

// RespondInternalError отвечает 500 без внутренних подробностей
func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// DecodeJSON читает тело запроса в dst, неизвестные поля запрещены
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// PathInt64 читает положительный int64 из переменной пути
func PathInt64(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// QueryInt64s читает повторяющийся параметр (?id=1&id=2), также принимает "1,2"
func QueryInt64s(r *http.Request, name string) ([]int64, error) {
	var ids []int64
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q", name, part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Reference нормализует код бронирования из пути: 8 латинских букв или цифр без учета регистра
func Reference(raw string) (string, bool) {
	ref := strings.ToUpper(strings.TrimSpace(raw))
	if len(ref) != 8 {
		return "", false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return "", false
		}
	}
	return ref, true
}

// RespondSlotConflict отвечает 409 с указанием недоступной услуги и времени
func RespondSlotConflict(w http.ResponseWriter, message string, serviceID int64, serviceName, date, at string) {
	RespondJSON(w, http.StatusConflict, ConflictResponse{
		Error:       message,
		ServiceID:   serviceID,
		ServiceName: serviceName,
		Date:        date,
		Time:        at,
	})
}
