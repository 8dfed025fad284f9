package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/editor"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "服务器内部错误",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// rosterError 把排班表和编辑器返回的错误转换为响应，无法识别的错误按服务器内部错误处理
func (h *Handler) rosterError(w http.ResponseWriter, r *http.Request, err error) {
	var fitErr *roster.FitError
	if errors.As(err, &fitErr) {
		// 不满足规则时把冲突一并返回，前端据此提示是否强制放入
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: fitErr.Error(),
			Data:    fitErr.Fit,
		})
		return
	}

	if isUserFacing(err) {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.internalServerError(w, r, err)
}

func isUserFacing(err error) bool {
	known := []error{
		roster.ErrInvalidJob,
		roster.ErrDuplicateJob,
		roster.ErrInvalidHorizon,
		roster.ErrSlotInvalid,
		roster.ErrSlotFull,
		roster.ErrRosterFull,
		roster.ErrAlreadyAssigned,
		roster.ErrDoesNotFit,
		editor.ErrNothingToUndo,
		editor.ErrUndoConflict,
	}
	for _, target := range known {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
