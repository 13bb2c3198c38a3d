// internal/handlers/tenant_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/service"
	"lesson_progress_keep/internal/webutil"
)

type TenantHandler struct {
	service service.TenantService
	logger  *slog.Logger
}

func NewTenantHandler(s service.TenantService, logger *slog.Logger) *TenantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantHandler{
		service: s,
		logger:  logger,
	}
}

// PostTenant は新しいテナント (教室) を作成するためのハンドラ。
// テナントスコープの外にあるため、X-Tenant-ID ヘッダーは不要です。
func (h *TenantHandler) PostTenant(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostTenant"))

	var req model.PostTenantRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if appErr := webutil.ValidateStruct(req); appErr != nil {
		logger.Warn("Validation failed", slog.String("message", appErr.Detail.Message), slog.Any("request", req))
		webutil.HandleError(w, logger, appErr)
		return
	}

	tenant, err := h.service.CreateTenant(r.Context(), req.Name)
	if err != nil {
		logger.Error("Error creating tenant in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Tenant created successfully", slog.String("tenant_id", tenant.TenantID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, tenant, logger)
}
