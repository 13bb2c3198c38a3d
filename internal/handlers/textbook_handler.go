// internal/handlers/textbook_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/service"
	"lesson_progress_keep/internal/webutil"
)

type TextbookHandler struct {
	service service.TextbookService
	logger  *slog.Logger
}

func NewTextbookHandler(s service.TextbookService, logger *slog.Logger) *TextbookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextbookHandler{
		service: s,
		logger:  logger,
	}
}

// GetTextbooks は教材カタログの一覧を取得するためのハンドラ
func (h *TextbookHandler) GetTextbooks(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTextbooks"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	textbooks, err := h.service.ListTextbooks(r.Context(), tenantID)
	if err != nil {
		logger.Error("Error listing textbooks in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if textbooks == nil {
		textbooks = []*model.Textbook{}
	}
	logger.Info("Textbooks listed successfully", slog.Int("count", len(textbooks)))
	webutil.RespondWithJSON(w, http.StatusOK, textbooks, logger)
}

// PostTextbook は教材カタログに1件登録するためのハンドラ。
// AI抽出で unknown_textbooks に挙がった教材は、ここから手動で登録して解決します。
func (h *TextbookHandler) PostTextbook(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostTextbook"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	var req model.PostTextbookRequest
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

	textbook, err := h.service.CreateTextbook(r.Context(), tenantID, &req)
	if err != nil {
		logger.Error("Error creating textbook in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Textbook created successfully", slog.String("textbook_id", textbook.TextbookID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, textbook, logger)
}
