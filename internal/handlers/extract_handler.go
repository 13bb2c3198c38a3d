// internal/handlers/extract_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/service"
	"lesson_progress_keep/internal/webutil"
)

type ExtractHandler struct {
	service service.ExtractService
	logger  *slog.Logger
}

func NewExtractHandler(s service.ExtractService, logger *slog.Logger) *ExtractHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractHandler{
		service: s,
		logger:  logger,
	}
}

// PostExtract はレッスンノート1件をAIで解析し、進捗へ反映するためのハンドラ。
// 抽出できなかった場合も 200 で空の結果を返します (クライアント側で再入力を促す)。
func (h *ExtractHandler) PostExtract(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostExtract"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	var req model.ExtractRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if appErr := webutil.ValidateStruct(req); appErr != nil {
		logger.Warn("Validation failed", slog.String("message", appErr.Detail.Message))
		webutil.HandleError(w, logger, appErr)
		return
	}

	result, err := h.service.ExtractAndApply(r.Context(), tenantID, &req)
	if err != nil {
		logger.Error("Error processing lesson note in service", slog.Any("error", err), slog.String("lesson_note_id", req.LessonNoteID))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson note processed successfully",
		slog.String("lesson_note_id", req.LessonNoteID),
		slog.Int("updated_items", len(result.UpdatedItems)),
		slog.Int("unknown_textbooks", len(result.UnknownTextbooks)),
	)
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}
