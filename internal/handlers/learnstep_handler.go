// internal/handlers/learnstep_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"lesson_progress_keep/internal/learnstep"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/service"
	"lesson_progress_keep/internal/webutil"
)

// LearnStepHandler は練習ステップ関連のハンドラです。
// 状態遷移はすべて純粋関数で、状態はリクエストで受け取りレスポンスで返します
// (サーバー側には保存しない。保存は曲のupsertに learning_step を含めて行う)。
type LearnStepHandler struct {
	memoService service.MemoService
	logger      *slog.Logger
}

func NewLearnStepHandler(memoService service.MemoService, logger *slog.Logger) *LearnStepHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LearnStepHandler{
		memoService: memoService,
		logger:      logger,
	}
}

// GetSteps は練習ステップのカタログ定義を返すためのハンドラ
func (h *LearnStepHandler) GetSteps(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSteps"))
	webutil.RespondWithJSON(w, http.StatusOK, learnstep.Steps, logger)
}

// SelectStep はステップ選択 (選択・取り消し・バックフィル) を適用するためのハンドラ
func (h *LearnStepHandler) SelectStep(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SelectStep"))

	var req model.SelectStepRequest
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

	next, err := learnstep.Select(req.State, req.StepID)
	if err != nil {
		logger.Warn("Step selection rejected", slog.String("step_id", req.StepID), slog.Any("error", err))
		appErr := model.NewAppError("VALIDATION_ERROR", "ステップIDが正しくありません。", "step_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, next, logger)
}

// ToggleSubItem はチェック項目の有無を反転するためのハンドラ
func (h *LearnStepHandler) ToggleSubItem(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ToggleSubItem"))

	var req model.ToggleSubItemRequest
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

	next, err := learnstep.ToggleSubItem(req.State, req.StepID, req.Item)
	if err != nil {
		logger.Warn("Sub item toggle rejected", slog.String("step_id", req.StepID), slog.Any("error", err))
		appErr := model.NewAppError("VALIDATION_ERROR", "ステップIDが正しくありません。", "step_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, next, logger)
}

// ComposeMemo はステップ状態から練習メモ1行を生成するためのハンドラ
func (h *LearnStepHandler) ComposeMemo(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ComposeMemo"))

	var req model.MemoRequest
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

	resp := h.memoService.ComposeMemo(r.Context(), &req)
	logger.Info("Memo composed successfully", slog.Bool("improved", resp.Improved))
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}
