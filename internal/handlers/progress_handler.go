// internal/handlers/progress_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/service"
	"lesson_progress_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProgressHandler struct {
	service         service.ProgressService
	aggregateMonths int // GET /aggregate/monthly の months 省略時の期間
	logger          *slog.Logger
}

func NewProgressHandler(s service.ProgressService, aggregateMonths int, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		service:         s,
		aggregateMonths: aggregateMonths,
		logger:          logger,
	}
}

// PostProgress は進捗レコードを新規作成するためのハンドラ
func (h *ProgressHandler) PostProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostProgress"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	var req model.PostProgressRequest
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

	record, err := h.service.CreateProgress(r.Context(), tenantID, &req)
	if err != nil {
		logger.Error("Error creating progress record in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress record created successfully", slog.String("record_id", record.RecordID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, record, logger)
}

// GetProgressRecords は進捗レコードの一覧を取得するためのハンドラ。
// ?student_id= が指定されていればその生徒のレコードに絞り込みます。
func (h *ProgressHandler) GetProgressRecords(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgressRecords"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	var records []*model.ProgressRecord
	if studentID := r.URL.Query().Get("student_id"); studentID != "" {
		records, err = h.service.GetStudentProgress(r.Context(), tenantID, studentID)
	} else {
		records, err = h.service.GetTenantProgress(r.Context(), tenantID)
	}
	if err != nil {
		logger.Error("Error listing progress records in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if records == nil {
		records = []*model.ProgressRecord{}
	}
	logger.Info("Progress records listed successfully", slog.Int("count", len(records)))
	webutil.RespondWithJSON(w, http.StatusOK, records, logger)
}

// GetProgress は特定の進捗レコードを取得するためのハンドラ
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	recordID, appErr := parseRecordID(r)
	if appErr != nil {
		logger.Warn("Invalid record ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("record_id", recordID.String()))

	record, err := h.service.GetProgress(r.Context(), tenantID, recordID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Progress record not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting progress record from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress record retrieved successfully")
	webutil.RespondWithJSON(w, http.StatusOK, record, logger)
}

// PutSong は進捗レコードに曲を追加または更新するためのハンドラ
func (h *ProgressHandler) PutSong(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutSong"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	recordID, appErr := parseRecordID(r)
	if appErr != nil {
		logger.Warn("Invalid record ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("record_id", recordID.String()))

	var req model.UpsertSongRequest
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

	record, err := h.service.UpsertSong(r.Context(), tenantID, recordID, &req)
	if err != nil {
		logger.Error("Error upserting song in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Song upserted successfully", slog.String("number", req.Number), slog.String("title", req.Title))
	webutil.RespondWithJSON(w, http.StatusOK, record, logger)
}

// CompleteUpTo は「N番までの曲を完了」を一括登録するためのハンドラ
func (h *ProgressHandler) CompleteUpTo(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "CompleteUpTo"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	recordID, appErr := parseRecordID(r)
	if appErr != nil {
		logger.Warn("Invalid record ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("record_id", recordID.String()))

	var req model.CompleteUpToRequest
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

	record, err := h.service.MarkCompletedUpTo(r.Context(), tenantID, recordID, req.UpTo)
	if err != nil {
		logger.Error("Error marking songs completed in service", slog.Any("error", err), slog.Int("up_to", req.UpTo))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Songs marked completed successfully", slog.Int("up_to", req.UpTo))
	webutil.RespondWithJSON(w, http.StatusOK, record, logger)
}

// DeleteProgress は特定の進捗レコードを削除するためのハンドラ
func (h *ProgressHandler) DeleteProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteProgress"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	recordID, appErr := parseRecordID(r)
	if appErr != nil {
		logger.Warn("Invalid record ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("record_id", recordID.String()))

	if err := h.service.DeleteProgress(r.Context(), tenantID, recordID); err != nil {
		logger.Error("Error deleting progress record in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress record deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

// GetMonthlyAggregate は月別完了曲数レポートを取得するためのハンドラ。
// ?months= で期間を指定できます (省略時は設定値)。
func (h *ProgressHandler) GetMonthlyAggregate(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetMonthlyAggregate"))

	tenantID, err := middleware.GetTenantIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID.String()))

	months := h.aggregateMonths
	if monthsStr := r.URL.Query().Get("months"); monthsStr != "" {
		parsed, err := strconv.Atoi(monthsStr)
		if err != nil || parsed <= 0 {
			logger.Warn("Invalid months query parameter", slog.String("months", monthsStr))
			appErr := model.NewAppError("INVALID_URL_PARAM", "monthsの形式が正しくありません。", "months", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		months = parsed
	}

	records, err := h.service.GetTenantProgress(r.Context(), tenantID)
	if err != nil {
		logger.Error("Error listing progress records in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	aggregate := service.AggregateMonthly(records, months, time.Now())
	logger.Info("Monthly aggregate computed successfully", slog.Int("months", months))
	webutil.RespondWithJSON(w, http.StatusOK, aggregate, logger)
}

// parseRecordID はURLパラメータ record_id をUUIDとして取り出します
func parseRecordID(r *http.Request) (uuid.UUID, *model.AppError) {
	recordIDStr := chi.URLParam(r, "record_id")
	recordID, err := uuid.Parse(recordIDStr)
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_URL_PARAM", "record_idの形式が正しくありません。", "record_id", model.ErrInvalidInput)
	}
	return recordID, nil
}
