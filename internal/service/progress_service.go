// internal/service/progress_service.go
package service

import (
	"context"
	"strconv"
	"time"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressService は進捗レコードのユースケースです。
//
// 同一レコードへの同時 upsert は想定していない (単一編集者前提)。
// 競合した場合は songs 配列全体が last-write-wins で上書きされる。
type ProgressService interface {
	CreateProgress(ctx context.Context, tenantID uuid.UUID, req *model.PostProgressRequest) (*model.ProgressRecord, error)
	GetProgress(ctx context.Context, tenantID, recordID uuid.UUID) (*model.ProgressRecord, error)
	GetStudentProgress(ctx context.Context, tenantID uuid.UUID, studentID string) ([]*model.ProgressRecord, error)
	GetTenantProgress(ctx context.Context, tenantID uuid.UUID) ([]*model.ProgressRecord, error)
	GetByStudentAndBook(ctx context.Context, tenantID uuid.UUID, studentID, bookName string) (*model.ProgressRecord, error)
	UpsertSong(ctx context.Context, tenantID, recordID uuid.UUID, req *model.UpsertSongRequest) (*model.ProgressRecord, error)
	MarkCompletedUpTo(ctx context.Context, tenantID, recordID uuid.UUID, upTo int) (*model.ProgressRecord, error)
	DeleteProgress(ctx context.Context, tenantID, recordID uuid.UUID) error
}

type progressService struct {
	db       *gorm.DB
	progRepo repository.ProgressRepository
}

func NewProgressService(db *gorm.DB, progRepo repository.ProgressRepository) ProgressService {
	return &progressService{
		db:       db,
		progRepo: progRepo,
	}
}

func (s *progressService) CreateProgress(ctx context.Context, tenantID uuid.UUID, req *model.PostProgressRequest) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID, "student_id", req.StudentID)

	if req.StudentID == "" || req.Book.Name == "" {
		return nil, model.ErrInvalidInput
	}

	startDate := req.StartDate
	if startDate == "" {
		startDate = time.Now().Format(model.DateLayout)
	}

	// stats は渡されたものを優先し、なければ総曲数からゼロ値を計算する
	stats := model.ProgressStats{}
	if req.Stats != nil {
		stats = *req.Stats
	} else {
		stats = ComputeStats(nil, req.Book.TotalSongs)
	}

	record := &model.ProgressRecord{
		RecordID:    uuid.New(),
		TenantID:    tenantID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Book: model.BookInfo{
			Name:       req.Book.Name,
			Category:   req.Book.Category,
			TotalSongs: req.Book.TotalSongs,
			MaterialID: req.Book.MaterialID,
			Publisher:  req.Book.Publisher,
			Level:      req.Book.Level,
		},
		Status:        model.StatusNotStarted,
		StartDate:     startDate,
		Songs:         datatypes.NewJSONType([]model.Song{}),
		Stats:         datatypes.NewJSONType(stats),
		LastUpdatedBy: model.UpdatedByManual,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.progRepo.Create(ctx, tx, record)
	})
	if err != nil {
		logger.Error("Error creating progress record", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗レコードの作成に失敗しました。", "", model.ErrInternalServer)
	}

	logger.Info("Progress record created", "record_id", record.RecordID.String(), "book_name", record.Book.Name)
	return record, nil
}

func (s *progressService) GetProgress(ctx context.Context, tenantID, recordID uuid.UUID) (*model.ProgressRecord, error) {
	return s.progRepo.FindByID(ctx, s.db, tenantID, recordID)
}

func (s *progressService) GetStudentProgress(ctx context.Context, tenantID uuid.UUID, studentID string) ([]*model.ProgressRecord, error) {
	if studentID == "" {
		return nil, model.ErrInvalidInput
	}
	return s.progRepo.FindByStudent(ctx, s.db, tenantID, studentID)
}

func (s *progressService) GetTenantProgress(ctx context.Context, tenantID uuid.UUID) ([]*model.ProgressRecord, error) {
	return s.progRepo.FindByTenant(ctx, s.db, tenantID)
}

func (s *progressService) GetByStudentAndBook(ctx context.Context, tenantID uuid.UUID, studentID, bookName string) (*model.ProgressRecord, error) {
	return s.progRepo.FindByStudentAndBook(ctx, s.db, tenantID, studentID, bookName)
}

// UpsertSong は1曲分の進捗を追加または更新し、統計を再計算して
// {songs, stats, status, last_updated_by, updated_at} を1回の書き込みで保存します。
func (s *progressService) UpsertSong(ctx context.Context, tenantID, recordID uuid.UUID, req *model.UpsertSongRequest) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID, "record_id", recordID)

	// 永続化の前に必須キーを検証する
	if req.Number == "" && req.Title == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "曲番号またはタイトルが必要です。", "number", model.ErrInvalidInput)
	}

	var updated *model.ProgressRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.progRepo.FindByID(ctx, tx, tenantID, recordID)
		if err != nil {
			return err
		}

		songs := record.Songs.Data()
		today := time.Now().Format(model.DateLayout)

		idx := model.MatchSongIndex(songs, req.Number, req.Title)
		if idx >= 0 {
			songs[idx] = applySongUpsert(songs[idx], req, today)
		} else {
			songs = append(songs, newSongFromUpsert(req, today))
		}

		stats := ComputeStats(songs, record.Book.TotalSongs)
		status := nextBookStatus(record.Status, stats, len(songs))
		updatedBy := req.UpdatedBy
		if updatedBy == "" {
			updatedBy = model.UpdatedByManual
		}
		now := time.Now()

		updates := map[string]interface{}{
			"songs":           datatypes.NewJSONType(songs),
			"stats":           datatypes.NewJSONType(stats),
			"status":          status,
			"last_updated_by": updatedBy,
			"updated_at":      now,
		}
		if err := s.progRepo.Update(ctx, tx, tenantID, recordID, updates); err != nil {
			return err
		}

		record.Songs = datatypes.NewJSONType(songs)
		record.Stats = datatypes.NewJSONType(stats)
		record.Status = status
		record.LastUpdatedBy = updatedBy
		record.UpdatedAt = now
		updated = record
		return nil
	})
	if err != nil {
		logger.Error("Error upserting song", "error", err, "number", req.Number, "title", req.Title)
		return nil, err
	}

	logger.Info("Song upserted", "number", req.Number, "title", req.Title)
	return updated, nil
}

// MarkCompletedUpTo は 1〜upTo 番の曲を一括で完了扱いにします。
// 既存の曲は番号で突き合わせ、無い番号は新しい完了曲として追加します。
func (s *progressService) MarkCompletedUpTo(ctx context.Context, tenantID, recordID uuid.UUID, upTo int) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID, "record_id", recordID)

	if upTo <= 0 {
		return nil, model.NewAppError("VALIDATION_ERROR", "完了する曲番号が正しくありません。", "up_to", model.ErrInvalidInput)
	}

	var updated *model.ProgressRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.progRepo.FindByID(ctx, tx, tenantID, recordID)
		if err != nil {
			return err
		}

		songs := record.Songs.Data()
		today := time.Now().Format(model.DateLayout)

		for n := 1; n <= upTo; n++ {
			number := strconv.Itoa(n)
			idx := model.MatchSongIndex(songs, number, "")
			if idx >= 0 {
				if songs[idx].Status != model.StatusCompleted {
					songs[idx].Status = model.StatusCompleted
					if songs[idx].StartDate == "" {
						songs[idx].StartDate = today
					}
					if songs[idx].CompletedDate == "" {
						songs[idx].CompletedDate = today
					}
					songs[idx].UpdatedBy = model.UpdatedByManual
				}
				continue
			}
			songs = append(songs, model.Song{
				Number:        number,
				Status:        model.StatusCompleted,
				StartDate:     today,
				CompletedDate: today,
				UpdatedBy:     model.UpdatedByManual,
			})
		}

		stats := ComputeStats(songs, record.Book.TotalSongs)
		status := nextBookStatus(record.Status, stats, len(songs))
		now := time.Now()

		updates := map[string]interface{}{
			"songs":           datatypes.NewJSONType(songs),
			"stats":           datatypes.NewJSONType(stats),
			"status":          status,
			"last_updated_by": model.UpdatedByManual,
			"updated_at":      now,
		}
		if err := s.progRepo.Update(ctx, tx, tenantID, recordID, updates); err != nil {
			return err
		}

		record.Songs = datatypes.NewJSONType(songs)
		record.Stats = datatypes.NewJSONType(stats)
		record.Status = status
		record.LastUpdatedBy = model.UpdatedByManual
		record.UpdatedAt = now
		updated = record
		return nil
	})
	if err != nil {
		logger.Error("Error marking songs completed", "error", err, "up_to", upTo)
		return nil, err
	}

	logger.Info("Songs marked completed", "up_to", upTo)
	return updated, nil
}

func (s *progressService) DeleteProgress(ctx context.Context, tenantID, recordID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID, "record_id", recordID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.progRepo.Delete(ctx, tx, tenantID, recordID)
	})
	if err != nil {
		logger.Error("Error deleting progress record", "error", err)
		return err
	}
	logger.Info("Progress record deleted")
	return nil
}

// applySongUpsert は既存の曲へ浅いマージを適用します。
// 指定されたフィールドだけ上書きし、省略されたフィールドは残します。
// completed 以外のステータスに変わるときは completed_date を必ず消します。
func applySongUpsert(song model.Song, req *model.UpsertSongRequest, today string) model.Song {
	if req.Number != "" {
		song.Number = req.Number
	}
	if req.Title != "" {
		song.Title = req.Title
	}
	if req.Status != "" {
		song.Status = req.Status
		if req.Status != model.StatusCompleted {
			song.CompletedDate = ""
		}
	}
	if req.Difficulty != "" {
		song.Difficulty = req.Difficulty
	}
	if req.Notes != "" {
		song.Notes = req.Notes
	}
	if req.LearningStep != nil {
		song.LearningStep = req.LearningStep
	}
	if req.StartDate != "" {
		song.StartDate = req.StartDate
	}
	if req.CompletedDate != "" && song.Status == model.StatusCompleted {
		song.CompletedDate = req.CompletedDate
	}
	if req.LessonNoteID != "" && !containsString(song.LessonNoteIDs, req.LessonNoteID) {
		song.LessonNoteIDs = append(song.LessonNoteIDs, req.LessonNoteID)
	}
	if req.UpdatedBy != "" {
		song.UpdatedBy = req.UpdatedBy
	}
	// 初めて触った曲には開始日を入れる
	if song.StartDate == "" {
		song.StartDate = today
	}
	return song
}

// newSongFromUpsert は新規追加分の曲を作ります。開始日が無ければ今日にします。
func newSongFromUpsert(req *model.UpsertSongRequest, today string) model.Song {
	song := model.Song{
		Number:       req.Number,
		Title:        req.Title,
		Status:       req.Status,
		Difficulty:   req.Difficulty,
		Notes:        req.Notes,
		LearningStep: req.LearningStep,
		StartDate:    req.StartDate,
		UpdatedBy:    req.UpdatedBy,
	}
	if song.Status == "" {
		song.Status = model.StatusNotStarted
	}
	if song.Status == model.StatusCompleted {
		song.CompletedDate = req.CompletedDate
	}
	if song.StartDate == "" {
		song.StartDate = today
	}
	if song.UpdatedBy == "" {
		song.UpdatedBy = model.UpdatedByManual
	}
	if req.LessonNoteID != "" {
		song.LessonNoteIDs = []string{req.LessonNoteID}
	}
	return song
}

// nextBookStatus は曲の統計から教本レベルのステータスを求めます (参考情報)。
func nextBookStatus(current model.LearningStatus, stats model.ProgressStats, songCount int) model.LearningStatus {
	if stats.TotalSongs > 0 && stats.CompletedSongs >= stats.TotalSongs {
		return model.StatusCompleted
	}
	if songCount > 0 {
		return model.StatusInProgress
	}
	return current
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
