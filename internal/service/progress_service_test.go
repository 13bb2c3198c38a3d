// internal/service/progress_service_test.go
package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 ---
// トランザクション用のインメモリDB。リポジトリはモックするのでマイグレーションは不要。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect database for testing")
	return db
}

func testRecord(tenantID, recordID uuid.UUID, totalSongs int, songs []model.Song) *model.ProgressRecord {
	return &model.ProgressRecord{
		RecordID:    recordID,
		TenantID:    tenantID,
		StudentID:   "student-1",
		StudentName: "김철수",
		Book: model.BookInfo{
			Name:       "바이엘",
			Category:   "기초 교본",
			TotalSongs: totalSongs,
		},
		Status:        model.StatusInProgress,
		StartDate:     "2025-01-01",
		Songs:         datatypes.NewJSONType(songs),
		Stats:         datatypes.NewJSONType(ComputeStats(songs, totalSongs)),
		LastUpdatedBy: model.UpdatedByManual,
	}
}

// --- Test CreateProgress ---
func Test_progressService_CreateProgress(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	today := time.Now().Format(model.DateLayout)

	tests := []struct {
		name      string
		req       *model.PostProgressRequest
		setupMock func(progRepo *mocks.ProgressRepository)
		wantErr   error
		check     func(t *testing.T, record *model.ProgressRecord)
	}{
		{
			name: "正常系: 進捗レコードの作成成功",
			req: &model.PostProgressRequest{
				StudentID:   "student-1",
				StudentName: "김철수",
				Book: model.BookPayload{
					Name:       "바이엘",
					Category:   "기초 교본",
					TotalSongs: 106,
				},
			},
			setupMock: func(progRepo *mocks.ProgressRepository) {
				progRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.ProgressRecord")).
					Run(func(args mock.Arguments) {
						record := args.Get(2).(*model.ProgressRecord)
						assert.Equal(t, tenantID, record.TenantID)
						assert.NotEqual(t, uuid.Nil, record.RecordID)
						assert.Equal(t, model.StatusNotStarted, record.Status)
					}).Return(nil).Once()
			},
			check: func(t *testing.T, record *model.ProgressRecord) {
				assert.Equal(t, "바이엘", record.Book.Name)
				assert.Equal(t, today, record.StartDate)
				assert.Empty(t, record.Songs.Data())
				stats := record.Stats.Data()
				assert.Equal(t, 106, stats.TotalSongs)
				assert.Equal(t, 0, stats.CompletedSongs)
				assert.Equal(t, model.UpdatedByManual, record.LastUpdatedBy)
			},
		},
		{
			name: "正常系: 開始日と統計の指定があればそのまま使う",
			req: &model.PostProgressRequest{
				StudentID:   "student-1",
				StudentName: "김철수",
				Book:        model.BookPayload{Name: "바이엘", TotalSongs: 106},
				StartDate:   "2024-04-01",
				Stats:       &model.ProgressStats{TotalSongs: 106, CompletedSongs: 12, CompletionRate: 11.3},
			},
			setupMock: func(progRepo *mocks.ProgressRepository) {
				progRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.ProgressRecord")).
					Return(nil).Once()
			},
			check: func(t *testing.T, record *model.ProgressRecord) {
				assert.Equal(t, "2024-04-01", record.StartDate)
				assert.Equal(t, 12, record.Stats.Data().CompletedSongs)
			},
		},
		{
			name: "異常系: 生徒IDが空",
			req: &model.PostProgressRequest{
				StudentID: "",
				Book:      model.BookPayload{Name: "바이엘"},
			},
			setupMock: func(progRepo *mocks.ProgressRepository) {},
			wantErr:   model.ErrInvalidInput,
		},
		{
			name: "異常系: 教本名が空",
			req: &model.PostProgressRequest{
				StudentID: "student-1",
				Book:      model.BookPayload{Name: ""},
			},
			setupMock: func(progRepo *mocks.ProgressRepository) {},
			wantErr:   model.ErrInvalidInput,
		},
		{
			name: "異常系: リポジトリのエラー",
			req: &model.PostProgressRequest{
				StudentID:   "student-1",
				StudentName: "김철수",
				Book:        model.BookPayload{Name: "바이엘", TotalSongs: 106},
			},
			setupMock: func(progRepo *mocks.ProgressRepository) {
				progRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.ProgressRecord")).
					Return(errors.New("db error")).Once()
			},
			wantErr: model.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockProgRepo := new(mocks.ProgressRepository)
			tt.setupMock(mockProgRepo)
			svc := NewProgressService(db, mockProgRepo)

			record, err := svc.CreateProgress(ctx, tenantID, tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				assert.Nil(t, record)
			} else {
				require.NoError(t, err)
				require.NotNil(t, record)
				if tt.check != nil {
					tt.check(t, record)
				}
			}
			mockProgRepo.AssertExpectations(t)
		})
	}
}

// --- Test UpsertSong ---
func Test_progressService_UpsertSong(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	recordID := uuid.New()
	today := time.Now().Format(model.DateLayout)

	tests := []struct {
		name      string
		existing  []model.Song
		req       *model.UpsertSongRequest
		wantErr   error
		check     func(t *testing.T, songs []model.Song, record *model.ProgressRecord)
		skipRepos bool // 検証エラーでリポジトリまで到達しないケース
	}{
		{
			name:     "正常系: 新しい曲が追加される",
			existing: []model.Song{},
			req: &model.UpsertSongRequest{
				Number: "1",
				Title:  "첫 번째 곡",
				Status: model.StatusInProgress,
			},
			check: func(t *testing.T, songs []model.Song, record *model.ProgressRecord) {
				require.Len(t, songs, 1)
				assert.Equal(t, "1", songs[0].Number)
				assert.Equal(t, model.StatusInProgress, songs[0].Status)
				assert.Equal(t, today, songs[0].StartDate) // 開始日の自動補完
				assert.Equal(t, model.UpdatedByManual, songs[0].UpdatedBy)
				assert.Equal(t, model.StatusInProgress, record.Status)
				assert.Equal(t, 1, record.Stats.Data().InProgressSongs)
			},
		},
		{
			name: "正常系: 番号が一致する曲は追加ではなく更新される",
			existing: []model.Song{
				{Number: "1", Title: "첫 번째 곡", Status: model.StatusInProgress, StartDate: "2025-01-01"},
			},
			req: &model.UpsertSongRequest{
				Number:        "1",
				Status:        model.StatusCompleted,
				CompletedDate: "2025-02-10",
			},
			check: func(t *testing.T, songs []model.Song, record *model.ProgressRecord) {
				require.Len(t, songs, 1)
				assert.Equal(t, model.StatusCompleted, songs[0].Status)
				assert.Equal(t, "2025-02-10", songs[0].CompletedDate)
				assert.Equal(t, "첫 번째 곡", songs[0].Title) // 省略フィールドは保持
				assert.Equal(t, "2025-01-01", songs[0].StartDate)
				assert.Equal(t, 1, record.Stats.Data().CompletedSongs)
			},
		},
		{
			name: "正常系: タイトルだけでも既存の曲に一致する",
			existing: []model.Song{
				{Number: "7", Title: "엘리제를 위하여", Status: model.StatusInProgress, StartDate: "2025-01-01"},
			},
			req: &model.UpsertSongRequest{
				Title: "엘리제를 위하여",
				Notes: "페달 주의",
			},
			check: func(t *testing.T, songs []model.Song, record *model.ProgressRecord) {
				require.Len(t, songs, 1)
				assert.Equal(t, "7", songs[0].Number)
				assert.Equal(t, "페달 주의", songs[0].Notes)
			},
		},
		{
			name: "正常系: completedから戻すと完了日が消える",
			existing: []model.Song{
				{Number: "1", Status: model.StatusCompleted, StartDate: "2025-01-01", CompletedDate: "2025-02-01"},
			},
			req: &model.UpsertSongRequest{
				Number: "1",
				Status: model.StatusInProgress,
			},
			check: func(t *testing.T, songs []model.Song, record *model.ProgressRecord) {
				require.Len(t, songs, 1)
				assert.Equal(t, model.StatusInProgress, songs[0].Status)
				assert.Empty(t, songs[0].CompletedDate)
				assert.Equal(t, 0, record.Stats.Data().CompletedSongs)
			},
		},
		{
			name: "正常系: レッスンノートIDは重複せず追記される",
			existing: []model.Song{
				{Number: "1", Status: model.StatusInProgress, StartDate: "2025-01-01", LessonNoteIDs: []string{"note-1"}},
			},
			req: &model.UpsertSongRequest{
				Number:       "1",
				LessonNoteID: "note-1",
			},
			check: func(t *testing.T, songs []model.Song, record *model.ProgressRecord) {
				require.Len(t, songs, 1)
				assert.Equal(t, []string{"note-1"}, songs[0].LessonNoteIDs)
			},
		},
		{
			name: "正常系: 全曲完了で教本ステータスがcompletedになる",
			existing: []model.Song{
				{Number: "1", Status: model.StatusCompleted, StartDate: "2025-01-01", CompletedDate: "2025-01-10"},
			},
			req: &model.UpsertSongRequest{
				Number:        "2",
				Status:        model.StatusCompleted,
				CompletedDate: "2025-02-01",
			},
			check: func(t *testing.T, songs []model.Song, record *model.ProgressRecord) {
				require.Len(t, songs, 2)
				assert.Equal(t, model.StatusCompleted, record.Status)
				assert.Equal(t, 100.0, record.Stats.Data().CompletionRate)
			},
		},
		{
			name:      "異常系: 番号もタイトルもない",
			existing:  []model.Song{},
			req:       &model.UpsertSongRequest{Status: model.StatusInProgress},
			wantErr:   model.ErrInvalidInput,
			skipRepos: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockProgRepo := new(mocks.ProgressRepository)
			totalSongs := 2
			if !tt.skipRepos {
				record := testRecord(tenantID, recordID, totalSongs, tt.existing)
				mockProgRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID).
					Return(record, nil).Once()
				mockProgRepo.On("Update", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID, mock.AnythingOfType("map[string]interface {}")).
					Return(nil).Once()
			}
			svc := NewProgressService(db, mockProgRepo)

			record, err := svc.UpsertSong(ctx, tenantID, recordID, tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				assert.Nil(t, record)
			} else {
				require.NoError(t, err)
				require.NotNil(t, record)
				if tt.check != nil {
					tt.check(t, record.Songs.Data(), record)
				}
			}
			mockProgRepo.AssertExpectations(t)
		})
	}
}

func Test_progressService_UpsertSong_NotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	recordID := uuid.New()

	mockProgRepo := new(mocks.ProgressRepository)
	mockProgRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID).
		Return(nil, model.ErrNotFound).Once()
	svc := NewProgressService(db, mockProgRepo)

	record, err := svc.UpsertSong(ctx, tenantID, recordID, &model.UpsertSongRequest{Number: "1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Nil(t, record)
	mockProgRepo.AssertExpectations(t)
}

// --- Test MarkCompletedUpTo ---
func Test_progressService_MarkCompletedUpTo(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	recordID := uuid.New()
	today := time.Now().Format(model.DateLayout)

	t.Run("正常系: 既存の曲は維持し、欠番は完了曲として追加される", func(t *testing.T) {
		existing := []model.Song{
			{Number: "1", Status: model.StatusCompleted, StartDate: "2025-01-01", CompletedDate: "2025-01-10"},
			{Number: "3", Status: model.StatusInProgress, StartDate: "2025-02-01"},
		}
		record := testRecord(tenantID, recordID, 10, existing)

		mockProgRepo := new(mocks.ProgressRepository)
		mockProgRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID).
			Return(record, nil).Once()
		mockProgRepo.On("Update", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID, mock.AnythingOfType("map[string]interface {}")).
			Return(nil).Once()
		svc := NewProgressService(db, mockProgRepo)

		updated, err := svc.MarkCompletedUpTo(ctx, tenantID, recordID, 3)

		require.NoError(t, err)
		songs := updated.Songs.Data()
		require.Len(t, songs, 3)

		// 1番: すでに完了済みなので日付はそのまま
		idx1 := model.MatchSongIndex(songs, "1", "")
		require.GreaterOrEqual(t, idx1, 0)
		assert.Equal(t, "2025-01-10", songs[idx1].CompletedDate)

		// 3番: 進行中だったものが完了になる (開始日は維持)
		idx3 := model.MatchSongIndex(songs, "3", "")
		require.GreaterOrEqual(t, idx3, 0)
		assert.Equal(t, model.StatusCompleted, songs[idx3].Status)
		assert.Equal(t, "2025-02-01", songs[idx3].StartDate)
		assert.Equal(t, today, songs[idx3].CompletedDate)

		// 2番: 欠番だったものが完了曲として追加される
		idx2 := model.MatchSongIndex(songs, "2", "")
		require.GreaterOrEqual(t, idx2, 0)
		assert.Equal(t, model.StatusCompleted, songs[idx2].Status)
		assert.Equal(t, today, songs[idx2].CompletedDate)

		assert.Equal(t, 3, updated.Stats.Data().CompletedSongs)
		mockProgRepo.AssertExpectations(t)
	})

	t.Run("異常系: upToが0以下", func(t *testing.T) {
		mockProgRepo := new(mocks.ProgressRepository)
		svc := NewProgressService(db, mockProgRepo)

		updated, err := svc.MarkCompletedUpTo(ctx, tenantID, recordID, 0)

		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput))
		assert.Nil(t, updated)
		mockProgRepo.AssertExpectations(t)
	})
}

// --- Test DeleteProgress ---
func Test_progressService_DeleteProgress(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	recordID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(progRepo *mocks.ProgressRepository)
		wantErr   error
	}{
		{
			name: "正常系: 削除成功",
			setupMock: func(progRepo *mocks.ProgressRepository) {
				progRepo.On("Delete", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID).
					Return(nil).Once()
			},
		},
		{
			name: "異常系: レコードが存在しない",
			setupMock: func(progRepo *mocks.ProgressRepository) {
				progRepo.On("Delete", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID).
					Return(model.ErrNotFound).Once()
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockProgRepo := new(mocks.ProgressRepository)
			tt.setupMock(mockProgRepo)
			svc := NewProgressService(db, mockProgRepo)

			err := svc.DeleteProgress(ctx, tenantID, recordID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			mockProgRepo.AssertExpectations(t)
		})
	}
}
