// internal/service/extract_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	aimocks "lesson_progress_keep/internal/ai/mocks"
	"lesson_progress_keep/internal/config"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testExtractConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.DefaultTotalSongs = 30
	cfg.App.AggregateMonths = 6
	return cfg
}

func testExtractRequest() *model.ExtractRequest {
	return &model.ExtractRequest{
		StudentID:    "student-1",
		StudentName:  "김철수",
		LessonNoteID: "note-1",
		NoteText:     "바이엘 5번 완료했어요. 미상 교재 1번 시작.",
	}
}

func Test_extractService_ExtractAndApply(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	recordID := uuid.New()

	beyer := &model.Textbook{
		TextbookID: uuid.New(),
		TenantID:   tenantID,
		Title:      "바이엘",
		Category:   "기초 교본",
		TotalSongs: 106,
	}

	t.Run("正常系: 既知の教材は反映され、未知の教材は提案付きで報告される", func(t *testing.T) {
		mockAI := new(aimocks.Client)
		mockAI.On("Generate", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return("```json\n[{\"book\":\"바이엘\",\"songNumber\":\"5\",\"status\":\"completed\"},{\"book\":\"미상 교재\",\"songNumber\":\"1\",\"status\":\"started\"}]\n```", nil).Once()

		mockTextbookRepo := new(mocks.TextbookRepository)
		mockTextbookRepo.On("FindByTenant", ctx, mock.AnythingOfType("*gorm.DB"), tenantID).
			Return([]*model.Textbook{beyer}, nil).Once()

		record := testRecord(tenantID, recordID, beyer.TotalSongs, []model.Song{})
		mockProgRepo := new(mocks.ProgressRepository)
		mockProgRepo.On("FindByStudentAndBook", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, "student-1", "바이엘").
			Return(record, nil).Once()
		mockProgRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID).
			Return(record, nil).Once()

		var savedSongs []model.Song
		mockProgRepo.On("Update", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, recordID, mock.AnythingOfType("map[string]interface {}")).
			Run(func(args mock.Arguments) {
				updates := args.Get(4).(map[string]interface{})
				savedSongs = updates["songs"].(datatypes.JSONType[[]model.Song]).Data()
			}).Return(nil).Once()

		progService := NewProgressService(db, mockProgRepo)
		svc := NewExtractService(db, progService, mockTextbookRepo, mockAI, testExtractConfig())

		result, err := svc.ExtractAndApply(ctx, tenantID, testExtractRequest())

		require.NoError(t, err)
		require.NotNil(t, result)

		// 反映された項目
		require.Len(t, result.UpdatedItems, 1)
		assert.Equal(t, "바이엘", result.UpdatedItems[0].BookName)
		assert.Equal(t, "5", result.UpdatedItems[0].SongNumber)
		assert.Equal(t, model.StatusCompleted, result.UpdatedItems[0].Status)

		// 保存された曲 (AI経由なのでupdated_byはai、ノートIDが記録される)
		require.Len(t, savedSongs, 1)
		assert.Equal(t, model.UpdatedByAI, savedSongs[0].UpdatedBy)
		assert.Equal(t, []string{"note-1"}, savedSongs[0].LessonNoteIDs)
		assert.NotEmpty(t, savedSongs[0].CompletedDate)

		// 未知の教材は推定値付きで報告される
		require.Len(t, result.UnknownTextbooks, 1)
		assert.Equal(t, "미상 교재", result.UnknownTextbooks[0].Name)
		assert.Equal(t, "기타", result.UnknownTextbooks[0].SuggestedCategory)
		assert.Equal(t, 30, result.UnknownTextbooks[0].SuggestedTotalSongs)

		mockAI.AssertExpectations(t)
		mockTextbookRepo.AssertExpectations(t)
		mockProgRepo.AssertExpectations(t)
	})

	t.Run("正常系: 進捗レコードがなければカタログの値で自動作成される", func(t *testing.T) {
		mockAI := new(aimocks.Client)
		mockAI.On("Generate", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return(`[{"book":"바이엘","songNumber":"5","status":"in_progress"}]`, nil).Once()

		mockTextbookRepo := new(mocks.TextbookRepository)
		mockTextbookRepo.On("FindByTenant", ctx, mock.AnythingOfType("*gorm.DB"), tenantID).
			Return([]*model.Textbook{beyer}, nil).Once()

		mockProgRepo := new(mocks.ProgressRepository)
		mockProgRepo.On("FindByStudentAndBook", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, "student-1", "바이엘").
			Return(nil, model.ErrNotFound).Once()

		var createdID uuid.UUID
		mockProgRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.ProgressRecord")).
			Run(func(args mock.Arguments) {
				created := args.Get(2).(*model.ProgressRecord)
				createdID = created.RecordID
				// カタログの正式な値が使われる
				assert.Equal(t, "바이엘", created.Book.Name)
				assert.Equal(t, 106, created.Book.TotalSongs)
				require.NotNil(t, created.Book.MaterialID)
				assert.Equal(t, beyer.TextbookID, *created.Book.MaterialID)
			}).Return(nil).Once()

		mockProgRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, mock.AnythingOfType("uuid.UUID")).
			Return(func(ctx context.Context, db *gorm.DB, tid, rid uuid.UUID) *model.ProgressRecord {
				return testRecord(tenantID, createdID, beyer.TotalSongs, []model.Song{})
			}, nil).Once()
		mockProgRepo.On("Update", ctx, mock.AnythingOfType("*gorm.DB"), tenantID, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("map[string]interface {}")).
			Return(nil).Once()

		progService := NewProgressService(db, mockProgRepo)
		svc := NewExtractService(db, progService, mockTextbookRepo, mockAI, testExtractConfig())

		result, err := svc.ExtractAndApply(ctx, tenantID, testExtractRequest())

		require.NoError(t, err)
		require.Len(t, result.UpdatedItems, 1)
		assert.Equal(t, model.StatusInProgress, result.UpdatedItems[0].Status)
		assert.Empty(t, result.UnknownTextbooks)
		mockProgRepo.AssertExpectations(t)
	})

	t.Run("正常系: AI呼び出しの失敗は空の結果に畳み込まれる", func(t *testing.T) {
		mockAI := new(aimocks.Client)
		mockAI.On("Generate", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return("", errors.New("service unavailable")).Once()

		mockTextbookRepo := new(mocks.TextbookRepository)
		mockProgRepo := new(mocks.ProgressRepository)

		progService := NewProgressService(db, mockProgRepo)
		svc := NewExtractService(db, progService, mockTextbookRepo, mockAI, testExtractConfig())

		result, err := svc.ExtractAndApply(ctx, tenantID, testExtractRequest())

		require.NoError(t, err)
		assert.Empty(t, result.UpdatedItems)
		assert.Empty(t, result.UnknownTextbooks)
		// カタログにもリポジトリにも触れない
		mockTextbookRepo.AssertExpectations(t)
		mockProgRepo.AssertExpectations(t)
	})

	t.Run("正常系: JSON配列のない応答は空の結果になる", func(t *testing.T) {
		mockAI := new(aimocks.Client)
		mockAI.On("Generate", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return("죄송합니다. 진도 정보를 찾을 수 없습니다.", nil).Once()

		mockTextbookRepo := new(mocks.TextbookRepository)
		mockProgRepo := new(mocks.ProgressRepository)

		progService := NewProgressService(db, mockProgRepo)
		svc := NewExtractService(db, progService, mockTextbookRepo, mockAI, testExtractConfig())

		result, err := svc.ExtractAndApply(ctx, tenantID, testExtractRequest())

		require.NoError(t, err)
		assert.Empty(t, result.UpdatedItems)
		assert.Empty(t, result.UnknownTextbooks)
	})

	t.Run("正常系: 同じ未知の教材は1回だけ報告される", func(t *testing.T) {
		mockAI := new(aimocks.Client)
		mockAI.On("Generate", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return(`[{"book":"미상 교재","songNumber":"1","status":"started"},{"book":"미상 교재","songNumber":"2","status":"started"}]`, nil).Once()

		mockTextbookRepo := new(mocks.TextbookRepository)
		mockTextbookRepo.On("FindByTenant", ctx, mock.AnythingOfType("*gorm.DB"), tenantID).
			Return([]*model.Textbook{beyer}, nil).Once()

		mockProgRepo := new(mocks.ProgressRepository)
		progService := NewProgressService(db, mockProgRepo)
		svc := NewExtractService(db, progService, mockTextbookRepo, mockAI, testExtractConfig())

		result, err := svc.ExtractAndApply(ctx, tenantID, testExtractRequest())

		require.NoError(t, err)
		assert.Empty(t, result.UpdatedItems)
		require.Len(t, result.UnknownTextbooks, 1)
	})

	t.Run("異常系: カタログの読み込み失敗はエラーになる", func(t *testing.T) {
		mockAI := new(aimocks.Client)
		mockAI.On("Generate", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return(`[{"book":"바이엘","songNumber":"5","status":"completed"}]`, nil).Once()

		mockTextbookRepo := new(mocks.TextbookRepository)
		mockTextbookRepo.On("FindByTenant", ctx, mock.AnythingOfType("*gorm.DB"), tenantID).
			Return(nil, errors.New("db error")).Once()

		mockProgRepo := new(mocks.ProgressRepository)
		progService := NewProgressService(db, mockProgRepo)
		svc := NewExtractService(db, progService, mockTextbookRepo, mockAI, testExtractConfig())

		result, err := svc.ExtractAndApply(ctx, tenantID, testExtractRequest())

		require.Error(t, err)
		assert.Nil(t, result)
		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", appErr.Detail.Code)
	})
}

func Test_mapExtractedStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.LearningStatus
	}{
		{name: "正常系: completed", input: "completed", want: model.StatusCompleted},
		{name: "正常系: started は in_progress になる", input: "started", want: model.StatusInProgress},
		{name: "正常系: in_progress", input: "in_progress", want: model.StatusInProgress},
		{name: "正常系: 大文字や空白は正規化される", input: "  Completed ", want: model.StatusCompleted},
		{name: "正常系: 未知の値は in_progress として扱う", input: "reviewing", want: model.StatusInProgress},
		{name: "正常系: 空文字も in_progress", input: "", want: model.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapExtractedStatus(tt.input))
		})
	}
}

func Test_stripJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "正常系: 素のJSON配列はそのまま",
			input: `[{"book":"바이엘"}]`,
			want:  `[{"book":"바이엘"}]`,
		},
		{
			name:  "正常系: コードフェンスを剥がす",
			input: "```json\n[{\"book\":\"바이엘\"}]\n```",
			want:  `[{"book":"바이엘"}]`,
		},
		{
			name:  "正常系: 前置きの文章を無視する",
			input: "추출 결과입니다: [] 이상입니다.",
			want:  "[]",
		},
		{
			name:  "異常系: 配列がなければ空文字",
			input: "진도 정보가 없습니다.",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONArray(tt.input))
		})
	}
}
