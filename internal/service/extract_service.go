// internal/service/extract_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lesson_progress_keep/internal/ai"
	"lesson_progress_keep/internal/config"
	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const extractSystemPrompt = `당신은 피아노 학원의 레슨 노트에서 교재 진도를 추출하는 도우미입니다. 반드시 JSON 배열만 출력하세요.`

const extractUserPromptFormat = `다음 레슨 노트에서 교재 진도를 추출해 주세요.
각 항목은 다음 형식의 JSON 객체입니다:
{"book": "교재 이름", "songNumber": "곡 번호", "songTitle": "곡 제목", "status": "completed" | "started" | "in_progress", "notes": "메모 (선택)", "difficulty": "beginner" | "intermediate" | "advanced" (선택)}

진도 정보가 없으면 빈 배열 []을 출력하세요. JSON 배열 외의 텍스트는 출력하지 마세요.

레슨 노트:
%s`

// ExtractService はレッスンノート1件をAIで構造化し、進捗へ反映するパイプラインです。
type ExtractService interface {
	ExtractAndApply(ctx context.Context, tenantID uuid.UUID, req *model.ExtractRequest) (*model.ExtractResult, error)
}

type extractService struct {
	db           *gorm.DB
	progService  ProgressService
	textbookRepo repository.TextbookRepository
	aiClient     ai.Client
	cfg          *config.Config
}

func NewExtractService(db *gorm.DB, progService ProgressService, textbookRepo repository.TextbookRepository, aiClient ai.Client, cfg *config.Config) ExtractService {
	return &extractService{
		db:           db,
		progService:  progService,
		textbookRepo: textbookRepo,
		aiClient:     aiClient,
		cfg:          cfg,
	}
}

// ExtractAndApply は 抽出 → 解決 → 反映 の順で処理します。
// 抽出段の失敗 (サービスエラー・パース不能) は空の結果に畳み込み、エラーにしません。
// 反映は項目ごとに独立で、途中で失敗しても反映済みの項目はそのまま残します。
func (s *extractService) ExtractAndApply(ctx context.Context, tenantID uuid.UUID, req *model.ExtractRequest) (*model.ExtractResult, error) {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID, "student_id", req.StudentID)

	result := &model.ExtractResult{
		UpdatedItems:     []model.UpdatedItem{},
		UnknownTextbooks: []model.UnknownTextbook{},
	}

	items := s.extractItems(ctx, req.NoteText)
	if len(items) == 0 {
		logger.Info("No progress items extracted from lesson note", "lesson_note_id", req.LessonNoteID)
		return result, nil
	}

	catalog, err := s.textbookRepo.FindByTenant(ctx, s.db, tenantID)
	if err != nil {
		logger.Error("Failed to load textbook catalog", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "教材カタログの取得に失敗しました。", "", err)
	}

	seenUnknown := make(map[string]bool)
	today := time.Now().Format(model.DateLayout)

	for _, item := range items {
		if item.Book == "" {
			continue
		}
		if item.SongNumber == "" && item.SongTitle == "" {
			logger.Warn("Extracted item has no song key, skipping", "book", item.Book)
			continue
		}

		textbook := ResolveTextbook(item.Book, catalog)
		if textbook == nil {
			key := strings.ToLower(strings.TrimSpace(item.Book))
			if !seenUnknown[key] {
				seenUnknown[key] = true
				defaults := SuggestTextbookDefaults(item.Book, s.cfg.App.DefaultTotalSongs)
				result.UnknownTextbooks = append(result.UnknownTextbooks, model.UnknownTextbook{
					Name:                item.Book,
					SuggestedCategory:   defaults.Category,
					SuggestedTotalSongs: defaults.TotalSongs,
				})
			}
			continue
		}

		record, err := s.ensureRecord(ctx, tenantID, req, textbook)
		if err != nil {
			logger.Warn("Failed to ensure progress record, skipping item", "error", err, "book", textbook.Title)
			continue
		}

		status := mapExtractedStatus(item.Status)
		upsert := &model.UpsertSongRequest{
			Number:       item.SongNumber,
			Title:        item.SongTitle,
			Status:       status,
			Difficulty:   mapExtractedDifficulty(item.Difficulty),
			Notes:        item.Notes,
			LessonNoteID: req.LessonNoteID,
			UpdatedBy:    model.UpdatedByAI,
		}
		if status == model.StatusCompleted {
			upsert.CompletedDate = today
		}

		if _, err := s.progService.UpsertSong(ctx, tenantID, record.RecordID, upsert); err != nil {
			logger.Warn("Failed to upsert extracted song, skipping item", "error", err, "book", textbook.Title, "number", item.SongNumber)
			continue
		}

		result.UpdatedItems = append(result.UpdatedItems, model.UpdatedItem{
			RecordID:   record.RecordID.String(),
			BookName:   textbook.Title,
			SongNumber: item.SongNumber,
			SongTitle:  item.SongTitle,
			Status:     status,
		})
	}

	logger.Info("Lesson note processed",
		"lesson_note_id", req.LessonNoteID,
		"updated_items", len(result.UpdatedItems),
		"unknown_textbooks", len(result.UnknownTextbooks),
	)
	return result, nil
}

// extractItems は抽出段です。外部サービスの失敗・不正な応答はすべて
// 空スライスに畳み込みます (ここから先へエラーを投げない)。
func (s *extractService) extractItems(ctx context.Context, noteText string) []model.ExtractedItem {
	logger := middleware.GetLogger(ctx)

	raw, err := s.aiClient.Generate(ctx, extractSystemPrompt, fmt.Sprintf(extractUserPromptFormat, noteText))
	if err != nil {
		logger.Warn("Text generation failed, degrading to empty extraction", "error", err)
		return nil
	}

	cleaned := stripJSONArray(raw)
	if cleaned == "" {
		logger.Warn("Text generation response contained no JSON array")
		return nil
	}

	var items []model.ExtractedItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		logger.Warn("Failed to parse extraction response, degrading to empty extraction", "error", err)
		return nil
	}
	return items
}

// ensureRecord は (生徒, 教材) の進捗レコードを取得し、無ければカタログの
// 正式な値で新規作成します。
func (s *extractService) ensureRecord(ctx context.Context, tenantID uuid.UUID, req *model.ExtractRequest, textbook *model.Textbook) (*model.ProgressRecord, error) {
	record, err := s.progService.GetByStudentAndBook(ctx, tenantID, req.StudentID, textbook.Title)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	return s.progService.CreateProgress(ctx, tenantID, &model.PostProgressRequest{
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Book: model.BookPayload{
			Name:       textbook.Title,
			Category:   textbook.Category,
			TotalSongs: textbook.TotalSongs,
			MaterialID: &textbook.TextbookID,
			Publisher:  textbook.Publisher,
			Level:      textbook.Level,
		},
	})
}

// mapExtractedStatus は抽出側の語彙を曲ステータスの語彙へ写します。
// started は in_progress、不明な値も in_progress として扱います
// (項目を落とすより、編集者が直せる形で残すほうがよい)。
func mapExtractedStatus(status string) model.LearningStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed":
		return model.StatusCompleted
	case "started", "in_progress":
		return model.StatusInProgress
	default:
		return model.StatusInProgress
	}
}

func mapExtractedDifficulty(difficulty string) model.Difficulty {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case string(model.DifficultyBeginner):
		return model.DifficultyBeginner
	case string(model.DifficultyIntermediate):
		return model.DifficultyIntermediate
	case string(model.DifficultyAdvanced):
		return model.DifficultyAdvanced
	default:
		return ""
	}
}

// stripJSONArray は応答から最初のJSON配列部分を取り出します。
// モデルが ```json フェンスや前置きを付けてくることがあるため。
func stripJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
