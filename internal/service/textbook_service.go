// internal/service/textbook_service.go
package service

import (
	"context"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TextbookService は教材カタログのユースケースです。
// 未知の教材は編集者がここから手動登録して解決します。
type TextbookService interface {
	ListTextbooks(ctx context.Context, tenantID uuid.UUID) ([]*model.Textbook, error)
	CreateTextbook(ctx context.Context, tenantID uuid.UUID, req *model.PostTextbookRequest) (*model.Textbook, error)
}

type textbookService struct {
	db           *gorm.DB
	textbookRepo repository.TextbookRepository
}

func NewTextbookService(db *gorm.DB, textbookRepo repository.TextbookRepository) TextbookService {
	return &textbookService{db: db, textbookRepo: textbookRepo}
}

func (s *textbookService) ListTextbooks(ctx context.Context, tenantID uuid.UUID) ([]*model.Textbook, error) {
	return s.textbookRepo.FindByTenant(ctx, s.db, tenantID)
}

func (s *textbookService) CreateTextbook(ctx context.Context, tenantID uuid.UUID, req *model.PostTextbookRequest) (*model.Textbook, error) {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID)

	if req.Title == "" {
		return nil, model.ErrInvalidInput
	}

	textbook := &model.Textbook{
		TextbookID: uuid.New(),
		TenantID:   tenantID,
		Title:      req.Title,
		Category:   req.Category,
		Level:      req.Level,
		Publisher:  req.Publisher,
		TotalSongs: req.TotalSongs,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.textbookRepo.Create(ctx, tx, textbook)
	})
	if err != nil {
		logger.Error("Error creating textbook", "error", err, "title", req.Title)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "教材の登録に失敗しました。", "", model.ErrInternalServer)
	}

	logger.Info("Textbook created", "textbook_id", textbook.TextbookID.String(), "title", textbook.Title)
	return textbook, nil
}
