//go:generate mockery --name TextbookRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TextbookRepository は教材カタログの永続化操作のインターフェースです
type TextbookRepository interface {
	Create(ctx context.Context, tx *gorm.DB, textbook *model.Textbook) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, textbookID uuid.UUID) (*model.Textbook, error)
	FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) ([]*model.Textbook, error)
}

type gormTextbookRepository struct{}

func NewGormTextbookRepository() TextbookRepository {
	return &gormTextbookRepository{}
}

func (r *gormTextbookRepository) Create(ctx context.Context, tx *gorm.DB, textbook *model.Textbook) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(textbook)
	if result.Error != nil {
		logger.Error("Error creating textbook in DB",
			"error", result.Error,
			"tenant_id", textbook.TenantID.String(),
			"title", textbook.Title,
		)
		return fmt.Errorf("gormTextbookRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormTextbookRepository) FindByID(ctx context.Context, db *gorm.DB, tenantID, textbookID uuid.UUID) (*model.Textbook, error) {
	logger := middleware.GetLogger(ctx)
	var textbook model.Textbook
	result := db.WithContext(ctx).Where("tenant_id = ? AND textbook_id = ?", tenantID, textbookID).First(&textbook)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding textbook by ID in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"textbook_id", textbookID.String(),
		)
		return nil, fmt.Errorf("gormTextbookRepository.FindByID: %w", result.Error)
	}
	return &textbook, nil
}

func (r *gormTextbookRepository) FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) ([]*model.Textbook, error) {
	logger := middleware.GetLogger(ctx)
	var textbooks []*model.Textbook
	result := db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("title ASC").Find(&textbooks)
	if result.Error != nil {
		logger.Error("Error finding textbooks by tenant in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return nil, fmt.Errorf("gormTextbookRepository.FindByTenant: %w", result.Error)
	}
	return textbooks, nil
}
