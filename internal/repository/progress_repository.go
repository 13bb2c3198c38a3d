//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
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

// ProgressRepository は進捗レコードの永続化操作のインターフェースです。
// 書き込みはすべてレコード単位 (曲単位の部分書き込みはしない)。
type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *model.ProgressRecord) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, recordID uuid.UUID) (*model.ProgressRecord, error)
	FindByStudentAndBook(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, studentID, bookName string) (*model.ProgressRecord, error)
	FindByStudent(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, studentID string) ([]*model.ProgressRecord, error)
	FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) ([]*model.ProgressRecord, error)
	Update(ctx context.Context, tx *gorm.DB, tenantID, recordID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, tenantID, recordID uuid.UUID) error
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) Create(ctx context.Context, tx *gorm.DB, record *model.ProgressRecord) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(record)
	if result.Error != nil {
		logger.Error("Error creating progress record in DB",
			"error", result.Error,
			"tenant_id", record.TenantID.String(),
			"student_id", record.StudentID,
			"book_name", record.Book.Name,
		)
		return fmt.Errorf("gormProgressRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) FindByID(ctx context.Context, db *gorm.DB, tenantID, recordID uuid.UUID) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var record model.ProgressRecord
	result := db.WithContext(ctx).Where("tenant_id = ? AND record_id = ?", tenantID, recordID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding progress record by ID in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"record_id", recordID.String(),
		)
		return nil, fmt.Errorf("gormProgressRepository.FindByID: %w", result.Error)
	}
	return &record, nil
}

func (r *gormProgressRepository) FindByStudentAndBook(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, studentID, bookName string) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var record model.ProgressRecord
	result := db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND book_name = ?", tenantID, studentID, bookName).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding progress record by student and book in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"student_id", studentID,
			"book_name", bookName,
		)
		return nil, fmt.Errorf("gormProgressRepository.FindByStudentAndBook: %w", result.Error)
	}
	return &record, nil
}

func (r *gormProgressRepository) FindByStudent(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, studentID string) ([]*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var records []*model.ProgressRecord
	result := db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("created_at ASC").
		Find(&records)
	if result.Error != nil {
		logger.Error("Error finding progress records by student in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"student_id", studentID,
		)
		return nil, fmt.Errorf("gormProgressRepository.FindByStudent: %w", result.Error)
	}
	return records, nil
}

func (r *gormProgressRepository) FindByTenant(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) ([]*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var records []*model.ProgressRecord
	result := db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&records)
	if result.Error != nil {
		logger.Error("Error finding progress records by tenant in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
		)
		return nil, fmt.Errorf("gormProgressRepository.FindByTenant: %w", result.Error)
	}
	return records, nil
}

// Update は指定カラムだけの部分更新です。songs / stats / last_updated_by / updated_at を
// 1回の書き込みで更新するために使います。
func (r *gormProgressRepository) Update(ctx context.Context, tx *gorm.DB, tenantID, recordID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.ProgressRecord{}).
		Where("tenant_id = ? AND record_id = ?", tenantID, recordID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating progress record in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"record_id", recordID.String(),
		)
		return fmt.Errorf("gormProgressRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormProgressRepository) Delete(ctx context.Context, tx *gorm.DB, tenantID, recordID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Where("tenant_id = ? AND record_id = ?", tenantID, recordID).
		Delete(&model.ProgressRecord{})
	if result.Error != nil {
		logger.Error("Error deleting progress record in DB",
			"error", result.Error,
			"tenant_id", tenantID.String(),
			"record_id", recordID.String(),
		)
		return fmt.Errorf("gormProgressRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
