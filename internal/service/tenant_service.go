// internal/service/tenant_service.go
package service

import (
	"context"

	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantService interface {
	CreateTenant(ctx context.Context, name string) (*model.Tenant, error)
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
}

type tenantService struct {
	db         *gorm.DB
	tenantRepo repository.TenantRepository
}

func NewTenantService(db *gorm.DB, tenantRepo repository.TenantRepository) TenantService {
	return &tenantService{db: db, tenantRepo: tenantRepo}
}

func (s *tenantService) CreateTenant(ctx context.Context, name string) (*model.Tenant, error) {
	logger := middleware.GetLogger(ctx)

	if name == "" {
		return nil, model.ErrInvalidInput
	}
	tenant := &model.Tenant{
		TenantID: uuid.New(), // Service層でUUIDを生成
		Name:     name,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.tenantRepo.Create(ctx, tx, tenant)
	})
	if err != nil {
		logger.Error("Error creating tenant", "error", err)
		return nil, model.ErrInternalServer
	}

	logger.Info("Tenant created", "tenant_id", tenant.TenantID.String())
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
