// internal/model/tenant.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant は教室 (組織) の基本情報です。教材カタログと進捗レコードは
// すべてテナント単位でスコープされます。
type Tenant struct {
	TenantID  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	Name      string         `gorm:"not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Tenant) TableName() string {
	return "tenants"
}

type ContextKey string

const (
	TenantIDKey ContextKey = "tenantID"
)

// PostTenantRequest はテナント作成リクエストDTO
type PostTenantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}
