// internal/model/textbook.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Textbook は教室 (テナント) ごとの教材カタログの1件です
type Textbook struct {
	TextbookID uuid.UUID `gorm:"type:uuid;primaryKey" json:"textbook_id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Title      string    `gorm:"not null" json:"title"`
	Category   string    `json:"category,omitempty"`
	Level      string    `json:"level,omitempty"`
	Publisher  string    `json:"publisher,omitempty"`
	TotalSongs int       `json:"total_songs"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Textbook) TableName() string {
	return "textbooks"
}

// PostTextbookRequest は教材カタログ登録リクエストDTO
type PostTextbookRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	Category   string `json:"category,omitempty"`
	Level      string `json:"level,omitempty"`
	Publisher  string `json:"publisher,omitempty"`
	TotalSongs int    `json:"total_songs" validate:"gte=0"`
}

// TextbookDefaults は未解決教材に対するカテゴリ・曲数の推定値です。
// 手動登録フォームのプリセット用であり、確定したカタログ値として保存してはいけません。
type TextbookDefaults struct {
	Category   string `json:"category"`
	TotalSongs int    `json:"total_songs"`
}
