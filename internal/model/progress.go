// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DateLayout は曲の開始日・完了日に使う日付フォーマットです。
// レッスン記録は日単位で管理するため、時刻・タイムゾーンは持ちません。
const DateLayout = "2006-01-02"

// LearningStatus は教本・曲の進捗ステータスです
type LearningStatus string

const (
	StatusNotStarted LearningStatus = "not_started"
	StatusInProgress LearningStatus = "in_progress"
	StatusCompleted  LearningStatus = "completed"
)

// Difficulty は曲の難易度です
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// UpdatedBy は最終更新者の区分です (手入力 or AI抽出)
type UpdatedBy string

const (
	UpdatedByManual UpdatedBy = "manual"
	UpdatedByAI     UpdatedBy = "ai"
)

// LearningStepState は1曲の練習ステップの状態です。
// CompletedSteps には現在のステップより前の段階だけが入ります
// (現在のステップ自身は、後からステップを選び直したときにバックフィルされる)。
type LearningStepState struct {
	CurrentStep    string              `json:"current_step,omitempty"`
	CompletedSteps []string            `json:"completed_steps"`
	SubItems       map[string][]string `json:"sub_items,omitempty"`
	SpecialNotes   string              `json:"special_notes,omitempty"`
}

// Song は教本の中の1曲の進捗です。songs JSONカラムの要素として保存されます。
type Song struct {
	Number        string             `json:"number"` // "45" や "30-5" のような自由書式
	Title         string             `json:"title"`
	Status        LearningStatus     `json:"status"`
	Difficulty    Difficulty         `json:"difficulty,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	LearningStep  *LearningStepState `json:"learning_step,omitempty"`
	StartDate     string             `json:"start_date,omitempty"`
	CompletedDate string             `json:"completed_date,omitempty"` // Status が completed のときのみ意味を持つ
	LessonNoteIDs []string           `json:"lesson_note_ids,omitempty"`
	UpdatedBy     UpdatedBy          `json:"updated_by,omitempty"`
}

// BookInfo は教本の情報です。レコードに非正規化して保持します。
type BookInfo struct {
	Name       string     `json:"name"`
	Category   string     `json:"category,omitempty"`
	TotalSongs int        `json:"total_songs"`
	MaterialID *uuid.UUID `gorm:"type:uuid" json:"material_id,omitempty"` // 教材カタログへのリンク (任意)
	Publisher  string     `json:"publisher,omitempty"`
	Level      string     `json:"level,omitempty"`
}

// ProgressStats は曲リストから再計算される派生値です。手では編集しません。
type ProgressStats struct {
	TotalSongs         int     `json:"total_songs"`
	CompletedSongs     int     `json:"completed_songs"`
	InProgressSongs    int     `json:"in_progress_songs"`
	CompletionRate     float64 `json:"completion_rate"`
	AverageTimePerSong int     `json:"average_time_per_song"`
}

// ProgressRecord は 生徒×教本 ごとに1件の進捗レコードです。
// 曲リストと統計はドキュメント形式 (JSONカラム) で保持し、
// 更新は常にレコード単位の read-modify-write で行います。
type ProgressRecord struct {
	RecordID      uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"record_id"`
	TenantID      uuid.UUID                         `gorm:"type:uuid;not null;index" json:"-"`
	StudentID     string                            `gorm:"not null;index" json:"student_id"`
	StudentName   string                            `json:"student_name"`
	Book          BookInfo                          `gorm:"embedded;embeddedPrefix:book_" json:"book"`
	Status        LearningStatus                    `gorm:"not null;default:not_started" json:"status"`
	StartDate     string                            `json:"start_date,omitempty"`
	Songs         datatypes.JSONType[[]Song]        `json:"songs"`
	Stats         datatypes.JSONType[ProgressStats] `json:"stats"`
	LastUpdatedBy UpdatedBy                         `gorm:"not null;default:manual" json:"last_updated_by"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

// MatchSongIndex は upsert 時の曲の突き合わせを行い、一致する曲の添字を返します。
// 番号一致 または タイトル一致 の先勝ちです (意図的な OR 条件。番号が違っても
// タイトルが同じ曲は衝突する。キー仕様を変える場合はこの関数だけを直すこと)。
// 一致する曲がなければ -1 を返します。
func MatchSongIndex(songs []Song, number, title string) int {
	for i, s := range songs {
		if number != "" && s.Number == number {
			return i
		}
		if title != "" && s.Title == title {
			return i
		}
	}
	return -1
}

// --- リクエストDTO ---

// BookPayload は進捗レコード作成時の教本情報です
type BookPayload struct {
	Name       string     `json:"name" validate:"required,min=1,max=200"`
	Category   string     `json:"category,omitempty"`
	TotalSongs int        `json:"total_songs" validate:"gte=0"`
	MaterialID *uuid.UUID `json:"material_id,omitempty"`
	Publisher  string     `json:"publisher,omitempty"`
	Level      string     `json:"level,omitempty"`
}

// PostProgressRequest は進捗レコード作成リクエストDTO
type PostProgressRequest struct {
	StudentID   string         `json:"student_id" validate:"required"`
	StudentName string         `json:"student_name" validate:"required"`
	Book        BookPayload    `json:"book" validate:"required"`
	StartDate   string         `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Stats       *ProgressStats `json:"stats,omitempty"` // 省略時はゼロ値から計算する
}

// UpsertSongRequest は曲のupsertリクエストDTO。
// 空のフィールドは「指定なし」として既存の値を残します (浅いマージ)。
type UpsertSongRequest struct {
	Number        string             `json:"number,omitempty"`
	Title         string             `json:"title,omitempty"`
	Status        LearningStatus     `json:"status,omitempty" validate:"omitempty,oneof=not_started in_progress completed"`
	Difficulty    Difficulty         `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Notes         string             `json:"notes,omitempty"`
	LearningStep  *LearningStepState `json:"learning_step,omitempty"`
	StartDate     string             `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CompletedDate string             `json:"completed_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LessonNoteID  string             `json:"lesson_note_id,omitempty"`
	UpdatedBy     UpdatedBy          `json:"updated_by,omitempty" validate:"omitempty,oneof=manual ai"`
}

// CompleteUpToRequest は「N番まで完了」一括登録のリクエストDTO
type CompleteUpToRequest struct {
	UpTo int `json:"up_to" validate:"required,gte=1"`
}

// MonthlyAggregate は月別の完了曲数レポートです。labels と data は同じ長さで
// 添字が対応します (古い月が先頭)。
type MonthlyAggregate struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}
