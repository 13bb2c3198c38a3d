// internal/model/extract.go
package model

// ExtractedItem はレッスンノートのテキストからAIが抽出した1項目です。
// Status は抽出側の語彙 (completed | started | in_progress) のままです。
type ExtractedItem struct {
	Book       string `json:"book"`
	SongNumber string `json:"songNumber"`
	SongTitle  string `json:"songTitle"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// UpdatedItem は抽出結果のうち実際に進捗へ反映できた1件です
type UpdatedItem struct {
	RecordID   string         `json:"record_id"`
	BookName   string         `json:"book_name"`
	SongNumber string         `json:"song_number,omitempty"`
	SongTitle  string         `json:"song_title,omitempty"`
	Status     LearningStatus `json:"status"`
}

// UnknownTextbook はカタログに解決できなかった教材です。
// 推定値はあくまで手動登録フォームのプリセット用です。
type UnknownTextbook struct {
	Name                string `json:"name"`
	SuggestedCategory   string `json:"suggested_category"`
	SuggestedTotalSongs int    `json:"suggested_total_songs"`
}

// ExtractResult は1回のレッスンノート処理の結果です
type ExtractResult struct {
	UpdatedItems     []UpdatedItem     `json:"updated_items"`
	UnknownTextbooks []UnknownTextbook `json:"unknown_textbooks"`
}

// ExtractRequest はレッスンノート抽出リクエストDTO
type ExtractRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	StudentName  string `json:"student_name" validate:"required"`
	LessonNoteID string `json:"lesson_note_id" validate:"required"`
	NoteText     string `json:"note_text" validate:"required,min=1"`
}

// SelectStepRequest は練習ステップ選択リクエストDTO
type SelectStepRequest struct {
	State  LearningStepState `json:"state"`
	StepID string            `json:"step_id" validate:"required"`
}

// ToggleSubItemRequest はチェック項目トグルのリクエストDTO
type ToggleSubItemRequest struct {
	State  LearningStepState `json:"state"`
	StepID string            `json:"step_id" validate:"required"`
	Item   string            `json:"item" validate:"required"`
}

// MemoRequest は練習メモ生成リクエストDTO
type MemoRequest struct {
	Title  string            `json:"title" validate:"required"`
	Number string            `json:"number,omitempty"`
	State  LearningStepState `json:"state"`
}

// MemoResponse は練習メモ生成レスポンス
type MemoResponse struct {
	Memo     string `json:"memo"`
	Improved bool   `json:"improved"` // AIによる改善が効いたかどうか
}
