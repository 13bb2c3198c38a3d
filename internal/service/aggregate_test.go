// internal/service/aggregate_test.go
package service

import (
	"testing"
	"time"

	"lesson_progress_keep/internal/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func recordWithSongs(songs []model.Song) *model.ProgressRecord {
	return &model.ProgressRecord{
		Songs: datatypes.NewJSONType(songs),
	}
}

func TestAggregateMonthly(t *testing.T) {
	// 基準: 2025年6月のある日
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		records    []*model.ProgressRecord
		months     int
		wantLabels []string
		wantData   []int
	}{
		{
			name:       "正常系: レコードなしでもラベルは期間分並ぶ",
			records:    nil,
			months:     3,
			wantLabels: []string{"2025-04", "2025-05", "2025-06"},
			wantData:   []int{0, 0, 0},
		},
		{
			name: "正常系: 完了月ごとに集計され期間外は無視される",
			records: []*model.ProgressRecord{
				recordWithSongs([]model.Song{
					{Number: "1", Status: model.StatusCompleted, CompletedDate: "2025-01-10"}, // 期間外
					{Number: "2", Status: model.StatusCompleted, CompletedDate: "2025-04-03"},
					{Number: "3", Status: model.StatusCompleted, CompletedDate: "2025-05-20"},
				}),
				recordWithSongs([]model.Song{
					{Number: "1", Status: model.StatusCompleted, CompletedDate: "2025-05-01"},
					{Number: "2", Status: model.StatusCompleted, CompletedDate: "2025-06-15"},
				}),
			},
			months:     3,
			wantLabels: []string{"2025-04", "2025-05", "2025-06"},
			wantData:   []int{1, 2, 1},
		},
		{
			name: "正常系: 未完了の曲と完了日のない曲は数えない",
			records: []*model.ProgressRecord{
				recordWithSongs([]model.Song{
					{Number: "1", Status: model.StatusInProgress, StartDate: "2025-06-01"},
					{Number: "2", Status: model.StatusCompleted}, // 完了日なし
					{Number: "3", Status: model.StatusCompleted, CompletedDate: "broken"},
					{Number: "4", Status: model.StatusCompleted, CompletedDate: "2025-06-02"},
				}),
			},
			months:     2,
			wantLabels: []string{"2025-05", "2025-06"},
			wantData:   []int{0, 1},
		},
		{
			name:       "正常系: 年をまたぐ期間",
			records:    []*model.ProgressRecord{recordWithSongs([]model.Song{{Number: "1", Status: model.StatusCompleted, CompletedDate: "2024-12-31"}})},
			months:     7,
			wantLabels: []string{"2024-12", "2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"},
			wantData:   []int{1, 0, 0, 0, 0, 0, 0},
		},
		{
			name:       "異常系: monthsが0以下なら空の結果",
			records:    []*model.ProgressRecord{recordWithSongs([]model.Song{{Number: "1", Status: model.StatusCompleted, CompletedDate: "2025-06-01"}})},
			months:     0,
			wantLabels: []string{},
			wantData:   []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateMonthly(tt.records, tt.months, now)
			assert.Equal(t, tt.wantLabels, got.Labels)
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}
