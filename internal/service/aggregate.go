// internal/service/aggregate.go
package service

import (
	"time"

	"lesson_progress_keep/internal/model"
)

// AggregateMonthly は全レコードの完了曲を完了月ごとに集計します。
// now の月を最後とする months か月分のバケツ (古い月が先頭) を作り、
// 期間外の完了曲は単に無視します。labels は "2006-01" 形式です。
func AggregateMonthly(records []*model.ProgressRecord, months int, now time.Time) model.MonthlyAggregate {
	agg := model.MonthlyAggregate{
		Labels: []string{},
		Data:   []int{},
	}
	if months <= 0 {
		return agg
	}

	agg.Labels = make([]string, months)
	agg.Data = make([]int, months)
	index := make(map[string]int, months)

	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		label := base.AddDate(0, i-(months-1), 0).Format("2006-01")
		agg.Labels[i] = label
		index[label] = i
	}

	for _, rec := range records {
		for _, s := range rec.Songs.Data() {
			if s.Status != model.StatusCompleted || s.CompletedDate == "" {
				continue
			}
			d, err := time.Parse(model.DateLayout, s.CompletedDate)
			if err != nil {
				continue
			}
			if i, ok := index[d.Format("2006-01")]; ok {
				agg.Data[i]++
			}
		}
	}
	return agg
}
