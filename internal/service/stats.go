// internal/service/stats.go
package service

import (
	"math"
	"time"

	"lesson_progress_keep/internal/model"
)

// ComputeStats は曲リストと教本の総曲数から統計を計算する純粋関数です。
// 曲リストを変更するたびに呼び、結果をそのまま stats として保存します
// (読み出し時の遅延計算はしない)。
//
// completionRate は小数1桁に丸め、totalSongs が0以下なら0。
// totalSongs が後から completedSongs より小さく修正された場合は100%超の値を
// そのまま返す (入力ミスをUI側で気付けるよう、丸め込まない)。
// averageTimePerSong は「完了していて開始日・完了日が両方ある曲」の
// 経過日数 (切り上げ) の平均を四捨五入した値。対象曲がなければ0。
func ComputeStats(songs []model.Song, totalSongs int) model.ProgressStats {
	stats := model.ProgressStats{TotalSongs: totalSongs}

	var totalDays, qualified int
	for _, s := range songs {
		switch s.Status {
		case model.StatusCompleted:
			stats.CompletedSongs++
		case model.StatusInProgress:
			stats.InProgressSongs++
		}

		if s.Status != model.StatusCompleted || s.StartDate == "" || s.CompletedDate == "" {
			continue
		}
		start, err := time.Parse(model.DateLayout, s.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse(model.DateLayout, s.CompletedDate)
		if err != nil {
			continue
		}
		days := int(math.Ceil(end.Sub(start).Hours() / 24))
		if days < 0 {
			// 完了日が開始日より前のデータは平均から除外する
			continue
		}
		totalDays += days
		qualified++
	}

	if totalSongs > 0 {
		rate := float64(stats.CompletedSongs) / float64(totalSongs) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}
	if qualified > 0 {
		stats.AverageTimePerSong = int(math.Round(float64(totalDays) / float64(qualified)))
	}
	return stats
}
