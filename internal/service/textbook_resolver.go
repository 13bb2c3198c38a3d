// internal/service/textbook_resolver.go
package service

import (
	"strings"

	"lesson_progress_keep/internal/model"
)

// seriesKeyword は有名な教本シリーズのキーワード定義です。
// 韓国語表記と転写表記の対で持ち、カテゴリと標準的な曲数も添えます。
// より具体的なキーワード (「체르니 100」など) を汎用キーワードより先に並べること。
type seriesKeyword struct {
	keywords   []string
	category   string
	totalSongs int
}

var seriesKeywords = []seriesKeyword{
	{keywords: []string{"바이엘", "beyer"}, category: "기초 교본", totalSongs: 106},
	{keywords: []string{"체르니 100", "czerny 100"}, category: "연습곡", totalSongs: 100},
	{keywords: []string{"체르니 30", "czerny 30"}, category: "연습곡", totalSongs: 30},
	{keywords: []string{"체르니 40", "czerny 40"}, category: "연습곡", totalSongs: 40},
	{keywords: []string{"체르니", "czerny"}, category: "연습곡", totalSongs: 30},
	{keywords: []string{"하농", "hanon"}, category: "테크닉", totalSongs: 60},
	{keywords: []string{"부르크뮐러", "burgmüller", "burgmuller"}, category: "연습곡", totalSongs: 25},
	{keywords: []string{"소나티네", "sonatine", "sonatina"}, category: "소나티네", totalSongs: 17},
	{keywords: []string{"동요", "동요집"}, category: "동요", totalSongs: 50},
}

// ResolveTextbook は自由入力の教材名をカタログに解決します。
// 先勝ちの3段階マッチ:
//  1. 前後空白を除いた大文字小文字無視の完全一致
//  2. 部分一致 (カタログ名が入力を含む、または入力がカタログ名を含む)
//  3. シリーズキーワード一致 (入力にキーワードが含まれ、かつ
//     カタログにそのキーワードを含む教材がある)
//
// 解決できなければ nil を返します。カタログへの登録はここでは行いません。
func ResolveTextbook(name string, catalog []*model.Textbook) *model.Textbook {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return nil
	}

	// 1. 完全一致
	for _, tb := range catalog {
		if strings.ToLower(strings.TrimSpace(tb.Title)) == n {
			return tb
		}
	}

	// 2. 部分一致 (双方向)
	for _, tb := range catalog {
		t := strings.ToLower(strings.TrimSpace(tb.Title))
		if t == "" {
			continue
		}
		if strings.Contains(t, n) || strings.Contains(n, t) {
			return tb
		}
	}

	// 3. キーワード一致。入力とカタログで表記 (韓国語/転写) が違っても、
	// 同じシリーズのキーワード群に両方が引っかかれば解決する。
	for _, sk := range seriesKeywords {
		if !matchesAnyKeyword(n, sk.keywords) {
			continue
		}
		for _, tb := range catalog {
			if matchesAnyKeyword(strings.ToLower(tb.Title), sk.keywords) {
				return tb
			}
		}
	}

	return nil
}

func matchesAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// SuggestTextbookDefaults は未解決の教材名からカテゴリと曲数を推定します。
// 手動登録フォームのプリセット用で、確定したカタログ値として保存してはいけません。
func SuggestTextbookDefaults(name string, fallbackTotalSongs int) model.TextbookDefaults {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, sk := range seriesKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(n, kw) {
				return model.TextbookDefaults{
					Category:   sk.category,
					TotalSongs: sk.totalSongs,
				}
			}
		}
	}
	return model.TextbookDefaults{
		Category:   "기타",
		TotalSongs: fallbackTotalSongs,
	}
}
