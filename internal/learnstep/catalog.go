// internal/learnstep/catalog.go
package learnstep

// Step は練習ステップの定義です。SubItems は各ステップのチェックリスト項目で、
// 空でなければ何項目でもよい (基準データでは各3項目)。
type Step struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
	SubItems    []string `json:"sub_items"`
}

// Steps は5段階の練習ステップの定義です。スライスの順序がそのまま進行順になります。
var Steps = []Step{
	{
		ID:          "analysis",
		Name:        "곡 분석",
		Icon:        "search",
		Color:       "#8b5cf6",
		Description: "악보를 읽고 곡의 구조를 파악하는 단계",
		SubItems:    []string{"악보 읽기", "운지 번호 확인", "곡 구조 파악"},
	},
	{
		ID:          "separate_hands",
		Name:        "손 따로 연습",
		Icon:        "hand",
		Color:       "#3b82f6",
		Description: "오른손과 왼손을 따로 연습하는 단계",
		SubItems:    []string{"오른손 연습", "왼손 연습", "어려운 부분 반복"},
	},
	{
		ID:          "hands_together",
		Name:        "양손 합주",
		Icon:        "music",
		Color:       "#10b981",
		Description: "양손을 맞춰서 연습하는 단계",
		SubItems:    []string{"천천히 양손 맞추기", "박자 맞추기", "페달 넣기"},
	},
	{
		ID:          "mastery",
		Name:        "완성도 높이기",
		Icon:        "star",
		Color:       "#f59e0b",
		Description: "표현과 빠르기를 완성하는 단계",
		SubItems:    []string{"셈여림 표현", "빠르기 완성", "전체 통주"},
	},
	{
		ID:          "performance",
		Name:        "암보와 발표",
		Icon:        "mic",
		Color:       "#ef4444",
		Description: "암보하고 발표를 준비하는 단계",
		SubItems:    []string{"암보 연습", "녹음해서 듣기", "발표 리허설"},
	},
}

// Find はステップIDから定義を探します
func Find(stepID string) (Step, bool) {
	for _, s := range Steps {
		if s.ID == stepID {
			return s, true
		}
	}
	return Step{}, false
}

// indexOf はステップIDのカタログ上の位置を返します。未知のIDは -1。
func indexOf(stepID string) int {
	for i, s := range Steps {
		if s.ID == stepID {
			return i
		}
	}
	return -1
}
