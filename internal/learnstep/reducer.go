// internal/learnstep/reducer.go
package learnstep

import (
	"fmt"
	"strings"

	"lesson_progress_keep/internal/model"
)

// Select はステップ選択に対する次の状態を返す純粋関数です。
//   - 選択したステップが completed に入っている場合は「取り消し」: completed から外し、
//     そのステップのチェック項目も破棄する。currentStep だった場合はクリアする。
//   - それ以外は currentStep に設定し、カタログ順でそれより前のステップを
//     completed にバックフィルする (「完成度高め」を選べば分析・손따로・양손は完了扱い)。
//     選択したステップ自身は completed には入れない。
//
// 未知のステップIDは model.ErrInvalidInput を返します。
func Select(state model.LearningStepState, stepID string) (model.LearningStepState, error) {
	idx := indexOf(stepID)
	if idx < 0 {
		return state, fmt.Errorf("learnstep.Select: unknown step %q: %w", stepID, model.ErrInvalidInput)
	}

	next := clone(state)

	if contains(next.CompletedSteps, stepID) {
		// 取り消しパス
		next.CompletedSteps = remove(next.CompletedSteps, stepID)
		delete(next.SubItems, stepID)
		if next.CurrentStep == stepID {
			next.CurrentStep = ""
		}
		return next, nil
	}

	next.CurrentStep = stepID
	for _, s := range Steps[:idx] {
		if !contains(next.CompletedSteps, s.ID) {
			next.CompletedSteps = append(next.CompletedSteps, s.ID)
		}
	}
	return next, nil
}

// ToggleSubItem はチェック項目の有無を反転します。currentStep / completedSteps は変更しません。
func ToggleSubItem(state model.LearningStepState, stepID, item string) (model.LearningStepState, error) {
	if _, ok := Find(stepID); !ok {
		return state, fmt.Errorf("learnstep.ToggleSubItem: unknown step %q: %w", stepID, model.ErrInvalidInput)
	}

	next := clone(state)
	if next.SubItems == nil {
		next.SubItems = make(map[string][]string)
	}

	items := next.SubItems[stepID]
	if contains(items, item) {
		items = remove(items, item)
	} else {
		items = append(items, item)
	}
	if len(items) == 0 {
		delete(next.SubItems, stepID)
	} else {
		next.SubItems[stepID] = items
	}
	return next, nil
}

// Describe は状態の要約文字列を返します。
// ステップ未選択なら空文字。現在のステップにチェック項目があれば
// "ステップ名 - 項目1, 項目2" の形式になります。
func Describe(state model.LearningStepState) string {
	if state.CurrentStep == "" {
		return ""
	}
	step, ok := Find(state.CurrentStep)
	if !ok {
		return ""
	}
	items := state.SubItems[state.CurrentStep]
	if len(items) == 0 {
		return step.Name
	}
	return step.Name + " - " + strings.Join(items, ", ")
}

// ComposeMemo は曲の情報とステップ状態からメモ1行を組み立てます。
// "<タイトル> (<番号>번) : <要約> / <特記事項>" の形式で、
// 空のパートは区切り文字ごと省略されます。
func ComposeMemo(title, number string, state model.LearningStepState) string {
	identity := title
	if number != "" {
		identity = fmt.Sprintf("%s (%s번)", title, number)
	}

	memo := identity
	if desc := Describe(state); desc != "" {
		memo += " : " + desc
	}
	if state.SpecialNotes != "" {
		memo += " / " + state.SpecialNotes
	}
	return memo
}

// --- スライス・マップのヘルパー ---

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// clone は状態の独立したコピーを返します (呼び出し元の state は変更しない)
func clone(state model.LearningStepState) model.LearningStepState {
	next := model.LearningStepState{
		CurrentStep:  state.CurrentStep,
		SpecialNotes: state.SpecialNotes,
	}
	next.CompletedSteps = append([]string(nil), state.CompletedSteps...)
	if state.SubItems != nil {
		next.SubItems = make(map[string][]string, len(state.SubItems))
		for k, v := range state.SubItems {
			next.SubItems[k] = append([]string(nil), v...)
		}
	}
	return next
}
