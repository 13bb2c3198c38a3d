// internal/service/memo_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lesson_progress_keep/internal/ai"
	"lesson_progress_keep/internal/learnstep"
	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/model"
)

const memoSystemPrompt = `당신은 피아노 학원의 연습 메모를 다듬는 도우미입니다. 주어진 정보에 없는 사실을 추가하지 말고, 같은 내용을 자연스러운 한 줄 문장으로 다시 써 주세요. 메모 한 줄만 출력하세요.`

const memoUserPromptFormat = `곡: %s
연습 단계 상태 (JSON): %s
현재 메모: %s`

// MemoService は練習ステップ状態からメモ1行を作り、AIで文面を整えます。
// AI呼び出しが失敗しても、整形前のメモをそのまま返します (メモを失わない)。
type MemoService interface {
	ComposeMemo(ctx context.Context, req *model.MemoRequest) *model.MemoResponse
}

type memoService struct {
	aiClient ai.Client
}

func NewMemoService(aiClient ai.Client) MemoService {
	return &memoService{aiClient: aiClient}
}

func (s *memoService) ComposeMemo(ctx context.Context, req *model.MemoRequest) *model.MemoResponse {
	logger := middleware.GetLogger(ctx)

	raw := learnstep.ComposeMemo(req.Title, req.Number, req.State)

	stateJSON, err := json.Marshal(req.State)
	if err != nil {
		// 状態がマーシャリングできないことは通常ないが、あっても素のメモで十分
		return &model.MemoResponse{Memo: raw}
	}

	identity := req.Title
	if req.Number != "" {
		identity = fmt.Sprintf("%s (%s번)", req.Title, req.Number)
	}

	improved, err := s.aiClient.Generate(ctx, memoSystemPrompt,
		fmt.Sprintf(memoUserPromptFormat, identity, string(stateJSON), raw))
	if err != nil {
		logger.Warn("Memo improvement failed, falling back to raw memo", "error", err)
		return &model.MemoResponse{Memo: raw}
	}

	improved = strings.TrimSpace(improved)
	if improved == "" {
		return &model.MemoResponse{Memo: raw}
	}
	return &model.MemoResponse{Memo: improved, Improved: true}
}
