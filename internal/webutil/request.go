// internal/webutil/request.go
package webutil

import (
	"encoding/json"
	"errors"
	"net/http"

	"lesson_progress_keep/internal/model"

	"github.com/go-playground/validator/v10"
)

// DecodeJSONBody はリクエストボディをデコードします
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return model.ErrInvalidInput
	}
	return nil
}

// ValidateStruct は共有バリデータで構造体を検証し、
// 最初のエラーを日本語メッセージ付きの AppError にして返します。
func ValidateStruct(req interface{}) *model.AppError {
	err := Validator.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		firstErr := validationErrors[0]
		return model.NewAppError(
			"VALIDATION_ERROR",
			firstErr.Translate(Trans),
			firstErr.Field(),
			model.ErrInvalidInput,
		)
	}
	// バリデーションライブラリ自体のエラーなど、予期せぬエラー
	return model.NewAppError("VALIDATION_ERROR", "リクエストの検証に失敗しました。", "", model.ErrInvalidInput)
}
