// internal/middleware/tenant.go
package middleware

import (
	"context"
	"net/http"

	"lesson_progress_keep/internal/model"
	"lesson_progress_keep/internal/webutil"

	"github.com/google/uuid"
)

// TenantContextMiddleware は X-Tenant-ID ヘッダーからテナントIDを取り出して
// コンテキストに設定します。認証そのものはこのサービスの範囲外のため、
// ここではヘッダーの形式チェックのみを行います。
func TenantContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLogger(r.Context())

		tenantIDStr := r.Header.Get("X-Tenant-ID")
		if tenantIDStr == "" {
			logger.Warn("Tenant scoping failed: X-Tenant-ID header missing")
			appErr := model.NewAppError("UNAUTHORIZED", "X-Tenant-IDヘッダーが必要です。", "", model.ErrTenantNotFound)
			webutil.HandleError(w, logger, appErr)
			return
		}

		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			logger.Warn("Tenant scoping failed: invalid X-Tenant-ID format", "value", tenantIDStr)
			appErr := model.NewAppError("UNAUTHORIZED", "X-Tenant-IDヘッダーの形式が正しくありません。", "", model.ErrTenantNotFound)
			webutil.HandleError(w, logger, appErr)
			return
		}

		ctx := context.WithValue(r.Context(), model.TenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantIDFromContext はコンテキストからテナントIDを取得します。
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(model.TenantIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, model.ErrTenantNotFound
	}
	return tenantID, nil
}
