package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenantID"
	userIDKey   contextKey = "userID"

	headerTenantID = "X-Tenant-ID"
	headerUserID   = "X-User-ID"
)

// Auth проверяет заголовок X-Tenant-ID и кладет идентификаторы в контекст.
// X-User-ID опционален; при его наличии значение тоже попадает в контекст
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantIDStr := r.Header.Get(headerTenantID)
		if tenantIDStr == "" {
			handlers.RespondError(w, http.StatusUnauthorized, "отсутствует заголовок X-Tenant-ID")
			return
		}

		tenantID, err := strconv.ParseInt(tenantIDStr, 10, 64)
		if err != nil || tenantID <= 0 {
			handlers.RespondError(w, http.StatusUnauthorized, "некорректный заголовок X-Tenant-ID")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)

		if userIDStr := r.Header.Get(headerUserID); userIDStr != "" {
			if userID, err := strconv.ParseInt(userIDStr, 10, 64); err == nil && userID > 0 {
				ctx = context.WithValue(ctx, userIDKey, userID)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantID возвращает ID тенанта из контекста запроса.
// Вызывается только за Auth middleware, поэтому 0 означает ошибку конфигурации роутера
func TenantID(ctx context.Context) int64 {
	tenantID, _ := ctx.Value(tenantIDKey).(int64)
	return tenantID
}

// UserID возвращает ID пользователя из контекста запроса, если он был передан
func UserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}
