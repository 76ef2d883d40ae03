package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
)

// 上游认证网关注入的身份头
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type contextKey string

const callerKey = contextKey("caller")

// CallerMiddleware 从身份头构造 domain.Caller；缺失或非法角色时为空身份，由 service 层拒绝
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := domain.Caller{
			ID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Role: domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
		}
		if caller.ID == "" || !caller.Role.IsValid() {
			caller = domain.Caller{}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
	})
}

func callerFrom(ctx context.Context) domain.Caller {
	c, _ := ctx.Value(callerKey).(domain.Caller)
	return c
}

// RequestLogger 每个请求一条访问日志
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if id := r.Header.Get(HeaderUserID); id != "" {
				fields = append(fields, zap.String("user_id", id))
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Error("Request finished", fields...)
				return
			}
			logger.Info("Request finished", fields...)
		})
	}
}
