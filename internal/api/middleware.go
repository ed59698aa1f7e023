package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/i18n"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// contextKey 请求context中的键
type contextKey string

const requestIDKey contextKey = "request_id"

// LangCookie 保存界面语言的cookie名
const LangCookie = "teocruel_lang"

// RequestIDMiddleware 为每个请求分配请求ID
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID 读取请求ID
func GetRequestID(r *http.Request) string {
	if requestID, ok := r.Context().Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggingMiddleware 记录请求耗时和状态码
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		// 健康检查和前端轮询太频繁, 降为debug
		event := log.Info()
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			event = log.Debug()
		}
		event.
			Str("request_id", GetRequestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("请求完成")
	})
}

// responseWrapper 记录写出的状态码
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecoveryMiddleware 将panic转换为500 JSON响应
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Str("request_id", GetRequestID(r)).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("处理请求时发生panic")
				writeError(w, r, http.StatusInternalServerError, i18n.MsgInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// localizerKey 保存Localizer的context键
type localizerKey struct{}

// LocaleMiddleware 解析请求语言: cookie → Accept-Language → 默认语言
func LocaleMiddleware(localizer *i18n.Localizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if cookie, err := r.Cookie(LangCookie); err == nil && localizer.IsSupported(cookie.Value) {
				lang = cookie.Value
			}
			if lang == "" {
				lang = localizer.Match(r.Header.Get("Accept-Language"))
			}

			ctx := i18n.WithLocale(r.Context(), lang)
			ctx = context.WithValue(ctx, localizerKey{}, localizer)
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// translate 按请求语言翻译
// 没有经过LocaleMiddleware的请求返回key本身
func translate(r *http.Request, key string, args ...interface{}) string {
	localizer, ok := r.Context().Value(localizerKey{}).(*i18n.Localizer)
	if !ok {
		return key
	}
	return localizer.T(i18n.FromContext(r.Context()), key, args...)
}
