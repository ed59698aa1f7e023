package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/RecoveryAshes/teocruel/internal/models"
)

// MaxHeaderValueLength HTTP头部值最大长度 (8KB)
const MaxHeaderValueLength = 8192

var (
	// forbiddenHeaders 由HTTP客户端管理,不允许自定义
	forbiddenHeaders = map[string]bool{
		"host":              true,
		"content-length":    true,
		"transfer-encoding": true,
		"connection":        true,
	}

	// sensitiveKeywords 敏感头部名称关键字
	sensitiveKeywords = []string{"authorization", "token", "key", "secret", "password", "credential", "cookie"}

	headerNameRegex  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValueRegex = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// ValidateHeader 验证头部名称和值 (RFC 7230)
func ValidateHeader(name, value string) error {
	field := "header " + name
	switch {
	case name == "":
		return &models.ValidationError{Field: "header", Reason: "头部名称不能为空"}
	case forbiddenHeaders[strings.ToLower(name)]:
		return &models.ValidationError{Field: field, Reason: "此头部由HTTP客户端自动管理,不允许自定义"}
	case !headerNameRegex.MatchString(name):
		return &models.ValidationError{Field: field, Reason: "头部名称包含非法字符 (仅允许字母、数字和连字符)"}
	case len(value) > MaxHeaderValueLength:
		return &models.ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), MaxHeaderValueLength),
		}
	case !headerValueRegex.MatchString(value):
		return &models.ValidationError{Field: field, Reason: "头部值包含非法字符 (仅允许可打印ASCII字符)"}
	}
	return nil
}

// ValidateHeaders 验证http.Header中的所有头部,返回第一个错误
func ValidateHeaders(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsSensitiveHeader 根据名称关键字判断是否为敏感头部
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
func RedactHeaderValue(name, value string) string {
	if !IsSensitiveHeader(name) {
		return value
	}
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// RedactHeaders 返回脱敏后的 "Name: value" 列表(按名称排序),用于日志
func RedactHeaders(headers http.Header) []string {
	parts := make([]string, 0, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		parts = append(parts, name+": "+RedactHeaderValue(name, values[0]))
	}
	sort.Strings(parts)
	return parts
}
