package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/teocruel/internal/models"
)

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		value   string
		wantErr bool
	}{
		{"合法User-Agent", "User-Agent", "Mozilla/5.0", false},
		{"合法自定义头部", "X-Custom-Header", "value\twith tab", false},
		{"空名称", "", "v", true},
		{"禁止的Host", "Host", "example.com", true},
		{"禁止的头部大小写不敏感", "content-length", "1", true},
		{"名称含空格", "Bad Name", "v", true},
		{"值含换行", "X-Test", "a\nb", true},
		{"值含非ASCII", "X-Test", "中文", true},
		{"值过长", "X-Test", strings.Repeat("a", MaxHeaderValueLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.header, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var verr *models.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("应返回ValidationError, 得到 %T", err)
				}
			}
		})
	}
}

func TestValidateHeaders(t *testing.T) {
	ok := http.Header{"Accept": {"*/*"}, "User-Agent": {"Bot"}}
	if err := ValidateHeaders(ok); err != nil {
		t.Errorf("合法头部不应报错: %v", err)
	}

	bad := http.Header{"Connection": {"close"}}
	if err := ValidateHeaders(bad); err == nil {
		t.Error("Connection头部应被拒绝")
	}
}

func TestRedactHeaderValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"User-Agent", "Mozilla/5.0", "Mozilla/5.0"},
		{"Authorization", "Bearer abc.def", "Bearer ***"},
		{"X-Api-Key", "sk-1234567890", "sk-1***7890"},
		{"X-Token", "short", "***"},
		{"Cookie", "session=abcdefghijkl", "sess***ijkl"},
	}

	for _, tt := range tests {
		if got := RedactHeaderValue(tt.name, tt.value); got != tt.want {
			t.Errorf("RedactHeaderValue(%q, %q) = %q, 期望 %q", tt.name, tt.value, got, tt.want)
		}
	}
}

func TestRedactHeaders(t *testing.T) {
	headers := http.Header{
		"User-Agent":    {"Bot/1.0"},
		"Authorization": {"Bearer secret"},
		"Empty":         {},
	}

	got := RedactHeaders(headers)
	want := []string{"Authorization: Bearer ***", "User-Agent: Bot/1.0"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("RedactHeaders() = %v, 期望 %v", got, want)
	}
}
