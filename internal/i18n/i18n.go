// Package i18n 界面语言选择和文本翻译
//
// 每个请求解析出的语言通过context传递,不保存全局会话状态。
package i18n

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// knownTags 支持的语言代码及对应的语言标签
var knownTags = map[string]language.Tag{
	"zh": language.SimplifiedChinese,
	"en": language.English,
	"ja": language.Japanese,
	"fr": language.French,
	"es": language.Spanish,
}

// Localizer 语言匹配和翻译
type Localizer struct {
	codes    []string // codes[0] 为默认语言
	tags     []language.Tag
	matcher  language.Matcher
	catalog  *catalog.Builder
	fallback string
}

// New 创建Localizer, defaultLang必须在supported中
func New(supported []string, defaultLang string) (*Localizer, error) {
	defaultTag, ok := knownTags[defaultLang]
	if !ok {
		return nil, fmt.Errorf("不支持的默认语言: %s", defaultLang)
	}

	l := &Localizer{
		codes:    []string{defaultLang},
		tags:     []language.Tag{defaultTag},
		fallback: defaultLang,
		catalog:  catalog.NewBuilder(catalog.Fallback(defaultTag)),
	}

	found := false
	for _, code := range supported {
		tag, ok := knownTags[code]
		if !ok {
			return nil, fmt.Errorf("不支持的语言: %s", code)
		}
		if code == defaultLang {
			found = true
			continue
		}
		l.codes = append(l.codes, code)
		l.tags = append(l.tags, tag)
	}
	if !found {
		return nil, fmt.Errorf("默认语言 %s 不在支持列表中", defaultLang)
	}

	l.matcher = language.NewMatcher(l.tags)

	for _, code := range l.codes {
		tag := knownTags[code]
		for key, byLang := range messages {
			text, ok := byLang[code]
			if !ok {
				continue
			}
			if err := l.catalog.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("加载翻译失败 [%s/%s]: %w", code, key, err)
			}
		}
	}

	return l, nil
}

// Default 默认语言代码
func (l *Localizer) Default() string {
	return l.fallback
}

// Supported 支持的语言代码, 默认语言在前
func (l *Localizer) Supported() []string {
	return append([]string(nil), l.codes...)
}

// IsSupported 语言代码是否受支持
func (l *Localizer) IsSupported(code string) bool {
	for _, c := range l.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Match 根据Accept-Language选择最合适的语言, 无法匹配时返回默认语言
func (l *Localizer) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return l.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return l.fallback
	}
	return l.codes[index]
}

// Printer 返回指定语言的Printer, 不支持的语言使用默认语言
func (l *Localizer) Printer(code string) *message.Printer {
	if !l.IsSupported(code) {
		code = l.fallback
	}
	return message.NewPrinter(knownTags[code], message.Catalog(l.catalog))
}

// T 翻译key
func (l *Localizer) T(code, key string, args ...interface{}) string {
	return l.Printer(code).Sprintf(key, args...)
}

type localeKey struct{}

// WithLocale 将语言代码放入context
func WithLocale(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, localeKey{}, code)
}

// FromContext 读取context中的语言代码, 没有时返回空字符串
func FromContext(ctx context.Context) string {
	code, _ := ctx.Value(localeKey{}).(string)
	return code
}
