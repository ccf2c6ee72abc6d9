package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultLocale 默认语言
const DefaultLocale = "en-US"

// 支持的语言标识
const (
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"
)

var supportedLocales = map[string]string{
	"en":    "en-US",
	"en-us": "en-US",
	"zh":    "zh-CN",
	"zh-cn": "zh-CN",
	"zh-tw": "zh-TW",
}

// ResolveLocale 解析请求语言，优先 query 参数 lang，其次 Accept-Language 头。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		if locale, ok := supportedLocales[strings.ToLower(lang)]; ok {
			return locale
		}
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if tag == "" {
			continue
		}
		if locale, ok := supportedLocales[tag]; ok {
			return locale
		}
		if idx := strings.Index(tag, "-"); idx > 0 {
			if locale, ok := supportedLocales[tag[:idx]]; ok {
				return locale
			}
		}
	}
	return DefaultLocale
}

// T 返回指定语言的文案，缺失时回退默认语言，再缺失时返回 key 本身。
func T(locale, key string) string {
	if messages, ok := catalog[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if messages, ok := catalog[DefaultLocale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	return key
}

// Sprintf 返回带参数的国际化文案。
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
