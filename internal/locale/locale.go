package locale

import "strings"

const (
	LanguageChinese = "zh"
	LanguageEnglish = "en"
	// DefaultLanguage 在无法识别请求语言时使用
	DefaultLanguage = LanguageEnglish
)

// NormalizeLanguage 将 zh-CN、en_US 等写法归一为 zh / en，无法识别时返回空串
func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "zh") || trimmed == "cn" {
		return LanguageChinese
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage 按 Accept-Language 中的先后顺序取第一个支持的语言
func LanguageFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if language := NormalizeLanguage(tag); language != "" {
			return language
		}
	}
	return ""
}

// Resolve 优先使用显式指定的语言，其次是 Accept-Language，最后回退到默认语言
func Resolve(explicit, acceptLanguage string) string {
	if language := NormalizeLanguage(explicit); language != "" {
		return language
	}
	if language := LanguageFromAcceptLanguage(acceptLanguage); language != "" {
		return language
	}
	return DefaultLanguage
}
