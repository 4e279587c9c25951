package locale

// Pick returns the text matching the language, defaulting to English.
// An empty translation falls back to the other one.
func Pick(language, english, chinese string) string {
	if NormalizeLanguage(language) == LanguageChinese {
		if chinese != "" {
			return chinese
		}
		return english
	}
	if english != "" {
		return english
	}
	return chinese
}
