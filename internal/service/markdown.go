package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	messageMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	messageSanitizer = bluemonday.UGCPolicy()
)

// RenderMessage 将情话/洞察的 Markdown 渲染为安全的 HTML，渲染失败时退回转义后的纯文本
func RenderMessage(markdown string) string {
	trimmed := strings.TrimSpace(markdown)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := messageMarkdown.Convert([]byte(trimmed), &buf); err != nil {
		return messageSanitizer.Sanitize(trimmed)
	}
	return strings.TrimSpace(messageSanitizer.Sanitize(buf.String()))
}
