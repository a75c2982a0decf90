package report

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

const markdownTemplatePath = "templates/report.md"

//go:embed templates/report.md
var templateFS embed.FS

var markdownTemplate = template.Must(
	template.New("report.md").Funcs(template.FuncMap{
		"cell": markdownCell,
		"code": inlineCode,
	}).ParseFS(templateFS, markdownTemplatePath),
)

// Markdown renders v with the embedded report template.
func Markdown(v View) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// markdownCell keeps a value on one table row.
func markdownCell(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "|", `\|`).Replace(s)
	return strings.TrimSpace(s)
}

// inlineCode keeps a value inside a single backtick span.
func inlineCode(s string) string {
	return strings.NewReplacer("`", "'", "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
