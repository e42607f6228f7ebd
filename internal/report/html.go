package report

import (
	"bytes"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// MarkdownToHTML converts Markdown (with tables) to an HTML fragment.
func MarkdownToHTML(md []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(md, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func writeHTMLPage(w io.Writer, title string, md []byte) error {
	body, err := MarkdownToHTML(md)
	if err != nil {
		return err
	}
	return pageTemplate.Execute(w, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: body})
}
