package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(
	template.New("report").
		Funcs(template.FuncMap{
			"money": FormatMoney,
			"date":  FormatDate,
			"count": FormatCount,
		}).
		ParseFS(templatesFS, "templates/*.html"),
)

// RenderHTML produces the standalone HTML document handed to the PDF renderer.
func RenderHTML(data Data) (string, error) {
	return execute("report.html", data)
}

// EmailHTML produces the HTML alternative of the mail body.
func EmailHTML(data Data) (string, error) {
	return execute("email.html", data)
}

func execute(name string, data Data) (string, error) {
	var buf bytes.Buffer

	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("executing %s: %w", name, err)
	}

	return buf.String(), nil
}
