package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"inspection-system/internal/entities"
	"inspection-system/pkg/utils"
)

type EmailContent struct {
	Subject  string
	HTML     string
	Text     string
	Filename string
}

var emailHTML = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #24292f;">
<h2>{{.Title}}</h2>
<table cellpadding="4" cellspacing="0">
{{- range .Fields}}
<tr><td><strong>{{.Label}}</strong></td><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{- if .Videos}}
<h3>Videos</h3>
<ol>
{{- range .Videos}}
<li>{{.Checkpoint}}: <a href="{{.URL}}">{{.Filename}}</a></li>
{{- end}}
</ol>
{{- end}}
<p>The full report is attached as a PDF.</p>
</body>
</html>
`))

// Subject собирает тему из присутствующих частей через " - ".
func Subject(detail *entities.InspectionDetail) string {
	parts := []string{"Inspection Report", TemplateName(detail)}
	if v := utils.SafeDeref(detail.FreightID); v != "" {
		parts = append(parts, fmt.Sprintf("[Freight %s]", v))
	}
	if v := utils.SafeDeref(detail.TaskID); v != "" {
		parts = append(parts, fmt.Sprintf("[Task %s]", v))
	}
	parts = append(parts, fmt.Sprintf("%s (%s)", detail.Equipment.Model, SerialNumber(detail)))
	return strings.Join(parts, " - ")
}

func GenerateEmailContent(detail *entities.InspectionDetail) (EmailContent, error) {
	fields := Overview(detail)
	videos := VideoLinks(detail)
	title := fmt.Sprintf("Inspection #%d", detail.ID)

	var html bytes.Buffer
	err := emailHTML.Execute(&html, struct {
		Title  string
		Fields []Field
		Videos []VideoLink
	}{title, fields, videos})
	if err != nil {
		return EmailContent{}, fmt.Errorf("ошибка шаблона письма: %w", err)
	}

	var text strings.Builder
	text.WriteString(title + "\n\n")
	for _, f := range fields {
		fmt.Fprintf(&text, "%s: %s\n", f.Label, f.Value)
	}
	if len(videos) > 0 {
		text.WriteString("\nVideos:\n")
		for i, v := range videos {
			fmt.Fprintf(&text, "%d. %s: %s - %s\n", i+1, v.Checkpoint, v.Filename, v.URL)
		}
	}
	text.WriteString("\nThe full report is attached as a PDF.\n")

	return EmailContent{
		Subject:  Subject(detail),
		HTML:     html.String(),
		Text:     text.String(),
		Filename: Filename(detail),
	}, nil
}
