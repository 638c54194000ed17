package notify

import (
	// Go Internal Packages
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// TemplateData is what a confirmation message is rendered from.
type TemplateData struct {
	ParentName string
	Children   []string
	Programs   []string
	Reference  string
	Amount     int64
	Currency   string
}

const confirmationTemplate = `Hello {{ .ParentName }},

Thank you! Your payment was received and the enrollment of {{ join .Children ", " }} is confirmed.
{{- if .Programs }}
Program: {{ join .Programs ", " }}
{{- end }}
Amount paid: {{ money .Amount }} {{ .Currency }}
Payment reference: {{ .Reference }}

Keep this reference for any questions about this enrollment.
`

var confirmation = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"join":  strings.Join,
	"money": func(minor int64) string { return fmt.Sprintf("%d.%02d", minor/100, minor%100) },
}).Parse(confirmationTemplate))

// Render produces the plain text confirmation body.
func Render(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := confirmation.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
