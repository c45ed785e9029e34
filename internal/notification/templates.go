package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Template IDs for SMS bodies.
const (
	TemplateEmergencyAlert = "emergency_alert"
	TemplateDrill          = "emergency_drill"
)

// Templates is a map of template ID to template content.
var Templates = map[string]string{
	TemplateEmergencyAlert: `EMERGENCY ALERT from {{.Organization}}: {{.ServiceType}} requested for patient {{.PatientName}}. ` +
		`Situation: {{.SituationDescription}}. Please open the responder portal and respond immediately.`,
	TemplateDrill: `[DRILL] {{.Organization}} test alert: {{.ServiceType}} for {{.PatientName}}. ` +
		`Situation: {{.SituationDescription}}. No action required.`,
}

var compiled = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(Templates))
	for id, content := range Templates {
		out[id] = template.Must(template.New(id).Option("missingkey=zero").Parse(content))
	}
	return out
}()

// RenderTemplate renders a template by ID with the given data.
func RenderTemplate(templateID string, data map[string]string) (string, error) {
	tmpl, ok := compiled[templateID]
	if !ok {
		return "", fmt.Errorf("unknown template %q", templateID)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", templateID, err)
	}

	return strings.TrimSpace(buf.String()), nil
}
