package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const alertEmailLayout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #b91c1c;">{{.Subject}}</h2>
  <pre style="white-space: pre-wrap; background: #f3f4f6; padding: 12px; border-radius: 6px;">{{.Body}}</pre>
  <p style="font-size: 12px; color: #6b7280;">Sent by {{.Service}}. Do not reply to this address.</p>
</body>
</html>`

var alertEmail = template.Must(template.New("operator_alert").Parse(alertEmailLayout))

// RenderAlertEmail wraps an operator alert in the HTML e-mail layout.
// Subject and body are escaped.
func RenderAlertEmail(service, subject, body string) (string, error) {
	var buf bytes.Buffer
	err := alertEmail.Execute(&buf, map[string]string{
		"Service": service,
		"Subject": subject,
		"Body":    body,
	})
	if err != nil {
		return "", fmt.Errorf("render alert email: %w", err)
	}
	return buf.String(), nil
}
