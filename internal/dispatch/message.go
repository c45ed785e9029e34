package dispatch

import (
	"strings"

	"github.com/sapliy/emergency-dispatch/internal/notification"
)

const notAvailable = "N/A"

// ComposeMessage renders the alert body shared by every responder of a request.
func ComposeMessage(templateID, organization string, req *EmergencyRequest) (string, error) {
	situation := strings.TrimSpace(req.SituationDescription)
	if situation == "" {
		situation = notAvailable
	}
	return notification.RenderTemplate(templateID, map[string]string{
		"Organization":         organization,
		"ServiceType":          string(req.ServiceType),
		"PatientName":          req.PatientName,
		"SituationDescription": situation,
	})
}

// eligible reports whether a responder can be alerted and, if not, why.
func eligible(r Responder) (bool, string) {
	if strings.TrimSpace(r.Phone) == "" {
		return false, "no_phone"
	}
	if !r.SMSAlertsEnabled {
		return false, "opted_out"
	}
	return true, ""
}

func claimKey(requestID, responderID string) string {
	return "dispatch:sent:" + requestID + ":" + responderID
}
