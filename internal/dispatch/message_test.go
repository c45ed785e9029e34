package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapliy/emergency-dispatch/internal/notification"
)

func TestComposeMessage(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{"missing description", "", []string{"Ground Ambulance", "Jane Doe", "Situation: N/A."}},
		{"blank description", "   ", []string{"Situation: N/A."}},
		{"with description", "Chest pain", []string{"Situation: Chest pain."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &EmergencyRequest{ServiceType: ServiceGroundAmbulance, PatientName: "Jane Doe", SituationDescription: tt.description}
			body, err := ComposeMessage(notification.TemplateEmergencyAlert, "Sapliy Health", req)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
		})
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		r      Responder
		ok     bool
		reason string
	}{
		{Responder{Phone: "+254700000001", SMSAlertsEnabled: true}, true, ""},
		{Responder{Phone: "", SMSAlertsEnabled: true}, false, "no_phone"},
		{Responder{Phone: "  ", SMSAlertsEnabled: true}, false, "no_phone"},
		{Responder{Phone: "+254700000002", SMSAlertsEnabled: false}, false, "opted_out"},
		{Responder{}, false, "no_phone"},
	}

	for _, tt := range tests {
		ok, reason := eligible(tt.r)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.reason, reason)
	}
}
