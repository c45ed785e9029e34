package dispatch

// ServiceType is the kind of emergency service requested by a patient.
type ServiceType string

const (
	ServiceFirstAid        ServiceType = "First Aid"
	ServiceGroundAmbulance ServiceType = "Ground Ambulance"
	ServiceAirAmbulance    ServiceType = "Air Ambulance"
)

// RoleEmergencyServices is the directory role of accounts that receive emergency alerts.
const RoleEmergencyServices = "emergency-services"

// Location is the geolocation attached to an emergency request.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EmergencyRequest is the snapshot of a newly created emergency-request document.
type EmergencyRequest struct {
	ID                   string      `json:"id"`
	ServiceType          ServiceType `json:"serviceType"`
	PatientName          string      `json:"patientName"`
	SituationDescription string      `json:"situationDescription,omitempty"`
	Location             Location    `json:"location"`
}

// Responder is a directory account that may be alerted about emergencies.
type Responder struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Role             string `json:"role"`
	SMSAlertsEnabled bool   `json:"smsAlertsEnabled"`
}

// Outcome is the result of one dispatch attempt to one responder.
type Outcome struct {
	ResponderID string
	Phone       string
	Duplicate   bool
	Err         error
}

// Summary aggregates the outcomes of a single notifier pass.
type Summary struct {
	RequestID  string
	Found      int
	Eligible   int
	Skipped    int
	Sent       int
	Failed     int
	Duplicates int
}
