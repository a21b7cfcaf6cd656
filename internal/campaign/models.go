package campaign

import "time"

// Campaign is a locally registered batch of feedback calls. It is recorded
// even when the bulk submission partially fails, so the operator can see
// where the successful rows landed.
type Campaign struct {
	ID   string `json:"campaign_id" db:"campaign_id"`
	Name string `json:"name" db:"name"`

	TotalRecords    int `json:"total_records" db:"total_records"`
	SuccessfulCount int `json:"successful_count" db:"successful_count"`
	FailedCount     int `json:"failed_count" db:"failed_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BulkResult is the provisioning backend's reconciliation of one bulk submit.
type BulkResult struct {
	SuccessfulCount int      `json:"successfulCount"`
	FailedCount     int      `json:"failedCount"`
	Errors          []string `json:"errors"`
}

// Column names expected in uploaded CSV headers.
const (
	ColCustomerName       = "customerName"
	ColPhoneNumber        = "phoneNumber"
	ColVehicleNumber      = "vehicleNumber"
	ColServiceType        = "serviceType"
	ColServiceAdvisorName = "serviceAdvisorName"
	ColAppointmentDate    = "appointmentDate"
)
