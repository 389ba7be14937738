package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportExportMessage tells the worker to produce one budget-comparison
// export. It carries only the job id and its scope; the worker reads the
// job row and the source data itself.
type ReportExportMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	TenantID  string    `json:"tenant_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"` // 0 = whole year
	Timestamp time.Time `json:"timestamp"`
}

// NewReportExportMessage creates an export message for a queued job.
func NewReportExportMessage(jobID uuid.UUID, tenantID string, year, month int) *ReportExportMessage {
	return &ReportExportMessage{
		JobID:     jobID,
		TenantID:  tenantID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON creates a message from JSON bytes
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
