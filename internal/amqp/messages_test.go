package amqp

import (
	"testing"

	"github.com/google/uuid"
)

func TestReportExportMessageRoundTrip(t *testing.T) {
	msg := NewReportExportMessage(uuid.New(), "acme", 2025, 6)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ReportExportMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.JobID != msg.JobID || got.TenantID != "acme" || got.Year != 2025 || got.Month != 6 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
}

func TestReportExportMessageFromJSONInvalid(t *testing.T) {
	if _, err := ReportExportMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
