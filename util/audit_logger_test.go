package util

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/aecasagrande/clinic-app/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestLogger creates a test logger that captures output and returns it
// for assertions along with a cleanup function to restore the original logger
func setupTestLogger() (*bytes.Buffer, func()) {
	buf := &bytes.Buffer{}
	originalLogger := auditLogger
	auditLogger = log.New(buf, "[AUDIT] ", log.LstdFlags|log.Lmsgprefix)
	cleanup := func() {
		auditLogger = originalLogger
	}
	return buf, cleanup
}

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.AuditLog{}); err != nil {
		t.Fatalf("failed to auto-migrate audit log: %v", err)
	}
	return db
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes newlines",
			input:    "hello\nworld",
			expected: "hello world",
		},
		{
			name:     "removes carriage returns",
			input:    "hello\rworld",
			expected: "hello world",
		},
		{
			name:     "removes tabs",
			input:    "hello\tworld",
			expected: "hello world",
		},
		{
			name:     "truncates long values",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200) + "...",
		},
		{
			name:     "handles empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeLogValue(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeLogValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestLogAuditEventWithoutDB(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	SetAuditLoggerDB(nil)
	LogAuditEvent(AuditEvent{
		EventType: EventTreatmentCreated,
		IP:        "203.0.113.5",
		Message:   "Treatment recorded",
	})

	output := buf.String()
	if !strings.Contains(output, "Event=TREATMENT_CREATED") {
		t.Errorf("log output missing event type, got: %s", output)
	}
	if !strings.Contains(output, "IP=203.0.113.5") {
		t.Errorf("log output missing IP, got: %s", output)
	}
}

func TestLogAuditEventPersistsToDB(t *testing.T) {
	_, cleanup := setupTestLogger()
	defer cleanup()

	db := setupAuditTestDB(t)
	SetAuditLoggerDB(db)
	defer SetAuditLoggerDB(nil)

	LogAuditEvent(AuditEvent{
		EventType: EventImportFailed,
		IP:        "203.0.113.5",
		Message:   "Import aborted on duplicate unique_id",
		Details:   map[string]interface{}{"rows": 42},
	})

	var entries []model.AuditLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("failed to read audit logs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit log entry, got %d", len(entries))
	}
	if entries[0].EventType != string(EventImportFailed) {
		t.Errorf("unexpected event type: %s", entries[0].EventType)
	}
	if entries[0].Details == nil {
		t.Errorf("expected details JSON to be persisted")
	}
}

func TestLogRateLimitExceeded(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	SetAuditLoggerDB(nil)
	LogRateLimitExceeded("198.51.100.9", "/import/treatments")

	output := buf.String()
	if !strings.Contains(output, "Event=RATE_LIMIT_EXCEEDED") {
		t.Errorf("log output missing event type, got: %s", output)
	}
	if !strings.Contains(output, "/import/treatments") {
		t.Errorf("log output missing endpoint, got: %s", output)
	}
}
