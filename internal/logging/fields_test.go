package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name      string
		attr      slog.Attr
		wantKey   string
		wantValue string
	}{
		{"Service", Service("relay"), FieldService, "relay"},
		{"IP", IP("10.0.0.1"), FieldIP, "10.0.0.1"},
		{"Method", Method("POST"), FieldMethod, "POST"},
		{"Path", Path("/"), FieldPath, "/"},
		{"Error", Error(errors.New("boom")), FieldError, "boom"},
		{"LogType", LogType("firewall"), FieldLogType, "firewall"},
		{"Subject", Subject("relay.events"), FieldSubject, "relay.events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if got := tt.attr.Value.String(); got != tt.wantValue {
				t.Errorf("value = %q, want %q", got, tt.wantValue)
			}
		})
	}
}

func TestIntFieldHelpers(t *testing.T) {
	if attr := Status(401); attr.Value.Int64() != 401 {
		t.Errorf("Status value = %d, want 401", attr.Value.Int64())
	}
	if attr := Bytes(1024); attr.Value.Int64() != 1024 {
		t.Errorf("Bytes value = %d, want 1024", attr.Value.Int64())
	}
}
