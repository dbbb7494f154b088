package extractor

import (
	"reflect"
	"testing"
)

// mockLogger is a test logger that captures warnings
type mockLogger struct {
	warnings []string
}

func (m *mockLogger) Warn(format string, args ...interface{}) {
	m.warnings = append(m.warnings, format)
}

func TestExtract_JSONPath_Simple(t *testing.T) {
	body := []byte(`{"id": 123, "username": "john_doe42"}`)
	result := ExtractAll(body, []Extractor{{JSONPath: "id", Variable: "account_id"}}, nil)

	if result["account_id"] != "123" {
		t.Errorf("expected '123', got '%s'", result["account_id"])
	}
}

func TestExtract_JSONPath_DollarPrefix(t *testing.T) {
	body := []byte(`{"email": {"String": "a@b.c", "Valid": true}}`)
	result := ExtractAll(body, []Extractor{
		{JSONPath: "$.email.String", Variable: "email"},
		{JSONPath: "$", Variable: "whole"},
	}, nil)

	if result["email"] != "a@b.c" {
		t.Errorf("expected 'a@b.c', got '%s'", result["email"])
	}
	if result["whole"] == "" {
		t.Error("expected '$' to return the whole document")
	}
}

func TestExtract_JSONPath_Array(t *testing.T) {
	body := []byte(`[{"id": 1}, {"id": 2}]`)
	result := ExtractAll(body, []Extractor{{JSONPath: "1.id", Variable: "second"}}, nil)

	if result["second"] != "2" {
		t.Errorf("expected '2', got '%s'", result["second"])
	}
}

func TestExtract_JSONPath_MissingWarns(t *testing.T) {
	logger := &mockLogger{}
	result := ExtractAll([]byte(`{"id": 1}`), []Extractor{{JSONPath: "balance", Variable: "balance"}}, logger)

	if v, ok := result["balance"]; !ok || v != "" {
		t.Errorf("expected empty value for missing path, got %q (present=%v)", v, ok)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(logger.warnings))
	}
}

func TestExtract_SkipsEmptyPath(t *testing.T) {
	result := ExtractAll([]byte(`{}`), []Extractor{{Variable: "nothing"}}, nil)
	if _, ok := result["nothing"]; ok {
		t.Error("extractor without a path should be skipped")
	}
}

func TestInt64(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		path   string
		want   int64
		wantOK bool
	}{
		{"number", `{"id": 42}`, "id", 42, true},
		{"dollar path", `{"id": 42}`, "$.id", 42, true},
		{"string id", `{"id": "42"}`, "id", 0, false},
		{"missing", `{"username": "x"}`, "id", 0, false},
		{"not json", `created`, "id", 0, false},
		{"empty", ``, "id", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Int64([]byte(tt.body), tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Int64() = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	body := []byte(`{"failures": ["database ping failed", "cache"], "service": "ledger"}`)
	if got := Strings(body, "failures"); !reflect.DeepEqual(got, []string{"database ping failed", "cache"}) {
		t.Errorf("Strings() = %v", got)
	}
	if got := Strings(body, "service"); got != nil {
		t.Errorf("Strings() on scalar = %v, want nil", got)
	}
	if got := Strings([]byte(`{"failures": []}`), "failures"); got == nil || len(got) != 0 {
		t.Errorf("Strings() on empty array = %#v, want empty slice", got)
	}
}
