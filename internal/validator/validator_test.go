package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate()

	tests := []struct {
		tag   string
		value string
		ok    bool
	}{
		{"role", "administrator", true},
		{"role", "carpenter", true},
		{"role", "visitor", true},
		{"role", "root", false},
		{"order_status", "inProgress", true},
		{"order_status", "in_progress", false},
		{"delivery_status", "scheduled", true},
		{"delivery_status", "lost", false},
		{"stock_operation", "add", true},
		{"stock_operation", "remove", true},
		{"stock_operation", "set", false},
		{"date_ymd", "2024-02-29", true},
		{"date_ymd", "2023-02-29", false},
		{"date_ymd", "29/02/2024", false},
		{"http_url", "https://api.example.com", true},
		{"http_url", "ftp://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"_"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.ok && err != nil {
				t.Errorf("expected %q to pass %s, got %v", tt.value, tt.tag, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("expected %q to fail %s", tt.value, tt.tag)
			}
		})
	}
}
