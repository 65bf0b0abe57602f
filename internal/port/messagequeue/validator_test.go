package messagequeue

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr bool
	}{
		{"valid tenant change", SubjectTenantChanged, `{"id":7,"key":"acme"}`, false},
		{"not json", SubjectTenantChanged, `not-json`, true},
		{"wrong type", SubjectTenantChanged, `{"id":"seven","key":"acme"}`, true},
		{"missing id", SubjectTenantChanged, `{"key":"acme"}`, true},
		{"bad key", SubjectTenantChanged, `{"id":7,"key":"Not A Key"}`, true},
		{"unknown subject any json", "tenants.other", `{"anything":true}`, false},
		{"unknown subject bad json", "tenants.other", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("error %v should wrap ErrInvalidMessage", err)
			}
		})
	}
}
