package pipeline

import "testing"

func TestMetadataIdentityKeys(t *testing.T) {
	tests := []struct {
		name     string
		metadata Metadata
		email    string
		external string
	}{
		{
			name:     "email only",
			metadata: Metadata{"email": "jane@example.com"},
			email:    "jane@example.com",
		},
		{
			name:     "external_id key",
			metadata: Metadata{"external_id": "crm-1"},
			external: "crm-1",
		},
		{
			name:     "lead_id alias",
			metadata: Metadata{"lead_id": "crm-2"},
			external: "crm-2",
		},
		{
			name:     "external_id wins over lead_id",
			metadata: Metadata{"external_id": "primary", "lead_id": "alias"},
			external: "primary",
		},
		{
			name:     "whitespace trimmed",
			metadata: Metadata{"email": "  jane@example.com  "},
			email:    "jane@example.com",
		},
		{
			name:     "non-string values ignored",
			metadata: Metadata{"email": 42, "lead_id": true},
		},
		{
			name: "nil metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metadata.Email(); got != tt.email {
				t.Errorf("Email() = %q, want %q", got, tt.email)
			}
			if got := tt.metadata.ExternalID(); got != tt.external {
				t.Errorf("ExternalID() = %q, want %q", got, tt.external)
			}
		})
	}
}

func TestMetadataProfileKeys(t *testing.T) {
	m := Metadata{"name": " Jane Doe ", "company": "Acme"}
	if got := m.Name(); got != "Jane Doe" {
		t.Errorf("Name() = %q", got)
	}
	if got := m.Company(); got != "Acme" {
		t.Errorf("Company() = %q", got)
	}
}
