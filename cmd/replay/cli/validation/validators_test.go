package validation

import "testing"

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid dated ID", "2026-01-02-abc123", false},
		{"valid UUID", "550e8400-e29b-41d4-a716-446655440000", false},
		{"empty", "", true},
		{"forward slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"path traversal", "../escape", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateToolUseID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"prefixed identifier", "toolu_01AbCdEf", false},
		{"uuid-like", "550e8400-e29b-41d4", false},
		{"slash rejected", "toolu/evil", true},
		{"dot rejected", "..", true},
		{"space rejected", "a b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToolUseID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateToolUseID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBranchID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "a1b2c3d4e5f6", false},
		{"all digits", "012345678901", false},
		{"too short", "a1b2c3", true},
		{"too long", "a1b2c3d4e5f6a7", true},
		{"uppercase rejected", "A1B2C3D4E5F6", true},
		{"non-hex rejected", "g1b2c3d4e5f6", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranchID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBranchID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
