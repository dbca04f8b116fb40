package helpdesk

import "testing"

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}
	if len(first) != stateEntropyBytes*2 {
		t.Fatalf("state length = %d, want %d hex chars", len(first), stateEntropyBytes*2)
	}
	for _, r := range first {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("state contains non-hex rune %q", r)
		}
	}

	second, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}
	if first == second {
		t.Fatalf("consecutive states collided")
	}
}

func TestValidateState(t *testing.T) {
	tests := []struct {
		name     string
		received string
		expected string
		want     bool
	}{
		{"equal", "abc123", "abc123", true},
		{"mismatch", "abc123", "abc124", false},
		{"shared_prefix", "abc123", "abc123ff", false},
		{"different_length", "short", "a-much-longer-value", false},
		{"empty_received", "", "abc123", false},
		{"empty_expected", "abc123", "", false},
		{"both_empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateState(tt.received, tt.expected); got != tt.want {
				t.Fatalf("ValidateState(%q, %q) = %t, want %t", tt.received, tt.expected, got, tt.want)
			}
		})
	}
}
