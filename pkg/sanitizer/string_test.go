package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"leading and trailing", "  Calculus I  ", "Calculus I"},
		{"inner runs collapsed", "Linear\t\tAlgebra   II", "Linear Algebra II"},
		{"newlines collapsed", "Organic\nChemistry", "Organic Chemistry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeSubject(t *testing.T) {
	if got := NormalizeSubject("  Discrete   MATH "); got != "discrete math" {
		t.Errorf("NormalizeSubject = %q, want %q", got, "discrete math")
	}
}

func TestNormalizeComment(t *testing.T) {
	input := "Great class!\nVery patient.\x00\x07"
	expected := "Great class!\nVery patient."
	if got := NormalizeComment(input); got != expected {
		t.Errorf("NormalizeComment = %q, want %q", got, expected)
	}
}
