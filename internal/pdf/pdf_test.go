package pdf

import "testing"

func TestFilename(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		job       string
		want      string
	}{
		{"plain names", "Jane Doe", "Backend Engineer", "Jane_Doe-Backend_Engineer.pdf"},
		{"slash in job", "Jane Doe", "Engineer / Backend", "Jane_Doe-Engineer___Backend.pdf"},
		{"single word", "Jane", "Engineer", "Jane-Engineer.pdf"},
		{"empty names", "", "", "-.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.candidate, tt.job); got != tt.want {
				t.Errorf("Filename(%q, %q) = %q, want %q", tt.candidate, tt.job, got, tt.want)
			}
		})
	}
}
