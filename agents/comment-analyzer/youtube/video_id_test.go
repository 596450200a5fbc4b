package youtube

import (
	"errors"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with extras", "https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"no scheme", "youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ?feature=share", "dQw4w9WgXcQ"},
		{"surrounding space", "  dQw4w9WgXcQ \n", "dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.input)
			if err != nil {
				t.Fatalf("ExtractVideoID(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractVideoIDInvalid(t *testing.T) {
	for _, input := range []string{"", "hello", "https://example.com/", "https://www.youtube.com/watch?v=short"} {
		if _, err := ExtractVideoID(input); !errors.Is(err, ErrInvalidVideoID) {
			t.Errorf("ExtractVideoID(%q) err = %v, want ErrInvalidVideoID", input, err)
		}
	}
}

func TestValidateVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"a-b_c1234XY", true},
		{"dQw4w9WgXc", false},
		{"dQw4w9WgXcQQ", false},
		{"dQw4w9WgX!Q", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateVideoID(tt.id); got != tt.want {
			t.Errorf("ValidateVideoID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected int
	}{
		{"Empty", "", 0},
		{"Seconds only", "PT45S", 45},
		{"Minutes only", "PT2M", 120},
		{"Hours only", "PT1H", 3600},
		{"Minutes and seconds", "PT1M30S", 90},
		{"Full format", "PT2H15M30S", 8130},
		{"Days", "P1DT1S", 86401},
		{"Invalid format", "invalid", 0},
		{"No time components", "PT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDurationSeconds(tt.duration); got != tt.expected {
				t.Errorf("parseDurationSeconds(%s) = %d, want %d", tt.duration, got, tt.expected)
			}
		})
	}
}
