package analysis

import (
	"reflect"
	"testing"
)

func TestPercentages(t *testing.T) {
	tests := []struct {
		name     string
		counts   []int
		total    int
		residual int
		want     []int
	}{
		{"thirds", []int{1, 0, 1, 1}, 3, 3, []int{33, 0, 33, 34}},
		{"exact", []int{1, 1, 0, 2}, 4, 3, []int{25, 25, 0, 50}},
		{"half rounds up", []int{1, 0, 0, 7}, 8, 3, []int{13, 0, 0, 87}},
		{"residual onto empty bucket", []int{1, 1, 1, 0}, 3, 3, []int{33, 33, 33, 1}},
		{"negative residual falls back to largest", []int{1, 1, 4, 0}, 6, 3, []int{17, 17, 66, 0}},
		{"sevenths", []int{1, 1, 1, 1, 1, 1, 1}, 7, 6, []int{14, 14, 14, 14, 14, 14, 16}},
		{"empty", []int{0, 0, 0, 0}, 0, 3, []int{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentages(tt.counts, tt.total, tt.residual)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("percentages(%v) = %v, want %v", tt.counts, got, tt.want)
			}
			if tt.total > 0 {
				sum := 0
				for _, p := range got {
					sum += p
				}
				if sum != 100 {
					t.Errorf("sum = %d, want 100", sum)
				}
			}
		})
	}
}
