package genomics

import (
	"testing"

	"github.com/googlegenomics/phenics/internal/failure"
)

func TestParseInterval(t *testing.T) {
	testCases := []struct {
		input string
		want  Interval
	}{
		{"chr1:100-200", Interval{"chr1", 100, 200}},
		{"20:1,000-2,000", Interval{"20", 1000, 2000}},
		{"chrX", Interval{"chrX", 1, 0}},
		{"chrX:500", Interval{"chrX", 500, 0}},
		{"chrX:500-", Interval{"chrX", 500, 0}},
		{"chr2:7-7", Interval{"chr2", 7, 7}},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseInterval(tc.input)
			if err != nil {
				t.Fatalf("ParseInterval(%q) returned unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseInterval(%q): got %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseInterval_InvalidInputs(t *testing.T) {
	testCases := []struct {
		input string
		kind  failure.Kind
	}{
		{":1-2", failure.InvalidInput},
		{"chr1:a-2", failure.NumericParse},
		{"chr1:1-b", failure.NumericParse},
		{"chr1:0-10", failure.InvalidInput},
		{"chr1:20-10", failure.InvalidInput},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseInterval(tc.input)
			if err == nil {
				t.Fatalf("ParseInterval(%q): unexpected success", tc.input)
			}
			if !failure.Is(err, tc.kind) {
				t.Errorf("ParseInterval(%q): got %v, want kind %v", tc.input, err, tc.kind)
			}
		})
	}
}

func TestInterval_Contains(t *testing.T) {
	bounded := Interval{"chr1", 10, 20}
	open := Interval{"chr1", 10, 0}

	testCases := []struct {
		name     string
		iv       Interval
		pos      Position
		contains bool
		after    bool
	}{
		{"before start", bounded, 9, false, false},
		{"at start", bounded, 10, true, false},
		{"at end", bounded, 20, true, false},
		{"past end", bounded, 21, false, true},
		{"open interval far away", open, 1 << 40, true, false},
		{"open interval before start", open, 1, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.iv.Contains(tc.pos); got != tc.contains {
				t.Errorf("Contains(%d): got %v, want %v", tc.pos, got, tc.contains)
			}
			if got := tc.iv.After(tc.pos); got != tc.after {
				t.Errorf("After(%d): got %v, want %v", tc.pos, got, tc.after)
			}
		})
	}
}

func TestInterval_HalfOpen(t *testing.T) {
	testCases := []struct {
		name     string
		iv       Interval
		beg, end int
	}{
		{"bounded", Interval{"1", 100, 200}, 99, 200},
		{"open", Interval{"1", 100, 0}, 99, 1 << 29},
		{"beyond ceiling", Interval{"1", 1, 1 << 31}, 0, 1 << 29},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			beg, end := tc.iv.HalfOpen(1 << 29)
			if beg != tc.beg || end != tc.end {
				t.Errorf("HalfOpen(): got [%d, %d), want [%d, %d)", beg, end, tc.beg, tc.end)
			}
		})
	}
}
