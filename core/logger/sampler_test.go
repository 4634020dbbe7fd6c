package logger

import "testing"

func TestRatioSamplerWindow(t *testing.T) {
	s := newRatioSampler(2, 5)
	admitted := 0
	for i := 0; i < 10; i++ {
		if s.Allow() {
			admitted++
		}
	}
	if admitted != 4 {
		t.Fatalf("admitted %d of 10, want 4", admitted)
	}
}

func TestRatioSamplerZeroAdmitsEverything(t *testing.T) {
	s := newRatioSampler(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatal("zeroed sampler must admit everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		spec   string
		admit  int
		window int
	}{
		{"", 0, 0},
		{"1/50", 1, 50},
		{" 2 / 10 ", 2, 10},
		{"25", 1, 25},
		{"0", 0, 0},
		{"x/y", 0, 0},
		{"nope", 0, 0},
	}
	for _, tc := range cases {
		admit, window := parseRatioSpec(tc.spec)
		if admit != tc.admit || window != tc.window {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d",
				tc.spec, admit, window, tc.admit, tc.window)
		}
	}
}
