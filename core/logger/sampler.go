package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler admits the first admit calls out of every window calls.
// A zeroed sampler admits everything.
type ratioSampler struct {
	mu     sync.Mutex
	admit  int
	window int
	seen   int
}

func newRatioSampler(admit, window int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(admit, window)
	return s
}

// Set reconfigures the ratio and restarts the current window.
func (s *ratioSampler) Set(admit, window int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if admit <= 0 || window <= 0 {
		s.admit, s.window, s.seen = 0, 0, 0
		return
	}
	if admit > window {
		admit = window
	}
	s.admit = admit
	s.window = window
	s.seen = 0
}

// Allow reports whether this call falls inside the admitted share of the
// current window.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window == 0 {
		return true
	}
	s.seen++
	if s.seen > s.window {
		s.seen = 1
	}
	return s.seen <= s.admit
}

// parseRatioSpec understands "a/b" ratios and the "n" shorthand for 1-in-n.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if left, right, ok := strings.Cut(spec, "/"); ok {
		admit, errAdmit := strconv.Atoi(strings.TrimSpace(left))
		window, errWindow := strconv.Atoi(strings.TrimSpace(right))
		if errAdmit != nil || errWindow != nil {
			return 0, 0
		}
		return admit, window
	}
	n, err := strconv.Atoi(spec)
	if err != nil || n <= 0 {
		return 0, 0
	}
	return 1, n
}
