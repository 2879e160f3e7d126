package backoff

import (
	"math/rand"
	"testing"
)

func TestComputeFixed(t *testing.T) {
	tests := []struct {
		name        string
		baseSeconds int
		maxSeconds  int
		attempts    int
		want        int
	}{
		{"base 5 max 10", 5, 10, 0, 5},
		{"base 5 max 10 many attempts", 5, 10, 100, 5},
		{"base exceeds max", 20, 10, 0, 10},
		{"zero base defaults to 1", 0, 10, 0, 1},
		{"zero max equals base", 5, 0, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			got := Compute("fixed", tt.baseSeconds, tt.maxSeconds, tt.attempts, rng)
			if got != tt.want {
				t.Errorf("Compute(fixed) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeExponential(t *testing.T) {
	tests := []struct {
		name        string
		baseSeconds int
		maxSeconds  int
		attempts    int
		want        int
	}{
		{"zero attempts", 5, 1000, 0, 5},
		{"one attempt", 5, 1000, 1, 10},
		{"two attempts", 5, 1000, 2, 20},
		{"capped at max", 5, 50, 10, 50},
		{"negative attempts treated as zero", 5, 1000, -1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			got := Compute("exponential", tt.baseSeconds, tt.maxSeconds, tt.attempts, rng)
			if got != tt.want {
				t.Errorf("Compute(exponential) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeExpFullJitter(t *testing.T) {
	tests := []struct {
		name        string
		baseSeconds int
		maxSeconds  int
		attempts    int
		wantMin     int
		wantMax     int
	}{
		{"zero attempts", 5, 1000, 0, 0, 5},
		{"one attempt", 5, 1000, 1, 0, 10},
		{"capped at max", 5, 50, 10, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			got := Compute("exp_full_jitter", tt.baseSeconds, tt.maxSeconds, tt.attempts, rng)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Compute(exp_full_jitter) = %d, want between %d and %d", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestComputeDefaultPolicy(t *testing.T) {
	// Unknown policy behaves like exp_full_jitter.
	rng := rand.New(rand.NewSource(42))
	got := Compute("unknown_policy", 5, 1000, 2, rng)
	if got < 0 || got > 20 {
		t.Errorf("Compute(unknown_policy) = %d, want between 0 and 20", got)
	}
}

func TestComputeNilRng(t *testing.T) {
	got := Compute("fixed", 5, 10, 0, nil)
	if got != 5 {
		t.Errorf("Compute with nil rng = %d, want 5", got)
	}
}
