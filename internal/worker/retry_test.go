package worker

import (
	"testing"
	"time"
)

func TestBackoff_ExponentialWithCap(t *testing.T) {
	cases := []struct {
		retry int
		want  time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // cap
		{10, 30 * time.Second},
	}

	for _, tc := range cases {
		if got := Backoff(tc.retry); got != tc.want {
			t.Errorf("Backoff(%d) = %s, want %s", tc.retry, got, tc.want)
		}
	}
}
