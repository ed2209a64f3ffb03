package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"invalid input", fmt.Errorf("%w: bad flag", errInvalidInput), 1},
		{"project root missing", fmt.Errorf("%w: /no/such/dir", errProjectRootMissing), 2},
		{"unhandled", errors.New("boom"), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Fatalf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
