package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"router#", "router#", 0},
		{"router#", "router>", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevenshteinDistance(tc.a, tc.b), "distance(%q, %q)", tc.a, tc.b)
	}
}

func TestLevenshteinDistanceIsSymmetric(t *testing.T) {
	a, b := "router#(config)", "router#"
	assert.Equal(t, LevenshteinDistance(a, b), LevenshteinDistance(b, a))
}
