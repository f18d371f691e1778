package qr

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestCanonBasic(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"loai-A!", "A"},
		{"LO-B2", "B2"},
		{"LOAI_LOAI_C", "C"},
		{"café", "CAFE"},
		{"  spaced out  ", "SPACEDOUT"},
		{"", ""},
		{"NG", "NG"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Canon(tc.in), "Canon(%q)", tc.in)
	}
}

func TestCanonIdempotent(t *testing.T) {
	f := func(s string) bool {
		once := Canon(s)
		twice := Canon(once)
		return once == twice
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}

func TestCanonStripsLongestTokenFirst(t *testing.T) {
	// "LOAI" must be preferred over stripping just "LO" and leaving "AI".
	assert.Equal(t, "X", Canon("LOAIX"))
}
