package http

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeReturnTo(t *testing.T) {
	tests := map[string]string{
		"/dashboard":             "/dashboard",
		"/settings?tab=security": "/settings?tab=security",
		"/a/b#frag":              "/a/b#frag",
		"":                       "",
		"dashboard":              "",
		"https://evil.example/":  "",
		"//evil.example":         "",
		`/\evil.example`:         "",
		"/\t/evil.example":       "",
		"/\n/evil.example":       "",
		"/\r\n/evil.example":     "",
		"/\x00/evil.example":     "",
		"/\x7f/evil.example":     "",
		"/%09/evil.example":      "/%09/evil.example",
	}
	for in, want := range tests {
		require.Equal(t, want, safeReturnTo(in), "return_to %q", in)
	}
}
