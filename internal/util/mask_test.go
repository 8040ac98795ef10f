package util

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ana@example.com", "a…@e….com"},
		{"  Ana@Example.COM  ", "a…@e….com"},
		{"x@y.com", "x@y.com"},
		{"user@localhost", "u…@l…"},
		{"", ""},
		{"ab", "***"},
		{"abc", "***"},
		{"anonymous", "a…s"},
		{"@example.com", "@…m"},
	}
	for _, c := range cases {
		if got := MaskEmail(c.in); got != c.want {
			t.Fatalf("MaskEmail(%q): got %q want %q", c.in, got, c.want)
		}
	}
}
