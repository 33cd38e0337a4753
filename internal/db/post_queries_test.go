package db

import "testing"

func TestEscapeLikePattern(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"100%", `100\%`},
		{"big_deal", `big\_deal`},
		{`back\slash`, `back\\slash`},
		{"%_%", `\%\_\%`},
		{"plain acquisition", "plain acquisition"},
	}
	for _, tc := range cases {
		if got := escapeLikePattern(tc.in); got != tc.want {
			t.Fatalf("escapeLikePattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
