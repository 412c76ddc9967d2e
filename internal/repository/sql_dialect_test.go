package repository

import "testing"

func TestLikeOperatorByDialect(t *testing.T) {
	cases := []struct {
		dialect string
		want    string
	}{
		{"sqlite", "LIKE"},
		{"", "LIKE"},
		{"mysql", "LIKE"},
		{"postgres", "ILIKE"},
		{"PostgreSQL", "ILIKE"},
		{"  postgresql  ", "ILIKE"},
	}
	for _, tc := range cases {
		if got := likeOperatorByDialect(tc.dialect); got != tc.want {
			t.Fatalf("likeOperatorByDialect(%q) = %q, want %q", tc.dialect, got, tc.want)
		}
	}
}
