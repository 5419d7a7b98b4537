package utils

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct{ name, want string }{
		{"", ""},
		{"lmhlo.add", "lmhlo_add"},
		{"fusion_1", "fusion_1"},
		{"0kernel", "_0kernel"},
		{"a-b c", "a_b_c"},
	}
	for _, tc := range tests {
		if got := NormalizeIdentifier(tc.name); got != tc.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSet(t *testing.T) {
	s := MakeSet(1, 2)
	s.Insert(3)
	for _, k := range []int{1, 2, 3} {
		if !s.Has(k) {
			t.Errorf("set should contain %d", k)
		}
	}
	if s.Has(4) || len(s) != 3 {
		t.Errorf("unexpected set %v", s)
	}
}
