package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input  string
		region string
		want   string
		ok     bool
	}{
		{"+33 6 12 34 56 78", "CM", "+33612345678", true},
		{"06 12 34 56 78", "FR", "+33612345678", true},
		{"  ", "FR", "", false},
		{"not a number", "FR", "not a number", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeE164(tc.input, tc.region)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeE164(%q, %q) = (%q, %v), want (%q, %v)", tc.input, tc.region, got, ok, tc.want, tc.ok)
		}
	}
}
