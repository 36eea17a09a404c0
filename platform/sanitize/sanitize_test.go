package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"<b>Screen</b> cracked":             "Screen cracked",
		"&lt;script&gt;alert(1)&lt;/script&gt;": "alert(1)",
		"battery   drains\x00 fast":         "battery drains fast",
		"line one\r\n\r\n\r\n\r\nline two":  "line one\n\nline two",
		"   ":                               "",
	}

	for input, want := range cases {
		if got := Text(input); got != want {
			t.Errorf("Text(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil input must stay nil")
	}
	blank := "<p></p>"
	if TextPtr(&blank) != nil {
		t.Fatal("blank result must become nil")
	}
	notes := " ring twice "
	if got := TextPtr(&notes); got == nil || *got != "ring twice" {
		t.Fatalf("unexpected result %v", got)
	}
}
