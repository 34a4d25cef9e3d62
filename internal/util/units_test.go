package util

import "testing"

func TestParseUnits(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{name: "plain", input: "3", want: 3, ok: true},
		{name: "with days", input: "3 MWF", want: 3, ok: true},
		{name: "glued days", input: "3TTh", want: 3, ok: true},
		{name: "lowercase days", input: "6 tth", want: 6, ok: true},
		{name: "decimal", input: "4.0", want: 4, ok: true},
		{name: "nbsp", input: " 5 ", want: 5, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "no digits", input: "TBA", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseUnits(tc.input)
			if parsed.OK != tc.ok {
				t.Fatalf("ok=%v want %v", parsed.OK, tc.ok)
			}
			if parsed.Units != tc.want {
				t.Fatalf("got %d want %d", parsed.Units, tc.want)
			}
		})
	}
}

func TestLettersOnlyUpper(t *testing.T) {
	if got := LettersOnlyUpper(" Full-Time: "); got != "FULLTIME" {
		t.Fatalf("got %q", got)
	}
}
