package codec

import (
	"reflect"
	"testing"
)

func TestJoin(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want string
	}{
		{"empty list", nil, ""},
		{"single element", []string{"hello"}, "hello"},
		{"plain elements", []string{"hello", "world"}, "hello||world"},
		{"element with delimiter", []string{"a||b", "c"}, `a\|\|b||c`},
		{"lone pipe untouched", []string{"a|b"}, "a|b"},
		{"lone backslash untouched", []string{`a\b`}, `a\b`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Join(tc.in); got != tc.want {
				t.Errorf("Join(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	lists := [][]string{
		nil,
		{"hello"},
		{"hello", "world"},
		{"", "a", ""},
		{"contains||delimiter", "plain"},
		{"many||||pipes", "x"},
		{"single|pipe", `back\slash`},
		{"unicode ✓ option", "täst"},
		{`mixed\|stuff`, "a||b||c"},
	}
	for _, l := range lists {
		got := Split(Join(l))
		want := l
		if len(want) == 0 {
			want = nil
		}
		// Split never returns empty non-nil slices for empty input.
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Split(Join(%q)) = %q", l, got)
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := Split(""); got != nil {
		t.Errorf("Split(\"\") = %q, want nil", got)
	}
}
