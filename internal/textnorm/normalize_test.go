package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEntityTable(t *testing.T) {
	t.Parallel()

	in := "It&#x2019;s a &#x201Ctest&#x201D; &#x2013; done&#xA0;now"
	require.Equal(t, `It's a "test" - done now`, Normalize(in))
}

func TestNormalizeTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "em dash",
			in:   "before&#x2014;after",
			want: "before--after",
		},
		{
			name: "generic entity",
			in:   "section&#x00A7;1",
			want: "section§1",
		},
		{
			name: "tags become spaces",
			in:   "<bill><section>SEC. 1.</section><text>Short title.</text></bill>",
			want: "SEC. 1. Short title.",
		},
		{
			name: "entities inside tags decode before stripping",
			in:   "<p>He said &#x201C;aye&#x201D;</p>",
			want: `He said "aye"`,
		},
		{
			name: "whitespace collapses",
			in:   "  one \n\t two  \r\n three ",
			want: "one two three",
		},
		{
			name: "lowercase hex",
			in:   "a&#x2013;b and a&#x2019;s",
			want: "a-b and a's",
		},
		{
			name: "malformed entity degrades without error",
			in:   "broken &#xZZZZ; stays",
			want: "broken &#xZZZZ; stays",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"It&#x2019;s a &#x201Ctest&#x201D; &#x2013; done&#xA0;now",
		"<xml><title>An Act</title> to amend&#xA0;title 5</xml>",
		"plain text stays plain",
		"  spaced \t out  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once))
	}
}
