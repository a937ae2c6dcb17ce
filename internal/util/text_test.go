package util

import (
	"strings"
	"testing"
)

func TestNormalizeEnumValue(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "punctuation", input: " Retail / Leisure ", want: "retail leisure"},
		{name: "keeps hyphen and underscore", input: "Mixed-Use_Site", want: "mixed-use_site"},
		{name: "collapses runs", input: "not   owned\tby", want: "not owned by"},
		{name: "drops non ascii", input: "café", want: "caf"},
		{name: "empty", input: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeEnumValue(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestEndOfURI(t *testing.T) {
	cases := map[string]string{
		"http://opendatacommunities.org/id/london-borough-council/Hackney":  "hackney",
		"http://opendatacommunities.org/id/london-borough-council/hackney/": "hackney",
		"E09000012": "e09000012",
		"":          "",
	}
	for input, want := range cases {
		if got := EndOfURI(input); got != want {
			t.Fatalf("EndOfURI(%q) = %q want %q", input, got, want)
		}
	}
}

func TestLowerURI(t *testing.T) {
	got := LowerURI(" http://Example.com/\n path ")
	if got != "http://example.com/path" {
		t.Fatalf("got %q", got)
	}
}

func TestNewCSVReaderDropsBOM(t *testing.T) {
	r := NewCSVReader(strings.NewReader("\ufefforganisation,name\nx,y\n"))
	header, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if header[0] != "organisation" {
		t.Fatalf("got %q", header[0])
	}
}

func TestNewCSVReaderKeepsBareQuotes(t *testing.T) {
	r := NewCSVReader(strings.NewReader("SiteReference,SiteNameAddress\nBR/1,The \"Old\" Mill\nBR/2,x\n"))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[1][1] != `The "Old" Mill` {
		t.Fatalf("got %q", rows[1][1])
	}
	if rows[2][0] != "BR/2" {
		t.Fatalf("got %q", rows[2][0])
	}
}
