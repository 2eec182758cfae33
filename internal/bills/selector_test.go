package bills

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatestVersionEmpty(t *testing.T) {
	t.Parallel()

	_, ok := LatestVersion(nil)
	require.False(t, ok)

	_, ok = LatestVersion([]TextVersion{})
	require.False(t, ok)
}

func TestLatestVersionPicksLast(t *testing.T) {
	t.Parallel()

	v1 := TextVersion{Type: "Introduced in House"}
	v2 := TextVersion{Type: "Engrossed in House"}
	got, ok := LatestVersion([]TextVersion{v1, v2})
	require.True(t, ok)
	require.Equal(t, v2, got)
}

func TestChooseRenditionsPrefersXML(t *testing.T) {
	t.Parallel()

	version := TextVersion{Renditions: []TextRendition{
		{Type: "PDF", URL: "https://example.gov/bill.pdf"},
		{Type: RenditionHTML, URL: "https://example.gov/bill.htm"},
		{Type: RenditionXML, URL: "https://example.gov/bill.xml"},
	}}

	got := ChooseRenditions(version)
	require.Len(t, got, 2)
	require.Equal(t, RenditionXML, got[0].Type)
	require.Equal(t, RenditionHTML, got[1].Type)
}

func TestChooseRenditionsXMLFirstRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	forward := TextVersion{Renditions: []TextRendition{
		{Type: RenditionXML, URL: "https://example.gov/a.xml"},
		{Type: RenditionHTML, URL: "https://example.gov/a.htm"},
	}}
	reversed := TextVersion{Renditions: []TextRendition{
		{Type: RenditionHTML, URL: "https://example.gov/a.htm"},
		{Type: RenditionXML, URL: "https://example.gov/a.xml"},
	}}

	require.Equal(t, ChooseRenditions(forward), ChooseRenditions(reversed))
	require.Equal(t, RenditionXML, ChooseRenditions(reversed)[0].Type)
}

func TestChooseRenditionsSkipsUnknownAndEmptyURL(t *testing.T) {
	t.Parallel()

	version := TextVersion{Renditions: []TextRendition{
		{Type: "PDF", URL: "https://example.gov/bill.pdf"},
		{Type: RenditionXML, URL: ""},
	}}
	require.Empty(t, ChooseRenditions(version))
}
