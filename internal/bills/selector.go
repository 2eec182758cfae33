package bills

// Rendition types recognized by the selector, in fetch priority order.
// PDF renditions also appear in API payloads but are not fetched here;
// extraction would need a PDF text pipeline.
const (
	RenditionXML  = "Formatted XML"
	RenditionHTML = "Formatted Text"
)

// LatestVersion picks the most recent publication stage from the API's
// chronologically ordered list. ok is false when the bill has no text
// versions yet; that is an ordinary outcome, not an error.
func LatestVersion(versions []TextVersion) (TextVersion, bool) {
	if len(versions) == 0 {
		return TextVersion{}, false
	}
	return versions[len(versions)-1], true
}

// ChooseRenditions returns the renditions of a version worth attempting,
// ordered by preference: Formatted XML first, then Formatted Text. The
// order of the input list does not matter. Callers try each in turn and
// stop at the first fetch+normalize success.
func ChooseRenditions(version TextVersion) []TextRendition {
	var out []TextRendition
	for _, want := range []string{RenditionXML, RenditionHTML} {
		for _, r := range version.Renditions {
			if r.Type == want && r.URL != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
