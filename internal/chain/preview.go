package chain

import "github.com/rivo/uniseg"

// Preview shortens text to at most limit grapheme clusters, appending "..." when cut.
func Preview(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if uniseg.GraphemeClusterCount(text) <= limit {
		return text
	}
	g := uniseg.NewGraphemes(text)
	end := 0
	for n := 0; n < limit && g.Next(); n++ {
		_, end = g.Positions()
	}
	return text[:end] + "..."
}
