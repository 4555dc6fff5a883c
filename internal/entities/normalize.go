package entities

import "strings"

// NormalizeName converts a raw extracted name into its canonical display
// form: "Last, First" is reordered to "First Last" and runs of whitespace
// collapse to single spaces.
func NormalizeName(name string) string {
	name = collapseWhitespace(name)

	// Only a single comma is a reliable "Last, First" signal. Multiple commas
	// usually mean a list or an address fragment, which reordering would
	// scramble further.
	if strings.Count(name, ",") == 1 {
		parts := strings.SplitN(name, ",", 2)
		last := collapseWhitespace(parts[0])
		first := collapseWhitespace(parts[1])
		if last != "" && first != "" {
			return first + " " + last
		}
	}

	return name
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
