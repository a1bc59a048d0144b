// Package folders maps folder categories onto storage-layer path prefixes.
// Upload-time and listing-time folder naming evolved independently (plural
// category names vs. singular storage prefixes), so lookups consult a fixed
// alias table instead of requiring a data migration.
package folders

// Canonical folder categories.
const (
	Documents = "documents"
	Images    = "images"
	Videos    = "videos"
	Music     = "music"
	Archives  = "archives"
	Others    = "others"
)

// Default is the category assigned when a client declares none.
const Default = Documents

// aliases maps each canonical category to the alternative prefixes files may
// be stored under.
var aliases = map[string][]string{
	Documents: {"document"},
	Images:    {"image", "pictures"},
	Videos:    {"video"},
	Music:     {"audio"},
	Archives:  {"archive"},
	Others:    {"other"},
}

// canonical maps every known name, alias or category, to its category.
var canonical = func() map[string]string {
	m := make(map[string]string)
	for cat, alts := range aliases {
		m[cat] = cat
		for _, a := range alts {
			m[a] = cat
		}
	}
	return m
}()

// Valid reports whether name is a canonical category.
func Valid(name string) bool {
	_, ok := aliases[name]
	return ok
}

// Normalize maps name (category or alias) to its canonical category.
// Empty or unknown names map to Default.
func Normalize(name string) string {
	if cat, ok := canonical[name]; ok {
		return cat
	}
	return Default
}

// SearchPrefixes returns the ordered list of storage prefixes to try for the
// requested folder: the requested name verbatim first, then its aliases.
// Unknown names pass through unchanged so listings come back empty rather
// than erroring.
func SearchPrefixes(requested string) []string {
	prefixes := []string{requested}
	if cat, ok := canonical[requested]; ok {
		if cat != requested {
			prefixes = append(prefixes, cat)
		}
		for _, a := range aliases[cat] {
			if a != requested {
				prefixes = append(prefixes, a)
			}
		}
	}
	return prefixes
}
