package feed

// appleCategories is the subset of Apple's fixed podcast category taxonomy
// this show can plausibly publish under. Directories reject feeds whose
// itunes:category names or subcategories fall outside the taxonomy, so the
// assembler validates channel config against this table before rendering.
var appleCategories = map[string][]string{
	"Arts":       {"Books", "Design", "Fashion & Beauty", "Food", "Performing Arts", "Visual Arts"},
	"Education":  {"Courses", "How To", "Language Learning", "Self-Improvement"},
	"Government": {},
	"History":    {},
	"News": {
		"Business News", "Daily News", "Entertainment News", "News Commentary",
		"Politics", "Sports News", "Tech News",
	},
	"Science": {
		"Astronomy", "Chemistry", "Earth Sciences", "Life Sciences",
		"Mathematics", "Natural Sciences", "Nature", "Physics", "Social Sciences",
	},
	"Technology": {},
}

// ValidAppleCategory reports whether the name (and optional subcategory)
// exist in the taxonomy table.
func ValidAppleCategory(name, subcategory string) bool {
	subs, ok := appleCategories[name]
	if !ok {
		return false
	}
	if subcategory == "" {
		return true
	}
	for _, s := range subs {
		if s == subcategory {
			return true
		}
	}
	return false
}
