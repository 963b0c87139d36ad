package store

// DefaultLimit caps package listings unless the caller opts out with a
// negative limit. The registry never returns unbounded pages by default.
const DefaultLimit = 50

// PackageFilter holds the composable predicates for package listings.
// Zero-value fields are skipped; non-zero predicates are AND-combined.
type PackageFilter struct {
	// Search matches as a case-sensitive substring of name OR description.
	Search string
	// Tag matches packages carrying the exact tag name.
	Tag string
	// Maintainer matches the maintainer field exactly.
	Maintainer string
	// AuthorID matches the authoring user id exactly.
	AuthorID string

	// Limit bounds the page size. 0 applies DefaultLimit, negative
	// disables the bound.
	Limit int
	// Offset skips rows after filtering, in creation order.
	Offset int
}
