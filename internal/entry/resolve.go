package entry

import (
	"sort"

	"github.com/Mavwarf/iconset/internal/idiom"
)

// Resolve expands the requested idioms (All included) into their profiles,
// creates one entry per profile base size, drops duplicate
// (base size, idiom, scale) triples and returns the result sorted with Less.
// Identical input always yields an identical slice.
func Resolve(idioms []idiom.Idiom, prefix string) ([]Entry, error) {
	seen := make(map[Key]struct{})
	var out []Entry
	for _, i := range idioms {
		if i < idiom.Phone || i > idiom.All {
			return nil, &idiom.InvalidIdiomError{Token: i.String()}
		}
		for _, p := range i.Profiles() {
			label, err := p.Label()
			if err != nil {
				return nil, err
			}
			for _, base := range p.BaseSizes() {
				e, err := New(base, p.Scale(), label, prefix)
				if err != nil {
					return nil, err
				}
				k := e.Key()
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				out = append(out, e)
			}
		}
	}
	Sort(out)
	return out, nil
}

// ResolveSelector parses a comma-separated idiom selector and resolves it.
func ResolveSelector(selector, prefix string) ([]Entry, error) {
	idioms, err := idiom.Parse(selector)
	if err != nil {
		return nil, err
	}
	return Resolve(idioms, prefix)
}

// PixelSizes returns the distinct rounded pixel sizes of entries in
// ascending order. Several entries can share one size; it renders once.
func PixelSizes(entries []Entry) []int {
	seen := make(map[int]struct{}, len(entries))
	var out []int
	for _, e := range entries {
		px := e.Pixels()
		if _, ok := seen[px]; ok {
			continue
		}
		seen[px] = struct{}{}
		out = append(out, px)
	}
	sort.Ints(out)
	return out
}
