package idiom

import "fmt"

// Profile is a virtual device: one idiom at one scale with its own set of
// base point sizes.
type Profile int

const (
	Phone2x Profile = iota
	Phone3x
	Tablet1x
	Tablet2x
	Watch2x
	Watch3x
	MarketingProfile
)

type profileSpec struct {
	name  string
	idiom Idiom
	scale int
	sizes []float64
}

var (
	phoneSizes  = []float64{20, 29, 40, 60}
	tabletSizes = []float64{20, 29, 40, 76}
)

// table is immutable after init; BaseSizes hands out copies.
var table = [...]profileSpec{
	Phone2x:          {"phone@2x", Phone, 2, phoneSizes},
	Phone3x:          {"phone@3x", Phone, 3, phoneSizes},
	Tablet1x:         {"tablet@1x", Tablet, 1, tabletSizes},
	Tablet2x:         {"tablet@2x", Tablet, 2, append(append([]float64(nil), tabletSizes...), 83.5)},
	Watch2x:          {"watch@2x", Watch, 2, []float64{24, 27.5, 29, 40, 44, 50, 86, 98, 108}},
	Watch3x:          {"watch@3x", Watch, 3, []float64{29}},
	MarketingProfile: {"marketing", Marketing, 1, []float64{1024}},
}

// Profiles lists every profile in table order.
func Profiles() []Profile {
	out := make([]Profile, len(table))
	for i := range table {
		out[i] = Profile(i)
	}
	return out
}

func (p Profile) valid() bool { return p >= 0 && int(p) < len(table) }

func (p Profile) String() string {
	if !p.valid() {
		return fmt.Sprintf("profile(%d)", int(p))
	}
	return table[p].name
}

// Idiom returns the concrete idiom p belongs to. It is never All.
func (p Profile) Idiom() Idiom {
	if !p.valid() {
		return All
	}
	return table[p].idiom
}

// Scale returns the pixel multiplier of p (1, 2 or 3).
func (p Profile) Scale() int {
	if !p.valid() {
		return 0
	}
	return table[p].scale
}

// BaseSizes returns the point sizes of p in ascending order.
func (p Profile) BaseSizes() []float64 {
	if !p.valid() {
		return nil
	}
	return append([]float64(nil), table[p].sizes...)
}

// Label returns the manifest idiom label of the profile's idiom.
func (p Profile) Label() (string, error) {
	return p.Idiom().Label()
}
