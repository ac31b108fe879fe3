package civ

import "fmt"

var (
	namePrefixes = []string{
		"Ash", "Bel", "Cor", "Dar", "Eld", "Fen", "Gal", "Hal", "Ith", "Kar",
		"Lor", "Mar", "Nor", "Ost", "Pel", "Quar", "Rho", "Sar", "Tal", "Ul",
		"Val", "Wyn", "Xan", "Yr", "Zan",
	}
	nameSuffixes = []string{
		"ia", "ora", "eth", "an", "ovia", "mark", "heim", "ara", "ond", "esh",
		"uun", "ir", "os", "ault", "enne", "ith", "arre", "um",
	}
)

// name produces a procedural civilization name. Names are unique per factory
// until the syllable space runs out, after which a numeral is appended.
func (f *Factory) name() string {
	total := len(namePrefixes) * len(nameSuffixes)
	for i := 0; i < total; i++ {
		n := namePrefixes[f.rng.Intn(len(namePrefixes))] + nameSuffixes[f.rng.Intn(len(nameSuffixes))]
		if !f.used[n] {
			f.used[n] = true
			return n
		}
	}
	n := fmt.Sprintf("%s %d", namePrefixes[f.rng.Intn(len(namePrefixes))]+nameSuffixes[0], len(f.used)+1)
	f.used[n] = true
	return n
}
