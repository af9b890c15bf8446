package lzmatch

// Level selects the match finder's effort: how many hash-chain candidates
// to walk and whether lazy matching is attempted.
type Level int

const (
	// LevelNone disables matching entirely; the caller emits literals
	// only (used by flate.LevelNone to force stored blocks).
	LevelNone Level = iota
	LevelFast
	LevelBalanced
	LevelBest
)

// params bundles the tunables derived from a Level.
type params struct {
	maxChainLen int
	lazy        bool
	niceLength  int // stop searching early once a match this long is found
}

func (l Level) params() params {
	switch l {
	case LevelFast:
		return params{maxChainLen: 4, lazy: false, niceLength: 16}
	case LevelBest:
		return params{maxChainLen: 4096, lazy: true, niceLength: 258}
	default: // LevelBalanced
		return params{maxChainLen: 32, lazy: true, niceLength: 128}
	}
}
