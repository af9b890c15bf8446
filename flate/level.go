package flate

import "github.com/ngrash/godeflate/internal/lzmatch"

// Level selects the encoder's effort: None emits stored blocks only,
// Fast/Balanced/Best select match-finder parameters of increasing cost.
type Level int

const (
	LevelNone Level = iota
	LevelFast
	LevelBalanced
	LevelBest
)

func (l Level) matcherLevel() lzmatch.Level {
	switch l {
	case LevelFast:
		return lzmatch.LevelFast
	case LevelBest:
		return lzmatch.LevelBest
	case LevelNone:
		return lzmatch.LevelNone
	default:
		return lzmatch.LevelBalanced
	}
}
