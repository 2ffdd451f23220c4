package characters

import "math/rand/v2"

// Default is the fixed cast a run draws from.
var Default = []string{
	"Pikachu",
	"Doraemon",
	"Shinchan",
	"Mickey Mouse",
	"SpongeBob SquarePants",
	"Tom Cat",
	"Chhota Bheem",
	"Motu Patlu",
	"Oggy",
	"Scooby-Doo",
}

type Selector struct {
	names []string
	intn  func(n int) int
}

// NewSelector picks from names using intn, which must return a value in [0, n).
// A nil intn uses math/rand/v2.
func NewSelector(names []string, intn func(n int) int) *Selector {
	if len(names) == 0 {
		names = Default
	}
	if intn == nil {
		intn = rand.IntN
	}
	return &Selector{names: names, intn: intn}
}

func (s *Selector) Pick() string {
	return s.names[s.intn(len(s.names))]
}

func (s *Selector) Names() []string {
	return append([]string(nil), s.names...)
}
