package pipeline

import "github.com/maccabipedia/basketbot/internal/game"

// Partitioned holds candidates split by whether their record already exists.
type Partitioned struct {
	New      []game.Candidate
	Existing []game.Candidate
}

// Partition runs one pass over candidates, keeping input order in both
// halves. index must not be nil.
func Partition(candidates []game.Candidate, index game.ExistenceIndex) Partitioned {
	var p Partitioned
	for _, c := range candidates {
		if index(c.IdentityKey) {
			p.Existing = append(p.Existing, c)
			continue
		}
		p.New = append(p.New, c)
	}
	return p
}
