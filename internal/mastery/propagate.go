package mastery

import (
	"time"

	"github.com/abhisek/masterpath/internal/kgraph"
)

// Propagate advances the unlocked set after justMastered entered the
// mastered set. It walks the successor closure breadth-first: a concept
// unlocks when every one of its prerequisites is mastered, and the walk
// continues through concepts that are already mastered so that unlocks
// enabled by earlier, out-of-order masteries are never missed.
//
// Returns the ids of newly unlocked concepts in the order they unlocked.
func Propagate(g *kgraph.Graph, rec *Record, justMastered string, now time.Time) []string {
	var newlyUnlocked []string

	queue := []string{justMastered}
	visited := map[string]bool{justMastered: true}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, succID := range g.SuccessorsOf(id) {
			if visited[succID] {
				continue
			}
			visited[succID] = true

			if !allPrerequisitesMastered(g, rec, succID) {
				continue
			}

			if !rec.Unlocked[succID] {
				c, ok := g.Get(succID)
				if !ok {
					continue
				}
				rec.unlock(c, now)
				newlyUnlocked = append(newlyUnlocked, succID)
			}

			// A successor mastered in a previous pass may gate concepts
			// further down; keep walking through it.
			if rec.Mastered[succID] {
				queue = append(queue, succID)
			}
		}
	}

	return newlyUnlocked
}

func allPrerequisitesMastered(g *kgraph.Graph, rec *Record, conceptID string) bool {
	for _, prereqID := range g.PrerequisitesOf(conceptID) {
		if !rec.Mastered[prereqID] {
			return false
		}
	}
	return true
}
