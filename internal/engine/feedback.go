package engine

import (
	"fmt"
	"strings"

	"github.com/abhisek/masterpath/internal/kgraph"
)

// feedback composes the learner-facing message for a submission result.
func feedback(conceptName string, out *SubmitResult, g *kgraph.Graph) string {
	var b strings.Builder

	switch {
	case out.Mastered:
		fmt.Fprintf(&b, "Excellent! You've mastered %s.", conceptName)
	case out.Correct:
		fmt.Fprintf(&b, "Correct! Your mastery of %s is now %.0f%%.", conceptName, out.PLAfter*100)
	default:
		fmt.Fprintf(&b, "Not quite. Keep practicing %s.", conceptName)
	}

	if len(out.NewlyUnlocked) > 0 {
		names := make([]string, 0, len(out.NewlyUnlocked))
		for _, id := range out.NewlyUnlocked {
			if c, ok := g.Get(id); ok {
				names = append(names, c.Name)
			} else {
				names = append(names, id)
			}
		}
		fmt.Fprintf(&b, " New concepts unlocked: %s.", strings.Join(names, ", "))
	}
	return b.String()
}
