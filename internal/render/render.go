package render

import (
	"regexp"

	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/events"
)

// Renderer emits events to an output target.
type Renderer interface {
	Emit(events.Event)
	Close() error
}

var imageMarker = regexp.MustCompile(`IMAGE\(([^)]+)\)`)

// ImageRefs extracts the image reference URLs embedded in tool or answer text
// via the IMAGE(<url>) marker.
func ImageRefs(text string) []string {
	matches := imageMarker.FindAllStringSubmatch(text, -1)
	refs := make([]string, 0, len(matches))
	for _, match := range matches {
		refs = append(refs, match[1])
	}
	return refs
}
