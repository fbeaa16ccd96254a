package filter

import (
	"sort"

	"chat_filter/internal/model"
)

// VisibleMessages bounds the scan for a line to merge into. The scan stops
// once the index exceeds it, so VisibleMessages+1 lines are examined.
const VisibleMessages = 8

// FindDuplicate looks for a recently displayed line that node repeats.
// Lines are scanned newest first by id.
func FindDuplicate(lines []model.Line, node model.Line, m Marker) (model.Line, bool) {
	sorted := make([]model.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	for i, l := range sorted {
		if i > VisibleMessages {
			break
		}
		if isRepeat(l, node, m) {
			return l, true
		}
	}
	return model.Line{}, false
}

func isRepeat(old, node model.Line, m Marker) bool {
	if old.ID == node.ID || old.Type != node.Type || old.Sender != node.Sender || old.Author != node.Author {
		return false
	}
	base, _ := m.Strip(old.Value)
	return RemoveTags(base) == RemoveTags(node.Value)
}
