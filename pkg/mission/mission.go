// Package mission sequences the marker targets of a run: pick up at one
// marker, drop at another, land at a third. Each stage lasts until the
// operator moves on.
package mission

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmpty is returned when a target list has no entries.
var ErrEmpty = errors.New("mission: no stages")

// Stage is one target marker of the mission.
type Stage struct {
	Name     string `json:"name"`
	MarkerID int    `json:"marker_id"`
}

// Default stage names.
const (
	StagePickup   = "pickup"
	StageDropZone = "dropzone"
	StageLanding  = "landing"
)

// Default returns the pickup (1), drop zone (2), landing pad (0) sequence.
func Default() []Stage {
	return []Stage{
		{Name: StagePickup, MarkerID: 1},
		{Name: StageDropZone, MarkerID: 2},
		{Name: StageLanding, MarkerID: 0},
	}
}

// Parse reads a comma-separated target list. Entries are either a bare
// marker id or name=id; bare ids get the default stage names in order and
// "stageN" beyond them.
func Parse(s string) ([]Stage, error) {
	defaults := Default()
	var stages []Stage

	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name := ""
		idText := field
		if n, v, ok := strings.Cut(field, "="); ok {
			name, idText = strings.TrimSpace(n), strings.TrimSpace(v)
		}

		id, err := strconv.Atoi(idText)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("mission: invalid marker id %q", field)
		}

		if name == "" {
			if n := len(stages); n < len(defaults) {
				name = defaults[n].Name
			} else {
				name = fmt.Sprintf("stage%d", n+1)
			}
		}
		stages = append(stages, Stage{Name: name, MarkerID: id})
	}

	if len(stages) == 0 {
		return nil, ErrEmpty
	}
	return stages, nil
}

// String formats stages the way Parse reads them.
func String(stages []Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = fmt.Sprintf("%s=%d", s.Name, s.MarkerID)
	}
	return strings.Join(parts, ",")
}
