package domain

import "strings"

// Lane classifies the authority of a worldline.
type Lane string

const (
	// LaneOfficial marks the canonical storyline.
	LaneOfficial Lane = "official"
	// LaneVNBranch marks a sanctioned side path.
	LaneVNBranch Lane = "vn_branch"
	// LaneScratch marks an experimental branch.
	LaneScratch Lane = "scratch"
)

// laneAliases maps free-text lane names to canonical lanes.
var laneAliases = map[string]Lane{
	"official":     LaneOfficial,
	"canon":        LaneOfficial,
	"main":         LaneOfficial,
	"vn_branch":    LaneVNBranch,
	"vn":           LaneVNBranch,
	"branch":       LaneVNBranch,
	"side":         LaneVNBranch,
	"scratch":      LaneScratch,
	"sandbox":      LaneScratch,
	"experimental": LaneScratch,
}

// laneHints are id substrings used to infer a lane when no lane text is given.
var laneHints = []struct {
	substr string
	lane   Lane
}{
	{"official", LaneOfficial},
	{"canon", LaneOfficial},
	{"main", LaneOfficial},
	{"vn", LaneVNBranch},
	{"branch", LaneVNBranch},
	{"side", LaneVNBranch},
}

// ResolveLane normalizes free-text lane input, falling back to inferring a
// lane from the worldline id and finally to the scratch lane.
func ResolveLane(text, worldlineID string) Lane {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if lane, ok := laneAliases[normalized]; ok {
		return lane
	}

	id := strings.ToLower(worldlineID)
	for _, hint := range laneHints {
		if strings.Contains(id, hint.substr) {
			return hint.lane
		}
	}
	return LaneScratch
}

// Label returns the display label for the lane.
func (l Lane) Label() string {
	switch l {
	case LaneOfficial:
		return "Canon"
	case LaneVNBranch:
		return "Story Branch"
	case LaneScratch:
		return "Scratch"
	default:
		return string(l)
	}
}

// Color returns the display color for the lane.
func (l Lane) Color() string {
	switch l {
	case LaneOfficial:
		return "#c9a227"
	case LaneVNBranch:
		return "#5b8dbf"
	case LaneScratch:
		return "#8a8a8a"
	default:
		return "#8a8a8a"
	}
}
