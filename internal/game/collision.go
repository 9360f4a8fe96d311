package game

import (
	"math"

	"github.com/zyedidia/generic/mapset"
)

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// InEnterRange checks if a position is within the entry radius of a site.
func InEnterRange(pos Position, site Site) bool {
	return Distance(pos.X, pos.Y, site.Position.X, site.Position.Y) <= EnterRadius
}

// UnlockedSet builds a membership set from a list of site IDs.
func UnlockedSet(ids []string) mapset.Set[string] {
	set := mapset.New[string]()
	for _, id := range ids {
		set.Put(id)
	}
	return set
}

// FindEnteredSite returns the first unlocked site, in catalog order, whose
// entry radius contains pos.
func FindEnteredSite(pos Position, sites []Site, unlocked mapset.Set[string]) (Site, bool) {
	for _, s := range sites {
		if unlocked.Has(s.ID) && InEnterRange(pos, s) {
			return s, true
		}
	}
	return Site{}, false
}

// EntryDetector reports site entries. A site the player has just backed out
// of stays disarmed until the player leaves its radius, so standing still
// after backing out does not re-enter it immediately.
type EntryDetector struct {
	disarmed string
}

// Disarm suppresses entry into id until the player moves out of range.
func (d *EntryDetector) Disarm(id string) {
	d.disarmed = id
}

// Disarmed returns the currently disarmed site ID, if any.
func (d *EntryDetector) Disarmed() string {
	return d.disarmed
}

// Check returns the site entered at pos, if any.
func (d *EntryDetector) Check(pos Position, sites []Site, unlocked mapset.Set[string]) (Site, bool) {
	if d.disarmed != "" {
		inside := false
		for _, s := range sites {
			if s.ID == d.disarmed && InEnterRange(pos, s) {
				inside = true
				break
			}
		}
		if !inside {
			d.disarmed = ""
		}
	}

	for _, s := range sites {
		if s.ID == d.disarmed || !unlocked.Has(s.ID) {
			continue
		}
		if InEnterRange(pos, s) {
			return s, true
		}
	}
	return Site{}, false
}
