// Package overlap decides whether a candidate reference region collides with regions
// already assigned to other buildings.
package overlap

import (
	"fmt"

	"campus_map/internal/geometry"
)

// Region is a stored reference region as seen by the validator.
type Region struct {
	BuildingID   uint
	BuildingName string
	Corners      geometry.Quad
}

// Validator reports one human readable conflict per colliding building.
// An empty result means the candidate may be stored.
type Validator interface {
	Validate(candidate geometry.Quad, existing []Region, excludeBuildingID uint) []string
}

// ConflictMessage is the text reported for a collision with the named building.
func ConflictMessage(buildingName string) string {
	return fmt.Sprintf("region overlaps the area already assigned to building %q", buildingName)
}

// CentroidContainment flags a collision when the centroid or any corner of either region
// lies inside the other. It approximates polygon intersection for roughly convex
// footprints: two regions that cross without containing each other's centroid or corners
// (a plus shape, or a shared edge) pass.
type CentroidContainment struct{}

var _ Validator = CentroidContainment{}

// Validate skips regions owned by excludeBuildingID; zero excludes nothing.
func (CentroidContainment) Validate(candidate geometry.Quad, existing []Region, excludeBuildingID uint) []string {
	var messages []string
	seen := make(map[string]struct{})

	for _, r := range existing {
		if excludeBuildingID != 0 && r.BuildingID == excludeBuildingID {
			continue
		}
		if !Collides(candidate, r.Corners) {
			continue
		}
		msg := ConflictMessage(r.BuildingName)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		messages = append(messages, msg)
	}
	return messages
}

// Collides runs the containment checks in both directions.
func Collides(a, b geometry.Quad) bool {
	return pointsInside(a, b) || pointsInside(b, a)
}

// pointsInside reports whether the centroid or a corner of q falls inside target.
func pointsInside(q, target geometry.Quad) bool {
	if target.Contains(q.Centroid()) {
		return true
	}
	for _, c := range q {
		if target.Contains(c) {
			return true
		}
	}
	return false
}
