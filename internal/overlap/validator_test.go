package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campus_map/internal/geometry"
)

func square(x, y, size float64) geometry.Quad {
	return geometry.Quad{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}
}

func TestValidateEmptyExisting(t *testing.T) {
	v := CentroidContainment{}
	for _, c := range []geometry.Quad{square(0, 0, 10), square(-50, -50, 1), {{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}}} {
		assert.Empty(t, v.Validate(c, nil, 0))
	}
}

func TestValidateCentroidInsideExisting(t *testing.T) {
	existing := []Region{{BuildingID: 2, BuildingName: "Library", Corners: square(0, 0, 100)}}
	got := CentroidContainment{}.Validate(square(40, 40, 10), existing, 0)
	assert.Equal(t, []string{ConflictMessage("Library")}, got)
}

func TestValidateCornerInsideExisting(t *testing.T) {
	// Only one corner of the candidate pokes into the existing region.
	existing := []Region{{BuildingID: 2, BuildingName: "Gym", Corners: square(0, 0, 10)}}
	got := CentroidContainment{}.Validate(square(8, 8, 12), existing, 0)
	assert.Equal(t, []string{ConflictMessage("Gym")}, got)
}

func TestValidateCandidateSwallowsExisting(t *testing.T) {
	existing := []Region{{BuildingID: 3, BuildingName: "Kiosk", Corners: square(45, 45, 2)}}
	got := CentroidContainment{}.Validate(square(0, 0, 100), existing, 0)
	assert.Equal(t, []string{ConflictMessage("Kiosk")}, got)
}

func TestValidateDisjoint(t *testing.T) {
	existing := []Region{
		{BuildingID: 1, BuildingName: "A", Corners: square(0, 0, 10)},
		{BuildingID: 2, BuildingName: "B", Corners: square(100, 100, 10)},
	}
	assert.Empty(t, CentroidContainment{}.Validate(square(30, 30, 10), existing, 0))
}

func TestValidateSharedEdgeMidpointPasses(t *testing.T) {
	// The diamond touches the square only at (10,5), the midpoint of its right edge.
	existing := []Region{{BuildingID: 1, BuildingName: "A", Corners: square(0, 0, 10)}}
	diamond := geometry.Quad{{X: 10, Y: 5}, {X: 15, Y: 0}, {X: 20, Y: 5}, {X: 15, Y: 10}}
	assert.Empty(t, CentroidContainment{}.Validate(diamond, existing, 0))
}

func TestValidateCrossShapeIsMissed(t *testing.T) {
	// A thin vertical bar crosses a thin horizontal bar. No centroid or corner of either lies
	// inside the other, so the approximation lets it through.
	horizontal := geometry.Quad{{X: 0, Y: 4}, {X: 20, Y: 4}, {X: 20, Y: 6}, {X: 0, Y: 6}}
	vertical := geometry.Quad{{X: 14, Y: -10}, {X: 16, Y: -10}, {X: 16, Y: 30}, {X: 14, Y: 30}}
	existing := []Region{{BuildingID: 1, BuildingName: "Walkway", Corners: horizontal}}

	assert.Empty(t, CentroidContainment{}.Validate(vertical, existing, 0))
	assert.False(t, Collides(vertical, horizontal))
}

func TestValidateDeduplicatesAndKeepsOrder(t *testing.T) {
	existing := []Region{
		{BuildingID: 4, BuildingName: "Science", Corners: square(0, 0, 20)},
		{BuildingID: 5, BuildingName: "Arts", Corners: square(10, 10, 20)},
		{BuildingID: 4, BuildingName: "Science", Corners: square(1, 1, 20)},
	}
	got := CentroidContainment{}.Validate(square(12, 12, 4), existing, 0)
	assert.Equal(t, []string{ConflictMessage("Science"), ConflictMessage("Arts")}, got)
}

func TestValidateExcludesBuilding(t *testing.T) {
	existing := []Region{
		{BuildingID: 7, BuildingName: "Self", Corners: square(0, 0, 10)},
		{BuildingID: 8, BuildingName: "Other", Corners: square(50, 50, 10)},
	}
	assert.Empty(t, CentroidContainment{}.Validate(square(1, 1, 5), existing, 7))
	assert.Len(t, CentroidContainment{}.Validate(square(1, 1, 5), existing, 0), 1)
}
