package services

import (
	"context"
	"fmt"
	"strings"

	"campus_map/internal/models"
	"campus_map/internal/repository"
)

const (
	ReasonBuildingHasRooms       = "has floors with rooms; delete rooms first"
	ReasonBuildingHasEmptyFloors = "has empty floors; delete floors first"
	ReasonFloorHasRooms          = "has rooms; delete rooms first"
)

// ReasonRouteReferences names the table whose rows still point at the building.
var ReasonRouteReferences = fmt.Sprintf("referenced by %s; remove route references first", models.RouteTableName)

// Analysis is the outcome of a dependency check. Reasons are in a fixed order.
type Analysis struct {
	Blocked bool     `json:"blocked"`
	Reasons []string `json:"reasons"`
}

// Message joins the reasons into the single text returned by delete endpoints.
func (a Analysis) Message(entity string) string {
	return fmt.Sprintf("cannot delete %s: %s", entity, strings.Join(a.Reasons, " and "))
}

// DependencyAnalyzer counts the rows that still depend on a building or floor. Bound to a
// transactional store it sees the rows locked by the caller.
type DependencyAnalyzer struct {
	store repository.HierarchyStore
}

func NewDependencyAnalyzer(store repository.HierarchyStore) DependencyAnalyzer {
	return DependencyAnalyzer{store: store}
}

// Building reports rooms, empty floors and route references independently. It does not
// check that the building exists.
func (a DependencyAnalyzer) Building(ctx context.Context, buildingID uint) (Analysis, error) {
	reasons := []string{}

	rooms, err := a.store.CountRoomsInBuilding(ctx, buildingID)
	if err != nil {
		return Analysis{}, storeErr("count rooms in building", err)
	}
	if rooms > 0 {
		reasons = append(reasons, ReasonBuildingHasRooms)
	}

	empty, err := a.store.CountEmptyFloors(ctx, buildingID)
	if err != nil {
		return Analysis{}, storeErr("count empty floors", err)
	}
	if empty > 0 {
		reasons = append(reasons, ReasonBuildingHasEmptyFloors)
	}

	routes, err := a.store.CountRouteReferences(ctx, buildingID)
	if err != nil {
		return Analysis{}, storeErr("count route references", err)
	}
	if routes > 0 {
		reasons = append(reasons, ReasonRouteReferences)
	}

	return Analysis{Blocked: len(reasons) > 0, Reasons: reasons}, nil
}

func (a DependencyAnalyzer) Floor(ctx context.Context, floorID uint) (Analysis, error) {
	rooms, err := a.store.CountRoomsOnFloor(ctx, floorID)
	if err != nil {
		return Analysis{}, storeErr("count rooms on floor", err)
	}
	if rooms > 0 {
		return Analysis{Blocked: true, Reasons: []string{ReasonFloorHasRooms}}, nil
	}
	return Analysis{Reasons: []string{}}, nil
}
