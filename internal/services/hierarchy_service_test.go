package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_map/internal/apperr"
	"campus_map/internal/models"
	"campus_map/internal/realtime"
	"campus_map/internal/repository/repotest"
)

func newHierarchyService(db *repotest.DB) (*HierarchyService, *recorder) {
	rec := &recorder{}
	return NewHierarchyService(repotest.NewHierarchyStore(db), rec), rec
}

func TestDeleteFloorWithRoomsThenCascade(t *testing.T) {
	db := repotest.NewDB()
	b := db.AddBuilding("Science")
	f := db.AddFloor(b, "1")
	r1 := db.AddRoom(f, "S101")
	r2 := db.AddRoom(f, "S102")
	svc, rec := newHierarchyService(db)
	ctx := context.Background()

	err := svc.DeleteFloor(ctx, f)
	ae := apperr.As(err)
	require.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, []string{ReasonFloorHasRooms}, ae.Reasons)
	assert.Contains(t, ae.Message, "has rooms")

	res, err := svc.DeleteRoom(ctx, r1)
	require.NoError(t, err)
	assert.False(t, res.FloorRemoved)
	assert.Contains(t, db.Floors, f)

	res, err = svc.DeleteRoom(ctx, r2)
	require.NoError(t, err)
	assert.True(t, res.FloorRemoved)
	assert.Equal(t, f, res.FloorID)
	assert.NotContains(t, db.Floors, f)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.DeleteFloor(ctx, f)))

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, realtime.EventRoomDeleted, last.Type)
	assert.Equal(t, true, last.Data["floor_removed"])
}

func TestDeleteRoomCascadeRollsBackTogether(t *testing.T) {
	db := repotest.NewDB()
	b := db.AddBuilding("Science")
	f := db.AddFloor(b, "1")
	r := db.AddRoom(f, "S101")
	db.FailOn = "DeleteFloor"
	svc, rec := newHierarchyService(db)

	_, err := svc.DeleteRoom(context.Background(), r)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.Contains(t, db.Rooms, r)
	assert.Contains(t, db.Floors, f)
	assert.Empty(t, rec.events)
}

func TestDeleteUnknownRoom(t *testing.T) {
	svc, _ := newHierarchyService(repotest.NewDB())
	_, err := svc.DeleteRoom(context.Background(), 7)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteBuildingWithEmptyFloor(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	f := db.AddFloor(x, "G")
	svc, _ := newHierarchyService(db)
	ctx := context.Background()

	err := svc.DeleteBuilding(ctx, x)
	ae := apperr.As(err)
	require.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, []string{ReasonBuildingHasEmptyFloors}, ae.Reasons)
	assert.Equal(t, "cannot delete building: "+ReasonBuildingHasEmptyFloors, ae.Message)

	require.NoError(t, svc.DeleteFloor(ctx, f))
	require.NoError(t, svc.DeleteBuilding(ctx, x))
	assert.NotContains(t, db.Buildings, x)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.DeleteBuilding(ctx, x)))
}

func TestDeleteBuildingRemovesItsRegion(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	db.Regions[50] = models.ReferenceRegion{ReferencePointsID: 50, BuildingID: x}
	svc, rec := newHierarchyService(db)

	require.NoError(t, svc.DeleteBuilding(context.Background(), x))
	assert.Empty(t, db.Regions)
	require.Len(t, rec.events, 2)
	assert.Equal(t, recordedEvent{realtime.EventBuildingDeleted, x, nil}, rec.events[0])
	assert.Equal(t, realtime.EventRegionDeleted, rec.events[1].Type)
	assert.Equal(t, uint(50), rec.events[1].ID)
	assert.Equal(t, x, rec.events[1].Data["building_id"])
}

func TestDeleteBuildingWithoutRegionPublishesOnlyBuilding(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	svc, rec := newHierarchyService(db)

	require.NoError(t, svc.DeleteBuilding(context.Background(), x))
	require.Len(t, rec.events, 1)
	assert.Equal(t, realtime.EventBuildingDeleted, rec.events[0].Type)
}

func TestAnalyzeBuildingReportsEveryReason(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	y := db.AddBuilding("Y")
	withRooms := db.AddFloor(x, "1")
	db.AddRoom(withRooms, "X101")
	db.AddFloor(x, "2")
	db.AddRoute(y, x)
	svc, _ := newHierarchyService(db)
	ctx := context.Background()

	first, err := svc.AnalyzeBuildingDeletion(ctx, x)
	require.NoError(t, err)
	assert.True(t, first.Blocked)
	assert.Equal(t, []string{ReasonBuildingHasRooms, ReasonBuildingHasEmptyFloors, ReasonRouteReferences}, first.Reasons)
	assert.Contains(t, ReasonRouteReferences, models.RouteTableName)

	second, err := svc.AnalyzeBuildingDeletion(ctx, x)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	err = svc.DeleteBuilding(ctx, x)
	assert.Equal(t, first.Message("building"), apperr.As(err).Message)
	assert.Contains(t, db.Buildings, x)
}

func TestAnalyzeFreeBuilding(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	svc, _ := newHierarchyService(db)

	a, err := svc.AnalyzeBuildingDeletion(context.Background(), x)
	require.NoError(t, err)
	assert.False(t, a.Blocked)
	assert.Empty(t, a.Reasons)

	_, err = svc.AnalyzeBuildingDeletion(context.Background(), 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAnalyzeFloorDeletion(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	f := db.AddFloor(x, "1")
	svc, _ := newHierarchyService(db)
	ctx := context.Background()

	a, err := svc.AnalyzeFloorDeletion(ctx, f)
	require.NoError(t, err)
	assert.False(t, a.Blocked)

	db.AddRoom(f, "X101")
	a, err = svc.AnalyzeFloorDeletion(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Analysis{Blocked: true, Reasons: []string{ReasonFloorHasRooms}}, a)
}

func TestDeleteFloorStoreFailureRollsBack(t *testing.T) {
	db := repotest.NewDB()
	x := db.AddBuilding("X")
	f := db.AddFloor(x, "1")
	db.FailOn = "DeleteFloor"
	svc, _ := newHierarchyService(db)

	err := svc.DeleteFloor(context.Background(), f)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.Contains(t, db.Floors, f)
}
