package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_map/internal/apperr"
	"campus_map/internal/repository/repotest"
)

func TestCreateBuildingTrimsAndRejectsDuplicates(t *testing.T) {
	db := repotest.NewDB()
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	b, err := svc.CreateBuilding(ctx, "  Library ")
	require.NoError(t, err)
	assert.Equal(t, "Library", b.BuildingName)

	_, err = svc.CreateBuilding(ctx, "LIBRARY")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.CreateBuilding(ctx, "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRenameBuilding(t *testing.T) {
	db := repotest.NewDB()
	lib := db.AddBuilding("Library")
	db.AddBuilding("Gym")
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	_, err := svc.RenameBuilding(ctx, lib, "gym")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.RenameBuilding(ctx, lib, "library")
	require.NoError(t, err)
	assert.Equal(t, "library", db.Buildings[lib].BuildingName)

	_, err = svc.RenameBuilding(ctx, 999, "Annex")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateFloor(t *testing.T) {
	db := repotest.NewDB()
	lib := db.AddBuilding("Library")
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	f, err := svc.CreateFloor(ctx, lib, " 2 ")
	require.NoError(t, err)
	assert.Equal(t, "2", f.FloorNumber)

	_, err = svc.CreateFloor(ctx, 999, "1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.CreateFloor(ctx, 0, "")
	assert.Equal(t, []string{"building_id", "floor_number"}, apperr.As(err).Reasons)
}

func TestCreateRoomsIsAtomic(t *testing.T) {
	db := repotest.NewDB()
	lib := db.AddBuilding("Library")
	gym := db.AddBuilding("Gym")
	f1 := db.AddFloor(lib, "1")
	f2 := db.AddFloor(gym, "1")
	db.AddRoom(f1, "L101")
	db.AddRoom(f2, "G101")
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	_, err := svc.CreateRooms(ctx, f1, []string{"l101", "L102", "g101"})
	ae := apperr.As(err)
	require.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, []string{
		`room "L101" already exists on this floor`,
		`room "G101" already exists elsewhere`,
	}, ae.Reasons)
	assert.Len(t, db.Rooms, 2)

	rooms, err := svc.CreateRooms(ctx, f1, []string{" L102 ", "L103"})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "L102", rooms[0].RoomName)
	assert.Len(t, db.Rooms, 4)
}

func TestCreateRoomsRejectsBadBatches(t *testing.T) {
	db := repotest.NewDB()
	f := db.AddFloor(db.AddBuilding("Library"), "1")
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	_, err := svc.CreateRooms(ctx, f, []string{"A1", "a1"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.CreateRooms(ctx, f, []string{"A1", " "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateRooms(ctx, f, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateRooms(ctx, 999, []string{"A1"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, db.Rooms)
}

func TestCreateRoomsStoreFailureLeavesNothing(t *testing.T) {
	db := repotest.NewDB()
	f := db.AddFloor(db.AddBuilding("Library"), "1")
	db.FailOn = "CreateRooms"
	svc := NewCatalogService(repotest.NewCatalogStore(db))

	_, err := svc.CreateRooms(context.Background(), f, []string{"A1", "A2"})
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
	assert.Empty(t, db.Rooms)
}

func TestRenameRoom(t *testing.T) {
	db := repotest.NewDB()
	f := db.AddFloor(db.AddBuilding("Library"), "1")
	a := db.AddRoom(f, "A1")
	db.AddRoom(f, "A2")
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	_, err := svc.RenameRoom(ctx, a, "a2")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.RenameRoom(ctx, a, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", db.Rooms[a].RoomName)

	_, err = svc.RenameRoom(ctx, 999, "Z9")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRenameMissingRoomToTakenName(t *testing.T) {
	db := repotest.NewDB()
	db.AddRoom(db.AddFloor(db.AddBuilding("Library"), "1"), "A2")
	svc := NewCatalogService(repotest.NewCatalogStore(db))

	_, err := svc.RenameRoom(context.Background(), 999, "A2")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCheckRooms(t *testing.T) {
	db := repotest.NewDB()
	lib := db.AddBuilding("Library")
	gym := db.AddBuilding("Gym")
	db.AddRoom(db.AddFloor(lib, "Ground"), "L001")
	db.AddRoom(db.AddFloor(gym, "1"), "G101")
	svc := NewCatalogService(repotest.NewCatalogStore(db))

	report, err := svc.CheckRooms(context.Background(), lib, "ground", []string{"l001", "G101", "New"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L001"}, report.OnFloor)
	assert.Equal(t, []string{"G101"}, report.Elsewhere)

	report, err = svc.CheckRooms(context.Background(), lib, "Ground", []string{"Fresh"})
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.NotNil(t, report.OnFloor)
}

func TestTreeSearch(t *testing.T) {
	db := repotest.NewDB()
	lib := db.AddBuilding("Library")
	gym := db.AddBuilding("Gym")
	lf := db.AddFloor(lib, "1")
	db.AddRoom(lf, "Reading Room")
	db.AddRoom(lf, "Archive")
	db.AddRoom(db.AddFloor(gym, "1"), "Locker Room")
	svc := NewCatalogService(repotest.NewCatalogStore(db))
	ctx := context.Background()

	all, err := svc.Tree(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Gym", all[0].BuildingName)

	byBuilding, err := svc.Tree(ctx, "libr")
	require.NoError(t, err)
	require.Len(t, byBuilding, 1)
	assert.Len(t, byBuilding[0].Floors[0].Rooms, 2)

	byRoom, err := svc.Tree(ctx, "room")
	require.NoError(t, err)
	require.Len(t, byRoom, 2)
	assert.Equal(t, "Locker Room", byRoom[0].Floors[0].Rooms[0].RoomName)
	require.Len(t, byRoom[1].Floors[0].Rooms, 1)
	assert.Equal(t, "Reading Room", byRoom[1].Floors[0].Rooms[0].RoomName)
}
