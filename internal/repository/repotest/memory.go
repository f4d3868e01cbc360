// Package repotest holds in-memory implementations of the repository stores for tests.
// Transactions snapshot the whole dataset and restore it when the callback fails.
package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"campus_map/internal/models"
	"campus_map/internal/repository"
)

// DB is the shared dataset behind the Region, Hierarchy and Catalog fakes.
type DB struct {
	mu sync.Mutex

	Buildings map[uint]models.Building
	Floors    map[uint]models.Floor
	Rooms     map[uint]models.Room
	Regions   map[uint]models.ReferenceRegion
	Routes    map[uint]models.Route

	nextID uint

	// FailOn makes the named operation return ErrInjected, for rollback tests.
	FailOn string
}

// ErrInjected is returned by an operation named in DB.FailOn.
var ErrInjected = errors.New("injected store failure")

func NewDB() *DB {
	return &DB{
		Buildings: map[uint]models.Building{},
		Floors:    map[uint]models.Floor{},
		Rooms:     map[uint]models.Room{},
		Regions:   map[uint]models.ReferenceRegion{},
		Routes:    map[uint]models.Route{},
	}
}

func (d *DB) id() uint {
	d.nextID++
	return d.nextID
}

func (d *DB) fail(op string) error {
	if d.FailOn == op {
		return ErrInjected
	}
	return nil
}

// AddBuilding, AddFloor, AddRoom and AddRoute seed rows and return their ids.
func (d *DB) AddBuilding(name string) uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.Buildings[id] = models.Building{BuildingID: id, BuildingName: name}
	return id
}

func (d *DB) AddFloor(buildingID uint, label string) uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.Floors[id] = models.Floor{FloorID: id, BuildingID: buildingID, FloorNumber: label}
	return id
}

func (d *DB) AddRoom(floorID uint, name string) uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.Rooms[id] = models.Room{RoomID: id, FloorID: floorID, RoomName: name}
	return id
}

func (d *DB) AddRoute(startID, endID uint) uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.Routes[id] = models.Route{RouteID: id, StartBuildingID: startID, EndBuildingID: endID}
	return id
}

type snapshot struct {
	buildings map[uint]models.Building
	floors    map[uint]models.Floor
	rooms     map[uint]models.Room
	regions   map[uint]models.ReferenceRegion
	routes    map[uint]models.Route
	nextID    uint
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *DB) snapshot() snapshot {
	return snapshot{
		buildings: copyMap(d.Buildings),
		floors:    copyMap(d.Floors),
		rooms:     copyMap(d.Rooms),
		regions:   copyMap(d.Regions),
		routes:    copyMap(d.Routes),
		nextID:    d.nextID,
	}
}

func (d *DB) restore(s snapshot) {
	d.Buildings, d.Floors, d.Rooms, d.Regions, d.Routes = s.buildings, s.floors, s.rooms, s.regions, s.routes
	d.nextID = s.nextID
}

// tx runs fn with the dataset locked, restoring the snapshot when fn fails. Nested calls
// reuse the outer transaction.
func (d *DB) tx(nested bool, fn func() error) error {
	if nested {
		return fn()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.snapshot()
	if err := fn(); err != nil {
		d.restore(snap)
		return err
	}
	return nil
}

// guard locks the dataset for a call made outside a transaction.
func (d *DB) guard(inTx bool) func() {
	if inTx {
		return func() {}
	}
	d.mu.Lock()
	return d.mu.Unlock
}

func (d *DB) findBuilding(id uint) (*models.Building, error) {
	b, ok := d.Buildings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (d *DB) findFloor(id uint) (*models.Floor, error) {
	f, ok := d.Floors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (d *DB) roomsOnFloor(floorID uint) int64 {
	var n int64
	for _, r := range d.Rooms {
		if r.FloorID == floorID {
			n++
		}
	}
	return n
}

// RegionStore

type RegionStore struct {
	db   *DB
	inTx bool
}

var _ repository.RegionStore = (*RegionStore)(nil)

func NewRegionStore(db *DB) *RegionStore { return &RegionStore{db: db} }

func (s *RegionStore) InTx(_ context.Context, fn func(repository.RegionStore) error) error {
	return s.db.tx(s.inTx, func() error { return fn(&RegionStore{db: s.db, inTx: true}) })
}

func (s *RegionStore) FindBuilding(_ context.Context, id uint) (*models.Building, error) {
	defer s.db.guard(s.inTx)()
	return s.db.findBuilding(id)
}

func (s *RegionStore) FindRegion(_ context.Context, id uint) (*models.ReferenceRegion, error) {
	defer s.db.guard(s.inTx)()
	rp, ok := s.db.Regions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rp, nil
}

func (s *RegionStore) FindRegionByBuilding(_ context.Context, buildingID uint) (*models.ReferenceRegion, error) {
	defer s.db.guard(s.inTx)()
	for _, rp := range s.db.Regions {
		if rp.BuildingID == buildingID {
			return &rp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *RegionStore) ListRegions(_ context.Context, excludeRegionID uint) ([]models.RegionView, error) {
	defer s.db.guard(s.inTx)()
	if err := s.db.fail("ListRegions"); err != nil {
		return nil, err
	}
	var out []models.RegionView
	for id, rp := range s.db.Regions {
		if excludeRegionID != 0 && id == excludeRegionID {
			continue
		}
		out = append(out, models.RegionView{ReferenceRegion: rp, BuildingName: s.db.Buildings[rp.BuildingID].BuildingName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingName < out[j].BuildingName })
	return out, nil
}

func (s *RegionStore) CreateRegion(_ context.Context, rp *models.ReferenceRegion) error {
	defer s.db.guard(s.inTx)()
	if err := s.db.fail("CreateRegion"); err != nil {
		return err
	}
	for _, other := range s.db.Regions {
		if other.BuildingID == rp.BuildingID {
			return errDuplicate
		}
	}
	rp.ReferencePointsID = s.db.id()
	s.db.Regions[rp.ReferencePointsID] = *rp
	return nil
}

func (s *RegionStore) UpdateRegion(_ context.Context, rp *models.ReferenceRegion) (int64, error) {
	defer s.db.guard(s.inTx)()
	if _, ok := s.db.Regions[rp.ReferencePointsID]; !ok {
		return 0, nil
	}
	for id, other := range s.db.Regions {
		if id != rp.ReferencePointsID && other.BuildingID == rp.BuildingID {
			return 0, errDuplicate
		}
	}
	s.db.Regions[rp.ReferencePointsID] = *rp
	return 1, nil
}

func (s *RegionStore) DeleteRegion(_ context.Context, id uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	if _, ok := s.db.Regions[id]; !ok {
		return 0, nil
	}
	delete(s.db.Regions, id)
	return 1, nil
}

// HierarchyStore

type HierarchyStore struct {
	db   *DB
	inTx bool
}

var _ repository.HierarchyStore = (*HierarchyStore)(nil)

func NewHierarchyStore(db *DB) *HierarchyStore { return &HierarchyStore{db: db} }

func (s *HierarchyStore) InTx(_ context.Context, fn func(repository.HierarchyStore) error) error {
	return s.db.tx(s.inTx, func() error { return fn(&HierarchyStore{db: s.db, inTx: true}) })
}

func (s *HierarchyStore) FindBuilding(_ context.Context, id uint) (*models.Building, error) {
	defer s.db.guard(s.inTx)()
	return s.db.findBuilding(id)
}

func (s *HierarchyStore) FindFloor(_ context.Context, id uint) (*models.Floor, error) {
	defer s.db.guard(s.inTx)()
	return s.db.findFloor(id)
}

func (s *HierarchyStore) FindRoom(_ context.Context, id uint) (*models.Room, error) {
	defer s.db.guard(s.inTx)()
	rm, ok := s.db.Rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rm, nil
}

func (s *HierarchyStore) RegionIDForBuilding(_ context.Context, buildingID uint) (uint, error) {
	defer s.db.guard(s.inTx)()
	for id, rp := range s.db.Regions {
		if rp.BuildingID == buildingID {
			return id, nil
		}
	}
	return 0, nil
}

func (s *HierarchyStore) CountRoomsInBuilding(_ context.Context, buildingID uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	var n int64
	for _, f := range s.db.Floors {
		if f.BuildingID == buildingID {
			n += s.db.roomsOnFloor(f.FloorID)
		}
	}
	return n, nil
}

func (s *HierarchyStore) CountEmptyFloors(_ context.Context, buildingID uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	var n int64
	for _, f := range s.db.Floors {
		if f.BuildingID == buildingID && s.db.roomsOnFloor(f.FloorID) == 0 {
			n++
		}
	}
	return n, nil
}

func (s *HierarchyStore) CountRouteReferences(_ context.Context, buildingID uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	var n int64
	for _, r := range s.db.Routes {
		if r.StartBuildingID == buildingID || r.EndBuildingID == buildingID {
			n++
		}
	}
	return n, nil
}

func (s *HierarchyStore) CountRoomsOnFloor(_ context.Context, floorID uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	if err := s.db.fail("CountRoomsOnFloor"); err != nil {
		return 0, err
	}
	return s.db.roomsOnFloor(floorID), nil
}

func (s *HierarchyStore) DeleteBuilding(_ context.Context, id uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	if err := s.db.fail("DeleteBuilding"); err != nil {
		return 0, err
	}
	if _, ok := s.db.Buildings[id]; !ok {
		return 0, nil
	}
	delete(s.db.Buildings, id)
	for rid, rp := range s.db.Regions {
		if rp.BuildingID == id {
			delete(s.db.Regions, rid)
		}
	}
	return 1, nil
}

func (s *HierarchyStore) DeleteFloor(_ context.Context, id uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	if err := s.db.fail("DeleteFloor"); err != nil {
		return 0, err
	}
	if _, ok := s.db.Floors[id]; !ok {
		return 0, nil
	}
	delete(s.db.Floors, id)
	return 1, nil
}

func (s *HierarchyStore) DeleteRoom(_ context.Context, id uint) (int64, error) {
	defer s.db.guard(s.inTx)()
	if _, ok := s.db.Rooms[id]; !ok {
		return 0, nil
	}
	delete(s.db.Rooms, id)
	return 1, nil
}

// CatalogStore

type CatalogStore struct {
	db   *DB
	inTx bool
}

var _ repository.CatalogStore = (*CatalogStore)(nil)

func NewCatalogStore(db *DB) *CatalogStore { return &CatalogStore{db: db} }

func (s *CatalogStore) InTx(_ context.Context, fn func(repository.CatalogStore) error) error {
	return s.db.tx(s.inTx, func() error { return fn(&CatalogStore{db: s.db, inTx: true}) })
}

func (s *CatalogStore) FindBuilding(_ context.Context, id uint) (*models.Building, error) {
	defer s.db.guard(s.inTx)()
	return s.db.findBuilding(id)
}

func (s *CatalogStore) FindFloor(_ context.Context, id uint) (*models.Floor, error) {
	defer s.db.guard(s.inTx)()
	return s.db.findFloor(id)
}

func (s *CatalogStore) FindRoom(_ context.Context, id uint) (*models.Room, error) {
	defer s.db.guard(s.inTx)()
	rm, ok := s.db.Rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rm, nil
}

func (s *CatalogStore) BuildingNameTaken(_ context.Context, name string, excludeID uint) (bool, error) {
	defer s.db.guard(s.inTx)()
	for id, b := range s.db.Buildings {
		if id != excludeID && strings.EqualFold(b.BuildingName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *CatalogStore) CreateBuilding(_ context.Context, b *models.Building) error {
	defer s.db.guard(s.inTx)()
	b.BuildingID = s.db.id()
	s.db.Buildings[b.BuildingID] = *b
	return nil
}

func (s *CatalogStore) RenameBuilding(_ context.Context, id uint, name string) (int64, error) {
	defer s.db.guard(s.inTx)()
	b, ok := s.db.Buildings[id]
	if !ok {
		return 0, nil
	}
	b.BuildingName = name
	s.db.Buildings[id] = b
	return 1, nil
}

func (s *CatalogStore) CreateFloor(_ context.Context, f *models.Floor) error {
	defer s.db.guard(s.inTx)()
	f.FloorID = s.db.id()
	s.db.Floors[f.FloorID] = *f
	return nil
}

func contains(lowerNames []string, name string) bool {
	for _, n := range lowerNames {
		if n == strings.ToLower(name) {
			return true
		}
	}
	return false
}

func (s *CatalogStore) RoomNamesOnFloor(_ context.Context, floorID uint, lowerNames []string) ([]string, error) {
	defer s.db.guard(s.inTx)()
	var out []string
	for _, r := range s.db.Rooms {
		if r.FloorID == floorID && contains(lowerNames, r.RoomName) {
			out = append(out, r.RoomName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogStore) RoomNamesOnFloorLabel(_ context.Context, buildingID uint, floorLabel string, lowerNames []string) ([]string, error) {
	defer s.db.guard(s.inTx)()
	var out []string
	for _, r := range s.db.Rooms {
		f := s.db.Floors[r.FloorID]
		if f.BuildingID == buildingID && strings.EqualFold(f.FloorNumber, floorLabel) && contains(lowerNames, r.RoomName) {
			out = append(out, r.RoomName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogStore) RoomNamesTaken(_ context.Context, lowerNames []string, excludeRoomID uint) ([]string, error) {
	defer s.db.guard(s.inTx)()
	var out []string
	for id, r := range s.db.Rooms {
		if id != excludeRoomID && contains(lowerNames, r.RoomName) {
			out = append(out, r.RoomName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogStore) CreateRooms(_ context.Context, rooms []models.Room) error {
	defer s.db.guard(s.inTx)()
	if err := s.db.fail("CreateRooms"); err != nil {
		return err
	}
	for i := range rooms {
		rooms[i].RoomID = s.db.id()
		s.db.Rooms[rooms[i].RoomID] = rooms[i]
	}
	return nil
}

func (s *CatalogStore) RenameRoom(_ context.Context, id uint, name string) (int64, error) {
	defer s.db.guard(s.inTx)()
	r, ok := s.db.Rooms[id]
	if !ok {
		return 0, nil
	}
	r.RoomName = name
	s.db.Rooms[id] = r
	return 1, nil
}

func (s *CatalogStore) ListBuildingTree(_ context.Context) ([]models.Building, error) {
	defer s.db.guard(s.inTx)()
	var out []models.Building
	for _, b := range s.db.Buildings {
		for _, f := range s.db.Floors {
			if f.BuildingID != b.BuildingID {
				continue
			}
			for _, r := range s.db.Rooms {
				if r.FloorID == f.FloorID {
					f.Rooms = append(f.Rooms, r)
				}
			}
			sort.Slice(f.Rooms, func(i, j int) bool { return f.Rooms[i].RoomName < f.Rooms[j].RoomName })
			b.Floors = append(b.Floors, f)
		}
		sort.Slice(b.Floors, func(i, j int) bool { return b.Floors[i].FloorNumber < b.Floors[j].FloorNumber })
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingName < out[j].BuildingName })
	return out, nil
}
