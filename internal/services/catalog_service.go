package services

import (
	"context"
	"fmt"
	"strings"

	"campus_map/internal/apperr"
	"campus_map/internal/logger"
	"campus_map/internal/models"
	"campus_map/internal/repository"
)

// DuplicateReport splits duplicate room names by where they already exist.
type DuplicateReport struct {
	OnFloor   []string `json:"on_floor"`
	Elsewhere []string `json:"elsewhere"`
}

func (r DuplicateReport) Empty() bool { return len(r.OnFloor) == 0 && len(r.Elsewhere) == 0 }

func (r DuplicateReport) Messages() []string {
	var out []string
	for _, n := range r.OnFloor {
		out = append(out, fmt.Sprintf("room %q already exists on this floor", n))
	}
	for _, n := range r.Elsewhere {
		out = append(out, fmt.Sprintf("room %q already exists elsewhere", n))
	}
	return out
}

// CatalogService creates and renames buildings, floors and rooms, keeping building names
// and room names unique ignoring case.
type CatalogService struct {
	store repository.CatalogStore
}

func NewCatalogService(store repository.CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) CreateBuilding(ctx context.Context, name string) (*models.Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("building_name is required", "building_name")
	}

	b := &models.Building{BuildingName: name}
	err := s.store.InTx(ctx, func(tx repository.CatalogStore) error {
		taken, err := tx.BuildingNameTaken(ctx, name, 0)
		if err != nil {
			return storeErr("check building name", err)
		}
		if taken {
			return buildingNameConflict(name)
		}
		if err := tx.CreateBuilding(ctx, b); err != nil {
			if repository.IsUniqueViolation(err) {
				return buildingNameConflict(name)
			}
			return storeErr("insert building", err)
		}
		return nil
	})
	if err != nil {
		logCatalogFailure(ctx, "CreateBuilding", err)
		return nil, err
	}
	return b, nil
}

func buildingNameConflict(name string) error {
	return apperr.Conflict("building name already exists", fmt.Sprintf("building %q already exists", name))
}

func (s *CatalogService) RenameBuilding(ctx context.Context, id uint, name string) (*models.Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("building_name is required", "building_name")
	}

	err := s.store.InTx(ctx, func(tx repository.CatalogStore) error {
		if _, err := tx.FindBuilding(ctx, id); err != nil {
			return notFoundOr(err, "building")
		}
		taken, err := tx.BuildingNameTaken(ctx, name, id)
		if err != nil {
			return storeErr("check building name", err)
		}
		if taken {
			return buildingNameConflict(name)
		}
		if _, err := tx.RenameBuilding(ctx, id, name); err != nil {
			if repository.IsUniqueViolation(err) {
				return buildingNameConflict(name)
			}
			return storeErr("rename building", err)
		}
		return nil
	})
	if err != nil {
		logCatalogFailure(ctx, "RenameBuilding", err)
		return nil, err
	}
	return &models.Building{BuildingID: id, BuildingName: name}, nil
}

func (s *CatalogService) CreateFloor(ctx context.Context, buildingID uint, label string) (*models.Floor, error) {
	label = strings.TrimSpace(label)
	var missing []string
	if buildingID == 0 {
		missing = append(missing, "building_id")
	}
	if label == "" {
		missing = append(missing, "floor_number")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required fields", missing...)
	}

	f := &models.Floor{BuildingID: buildingID, FloorNumber: label}
	err := s.store.InTx(ctx, func(tx repository.CatalogStore) error {
		if _, err := tx.FindBuilding(ctx, buildingID); err != nil {
			return notFoundOr(err, "building")
		}
		if err := tx.CreateFloor(ctx, f); err != nil {
			return storeErr("insert floor", err)
		}
		return nil
	})
	if err != nil {
		logCatalogFailure(ctx, "CreateFloor", err)
		return nil, err
	}
	return f, nil
}

// normalizeRoomNames trims the names and rejects empty entries and repeats within the
// submission. It returns the trimmed names and their lower-case forms.
func normalizeRoomNames(names []string) ([]string, []string, error) {
	if len(names) == 0 {
		return nil, nil, apperr.Validation("at least one room name is required", "room_names")
	}

	trimmed := make([]string, 0, len(names))
	lower := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	var repeated []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, nil, apperr.Validation("room names must not be empty", "room_names")
		}
		key := strings.ToLower(n)
		if seen[key] {
			repeated = append(repeated, fmt.Sprintf("room %q is listed more than once", n))
			continue
		}
		seen[key] = true
		trimmed = append(trimmed, n)
		lower = append(lower, key)
	}
	if len(repeated) > 0 {
		return nil, nil, apperr.Conflict("duplicate room names in submission", repeated...)
	}
	return trimmed, lower, nil
}

// splitElsewhere drops the names already reported on the floor from the global list.
func splitElsewhere(onFloor, taken []string) []string {
	local := make(map[string]bool, len(onFloor))
	for _, n := range onFloor {
		local[strings.ToLower(n)] = true
	}
	var out []string
	for _, n := range taken {
		if !local[strings.ToLower(n)] {
			out = append(out, n)
		}
	}
	return out
}

// CreateRooms adds a batch of rooms to one floor. Either every room is stored or none is.
func (s *CatalogService) CreateRooms(ctx context.Context, floorID uint, names []string) ([]models.Room, error) {
	if floorID == 0 {
		return nil, apperr.Validation("missing required fields", "floor_id")
	}
	trimmed, lower, err := normalizeRoomNames(names)
	if err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, len(trimmed))
	for _, n := range trimmed {
		rooms = append(rooms, models.Room{FloorID: floorID, RoomName: n})
	}

	err = s.store.InTx(ctx, func(tx repository.CatalogStore) error {
		if _, err := tx.FindFloor(ctx, floorID); err != nil {
			return notFoundOr(err, "floor")
		}

		onFloor, err := tx.RoomNamesOnFloor(ctx, floorID, lower)
		if err != nil {
			return storeErr("check room names on floor", err)
		}
		taken, err := tx.RoomNamesTaken(ctx, lower, 0)
		if err != nil {
			return storeErr("check room names", err)
		}
		report := DuplicateReport{OnFloor: onFloor, Elsewhere: splitElsewhere(onFloor, taken)}
		if !report.Empty() {
			return apperr.Conflict("duplicate room names", report.Messages()...)
		}

		if err := tx.CreateRooms(ctx, rooms); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperr.Conflict("duplicate room names", "a room with one of these names was added concurrently")
			}
			return storeErr("insert rooms", err)
		}
		return nil
	})
	if err != nil {
		logCatalogFailure(ctx, "CreateRooms", err)
		return nil, err
	}
	return rooms, nil
}

func (s *CatalogService) RenameRoom(ctx context.Context, id uint, name string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("room_name is required", "room_name")
	}

	err := s.store.InTx(ctx, func(tx repository.CatalogStore) error {
		if _, err := tx.FindRoom(ctx, id); err != nil {
			return notFoundOr(err, "room")
		}
		taken, err := tx.RoomNamesTaken(ctx, []string{strings.ToLower(name)}, id)
		if err != nil {
			return storeErr("check room name", err)
		}
		if len(taken) > 0 {
			return apperr.Conflict("duplicate room names", fmt.Sprintf("room %q already exists elsewhere", taken[0]))
		}
		n, err := tx.RenameRoom(ctx, id, name)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return apperr.Conflict("duplicate room names", fmt.Sprintf("room %q already exists elsewhere", name))
			}
			return storeErr("rename room", err)
		}
		if n == 0 {
			return apperr.NotFound("room not found")
		}
		return nil
	})
	if err != nil {
		logCatalogFailure(ctx, "RenameRoom", err)
		return nil, err
	}
	return &models.Room{RoomID: id, RoomName: name}, nil
}

// CheckRooms is a dry run of a room submission addressed by building and floor label.
func (s *CatalogService) CheckRooms(ctx context.Context, buildingID uint, floorLabel string, names []string) (DuplicateReport, error) {
	floorLabel = strings.TrimSpace(floorLabel)
	var missing []string
	if buildingID == 0 {
		missing = append(missing, "building_id")
	}
	if floorLabel == "" {
		missing = append(missing, "floor_number")
	}
	if len(missing) > 0 {
		return DuplicateReport{}, apperr.Validation("missing required fields", missing...)
	}
	_, lower, err := normalizeRoomNames(names)
	if err != nil {
		return DuplicateReport{}, err
	}

	onFloor, err := s.store.RoomNamesOnFloorLabel(ctx, buildingID, floorLabel, lower)
	if err != nil {
		return DuplicateReport{}, storeErr("check room names on floor", err)
	}
	taken, err := s.store.RoomNamesTaken(ctx, lower, 0)
	if err != nil {
		return DuplicateReport{}, storeErr("check room names", err)
	}
	return DuplicateReport{OnFloor: nonNil(onFloor), Elsewhere: nonNil(splitElsewhere(onFloor, taken))}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Tree lists buildings with their floors and rooms. A non-empty search keeps buildings
// whose name matches, and otherwise only the floors and rooms whose room names match.
func (s *CatalogService) Tree(ctx context.Context, search string) ([]models.Building, error) {
	buildings, err := s.store.ListBuildingTree(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("CatalogService.Tree: store failure")
		return nil, apperr.Store("load buildings", err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return buildings, nil
	}

	out := make([]models.Building, 0, len(buildings))
	for _, b := range buildings {
		if strings.Contains(strings.ToLower(b.BuildingName), search) {
			out = append(out, b)
			continue
		}
		var floors []models.Floor
		for _, f := range b.Floors {
			var rooms []models.Room
			for _, r := range f.Rooms {
				if strings.Contains(strings.ToLower(r.RoomName), search) {
					rooms = append(rooms, r)
				}
			}
			if len(rooms) > 0 {
				f.Rooms = rooms
				floors = append(floors, f)
			}
		}
		if len(floors) > 0 {
			b.Floors = floors
			out = append(out, b)
		}
	}
	return out, nil
}

func logCatalogFailure(ctx context.Context, op string, err error) {
	entry := logger.FromContext(ctx)
	if apperr.KindOf(err) == apperr.KindStore {
		entry.WithError(err).Error("CatalogService." + op + ": store failure")
		return
	}
	entry.WithField("kind", apperr.KindOf(err).String()).Info("CatalogService." + op + ": rejected")
}
