package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"campus_map/internal/apperr"
	"campus_map/internal/logger"
	"campus_map/internal/metrics"
	"campus_map/internal/realtime"
	"campus_map/internal/repository"
)

// DeletionState is a step of one delete request.
type DeletionState string

const (
	StateRequested  DeletionState = "requested"
	StateAnalyzing  DeletionState = "analyzing"
	StateBlocked    DeletionState = "blocked"
	StateExecuting  DeletionState = "executing"
	StateCommitted  DeletionState = "committed"
	StateRolledBack DeletionState = "rolled_back"
)

// deletionTrace logs the state transitions of one delete request and counts its outcome.
type deletionTrace struct {
	log    *logrus.Entry
	entity string
	state  DeletionState
}

func newDeletionTrace(ctx context.Context, entity string, id uint) *deletionTrace {
	d := &deletionTrace{
		log:    logger.FromContext(ctx).WithFields(logrus.Fields{"entity": entity, "entity_id": id}),
		entity: entity,
	}
	d.to(StateRequested)
	return d
}

func (d *deletionTrace) to(s DeletionState) {
	d.state = s
	d.log.WithField("state", s).Debug("deletion state")
}

// finish records the terminal state for err.
func (d *deletionTrace) finish(err error) {
	outcome := string(StateCommitted)
	switch {
	case err == nil:
		d.to(StateCommitted)
	case d.state == StateBlocked:
		outcome = string(StateBlocked)
		d.log.WithError(err).Info("deletion blocked")
	case apperr.KindOf(err) == apperr.KindNotFound:
		outcome = "not_found"
		d.log.Debug("deletion target not found")
	default:
		outcome = string(StateRolledBack)
		d.to(StateRolledBack)
		if apperr.KindOf(err) == apperr.KindStore {
			d.log.WithError(err).Error("deletion rolled back")
		} else {
			d.log.WithError(err).Info("deletion rolled back")
		}
	}
	metrics.DeletionsTotal.WithLabelValues(d.entity, outcome).Inc()
}

// RoomDeletion describes a committed room delete.
type RoomDeletion struct {
	RoomID       uint `json:"room_id"`
	FloorID      uint `json:"floor_id"`
	FloorRemoved bool `json:"floor_removed"`
}

// HierarchyService is the cascading delete executor for buildings, floors and rooms.
// Every delete runs its existence check, dependency re-check and statements in one
// transaction with the target rows locked.
type HierarchyService struct {
	store  repository.HierarchyStore
	events realtime.Publisher
}

func NewHierarchyService(store repository.HierarchyStore, events realtime.Publisher) *HierarchyService {
	if events == nil {
		events = realtime.Discard{}
	}
	return &HierarchyService{store: store, events: events}
}

// AnalyzeBuildingDeletion reports what blocks deleting the building without deleting it.
func (s *HierarchyService) AnalyzeBuildingDeletion(ctx context.Context, buildingID uint) (Analysis, error) {
	if _, err := s.store.FindBuilding(ctx, buildingID); err != nil {
		return Analysis{}, notFoundOr(err, "building")
	}
	return NewDependencyAnalyzer(s.store).Building(ctx, buildingID)
}

// AnalyzeFloorDeletion reports whether the floor still has rooms.
func (s *HierarchyService) AnalyzeFloorDeletion(ctx context.Context, floorID uint) (Analysis, error) {
	if _, err := s.store.FindFloor(ctx, floorID); err != nil {
		return Analysis{}, notFoundOr(err, "floor")
	}
	return NewDependencyAnalyzer(s.store).Floor(ctx, floorID)
}

func (s *HierarchyService) DeleteBuilding(ctx context.Context, buildingID uint) error {
	d := newDeletionTrace(ctx, "building", buildingID)

	var regionID uint
	err := s.store.InTx(ctx, func(tx repository.HierarchyStore) error {
		if _, err := tx.FindBuilding(ctx, buildingID); err != nil {
			return notFoundOr(err, "building")
		}

		d.to(StateAnalyzing)
		a, err := NewDependencyAnalyzer(tx).Building(ctx, buildingID)
		if err != nil {
			return err
		}
		if a.Blocked {
			d.to(StateBlocked)
			return apperr.Conflict(a.Message("building"), a.Reasons...)
		}

		d.to(StateExecuting)
		if regionID, err = tx.RegionIDForBuilding(ctx, buildingID); err != nil {
			return storeErr("load building region", err)
		}
		n, err := tx.DeleteBuilding(ctx, buildingID)
		if err != nil {
			if repository.IsForeignKeyViolation(err) {
				return apperr.Conflict("cannot delete building: it is still referenced by other records")
			}
			return storeErr("delete building", err)
		}
		if n == 0 {
			return apperr.NotFound("building not found")
		}
		return nil
	})
	d.finish(err)
	if err != nil {
		return err
	}

	s.events.Publish(realtime.EventBuildingDeleted, buildingID, nil)
	// The region goes with its building.
	if regionID != 0 {
		s.events.Publish(realtime.EventRegionDeleted, regionID, map[string]interface{}{"building_id": buildingID})
	}
	return nil
}

func (s *HierarchyService) DeleteFloor(ctx context.Context, floorID uint) error {
	d := newDeletionTrace(ctx, "floor", floorID)

	var buildingID uint
	err := s.store.InTx(ctx, func(tx repository.HierarchyStore) error {
		f, err := tx.FindFloor(ctx, floorID)
		if err != nil {
			return notFoundOr(err, "floor")
		}
		buildingID = f.BuildingID

		d.to(StateAnalyzing)
		a, err := NewDependencyAnalyzer(tx).Floor(ctx, floorID)
		if err != nil {
			return err
		}
		if a.Blocked {
			d.to(StateBlocked)
			return apperr.Conflict(a.Message("floor"), a.Reasons...)
		}

		d.to(StateExecuting)
		n, err := tx.DeleteFloor(ctx, floorID)
		if err != nil {
			if repository.IsForeignKeyViolation(err) {
				return apperr.Conflict(Analysis{Reasons: []string{ReasonFloorHasRooms}}.Message("floor"), ReasonFloorHasRooms)
			}
			return storeErr("delete floor", err)
		}
		if n == 0 {
			return apperr.NotFound("floor not found")
		}
		return nil
	})
	d.finish(err)
	if err != nil {
		return err
	}

	s.events.Publish(realtime.EventFloorDeleted, floorID, map[string]interface{}{"building_id": buildingID})
	return nil
}

// DeleteRoom removes the room and, when it was the last one on its floor, the floor as
// well. Both statements commit or roll back together.
func (s *HierarchyService) DeleteRoom(ctx context.Context, roomID uint) (RoomDeletion, error) {
	d := newDeletionTrace(ctx, "room", roomID)
	res := RoomDeletion{RoomID: roomID}

	err := s.store.InTx(ctx, func(tx repository.HierarchyStore) error {
		room, err := tx.FindRoom(ctx, roomID)
		if err != nil {
			return notFoundOr(err, "room")
		}
		res.FloorID = room.FloorID
		// Lock the floor so concurrent deletes on it see each other's counts.
		if _, err := tx.FindFloor(ctx, room.FloorID); err != nil {
			return notFoundOr(err, "floor")
		}

		d.to(StateExecuting)
		n, err := tx.DeleteRoom(ctx, roomID)
		if err != nil {
			return storeErr("delete room", err)
		}
		if n == 0 {
			return apperr.NotFound("room not found")
		}

		remaining, err := tx.CountRoomsOnFloor(ctx, room.FloorID)
		if err != nil {
			return storeErr("count rooms on floor", err)
		}
		if remaining > 0 {
			return nil
		}
		if _, err := tx.DeleteFloor(ctx, room.FloorID); err != nil {
			return storeErr("delete empty floor", err)
		}
		res.FloorRemoved = true
		return nil
	})
	d.finish(err)
	if err != nil {
		return RoomDeletion{}, err
	}

	if res.FloorRemoved {
		metrics.FloorCascadesTotal.Inc()
		d.log.WithField("floor_id", res.FloorID).Info("last room deleted, floor removed")
	}
	s.events.Publish(realtime.EventRoomDeleted, roomID, map[string]interface{}{
		"floor_id":      res.FloorID,
		"floor_removed": res.FloorRemoved,
	})
	return res, nil
}
