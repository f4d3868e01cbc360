package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"campus_map/internal/apperr"
	"campus_map/internal/geometry"
	"campus_map/internal/lock"
	"campus_map/internal/logger"
	"campus_map/internal/metrics"
	"campus_map/internal/models"
	"campus_map/internal/overlap"
	"campus_map/internal/realtime"
	"campus_map/internal/repository"
)

// RegionLockKey serializes region writes across replicas.
const RegionLockKey = "campusmap:lock:regions"

// RegionInput is a validated create or update request.
type RegionInput struct {
	BuildingID uint
	Corners    geometry.Quad
	ImagePath  *string
}

// OwnershipMessage is reported when a building already owns a different region.
func OwnershipMessage(buildingName string) string {
	return fmt.Sprintf("building %q already has a reference region", buildingName)
}

type RegionService struct {
	store     repository.RegionStore
	validator overlap.Validator
	locker    lock.Locker
	events    realtime.Publisher
}

func NewRegionService(store repository.RegionStore, validator overlap.Validator, locker lock.Locker, events realtime.Publisher) *RegionService {
	if locker == nil {
		locker = lock.Nop{}
	}
	if events == nil {
		events = realtime.Discard{}
	}
	return &RegionService{store: store, validator: validator, locker: locker, events: events}
}

func validateRegion(in RegionInput) error {
	if in.BuildingID == 0 {
		return apperr.Validation("invalid building_id", "building_id")
	}
	var bad []string
	for i, c := range in.Corners {
		if math.IsNaN(c.X) || math.IsInf(c.X, 0) {
			bad = append(bad, fmt.Sprintf("corner%d_coord_x", i+1))
		}
		if math.IsNaN(c.Y) || math.IsInf(c.Y, 0) {
			bad = append(bad, fmt.Sprintf("corner%d_coord_y", i+1))
		}
	}
	if len(bad) > 0 {
		return apperr.Validation("corner coordinates must be finite numbers", bad...)
	}
	return nil
}

func toOverlapRegions(views []models.RegionView) []overlap.Region {
	out := make([]overlap.Region, 0, len(views))
	for _, v := range views {
		out = append(out, overlap.Region{BuildingID: v.BuildingID, BuildingName: v.BuildingName, Corners: v.Corners()})
	}
	return out
}

func appendUnique(dst []string, msgs ...string) []string {
	for _, m := range msgs {
		dup := false
		for _, d := range dst {
			if d == m {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, m)
		}
	}
	return dst
}

func (s *RegionService) acquire(ctx context.Context) (func(), error) {
	start := time.Now()
	release, err := s.locker.Acquire(ctx, RegionLockKey)
	metrics.LockWaitMs.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, apperr.Store("acquire region lock", err)
	}
	return release, nil
}

func recordValidation(err error) {
	outcome := "accepted"
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindConflict:
			outcome = "conflict"
		case apperr.KindValidation:
			outcome = "invalid"
		case apperr.KindNotFound:
			outcome = "not_found"
		default:
			outcome = "error"
		}
	}
	metrics.RegionValidationsTotal.WithLabelValues(outcome).Inc()
}

// Create stores a new region for in.BuildingID. A building that already owns a region and
// any geometric collision are reported together as one conflict.
func (s *RegionService) Create(ctx context.Context, in RegionInput) (created *models.ReferenceRegion, err error) {
	defer func() { recordValidation(err) }()

	if err := validateRegion(in); err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.store.InTx(ctx, func(tx repository.RegionStore) error {
		b, err := tx.FindBuilding(ctx, in.BuildingID)
		if err != nil {
			return notFoundOr(err, "building")
		}

		var duplicates []string
		if _, err := tx.FindRegionByBuilding(ctx, in.BuildingID); err == nil {
			duplicates = append(duplicates, OwnershipMessage(b.BuildingName))
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storeErr("load building region", err)
		}

		existing, err := tx.ListRegions(ctx, 0)
		if err != nil {
			return storeErr("load regions", err)
		}
		duplicates = appendUnique(duplicates, s.validator.Validate(in.Corners, toOverlapRegions(existing), 0)...)
		if len(duplicates) > 0 {
			return apperr.Conflict("region conflicts with existing data", duplicates...)
		}

		rp := &models.ReferenceRegion{BuildingID: in.BuildingID, BuildingImagePath: in.ImagePath}
		if err := rp.SetCorners(in.Corners); err != nil {
			return apperr.Validation("corners do not form a polygon", err.Error())
		}
		if err := tx.CreateRegion(ctx, rp); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperr.Conflict("region conflicts with existing data", OwnershipMessage(b.BuildingName))
			}
			return storeErr("insert region", err)
		}
		created = rp
		return nil
	})
	if err != nil {
		logRegionFailure(ctx, "Create", in.BuildingID, err)
		return nil, err
	}

	s.events.Publish(realtime.EventRegionCreated, created.ReferencePointsID, map[string]interface{}{"building_id": created.BuildingID})
	return created, nil
}

// Update replaces the corners, owner and image of region id. The region's own previous
// geometry never conflicts with itself.
func (s *RegionService) Update(ctx context.Context, id uint, in RegionInput) (updated *models.ReferenceRegion, err error) {
	defer func() { recordValidation(err) }()

	if err := validateRegion(in); err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.store.InTx(ctx, func(tx repository.RegionStore) error {
		current, err := tx.FindRegion(ctx, id)
		if err != nil {
			return notFoundOr(err, "reference region")
		}
		b, err := tx.FindBuilding(ctx, in.BuildingID)
		if err != nil {
			return notFoundOr(err, "building")
		}

		var duplicates []string
		if in.BuildingID != current.BuildingID {
			other, err := tx.FindRegionByBuilding(ctx, in.BuildingID)
			switch {
			case err == nil && other.ReferencePointsID != id:
				duplicates = append(duplicates, OwnershipMessage(b.BuildingName))
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return storeErr("load building region", err)
			}
		}

		existing, err := tx.ListRegions(ctx, id)
		if err != nil {
			return storeErr("load regions", err)
		}
		duplicates = appendUnique(duplicates, s.validator.Validate(in.Corners, toOverlapRegions(existing), current.BuildingID)...)
		if len(duplicates) > 0 {
			return apperr.Conflict("region conflicts with existing data", duplicates...)
		}

		rp := &models.ReferenceRegion{ReferencePointsID: id, BuildingID: in.BuildingID, BuildingImagePath: in.ImagePath}
		if err := rp.SetCorners(in.Corners); err != nil {
			return apperr.Validation("corners do not form a polygon", err.Error())
		}
		n, err := tx.UpdateRegion(ctx, rp)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return apperr.Conflict("region conflicts with existing data", OwnershipMessage(b.BuildingName))
			}
			return storeErr("update region", err)
		}
		if n == 0 {
			return apperr.NotFound("reference region not found")
		}
		updated = rp
		return nil
	})
	if err != nil {
		logRegionFailure(ctx, "Update", in.BuildingID, err)
		return nil, err
	}

	s.events.Publish(realtime.EventRegionUpdated, id, map[string]interface{}{"building_id": updated.BuildingID})
	return updated, nil
}

func (s *RegionService) Delete(ctx context.Context, id uint) error {
	n, err := s.store.DeleteRegion(ctx, id)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("region_id", id).Error("RegionService.Delete: store failure")
		return apperr.Store("delete region", err)
	}
	if n == 0 {
		return apperr.NotFound("reference region not found")
	}
	s.events.Publish(realtime.EventRegionDeleted, id, nil)
	return nil
}

func (s *RegionService) Get(ctx context.Context, id uint) (*models.ReferenceRegion, error) {
	rp, err := s.store.FindRegion(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reference region")
	}
	return rp, nil
}

// List returns every region with its building name, ordered by building name.
func (s *RegionService) List(ctx context.Context) ([]models.RegionView, error) {
	views, err := s.store.ListRegions(ctx, 0)
	if err != nil {
		return nil, apperr.Store("load regions", err)
	}
	return views, nil
}

func logRegionFailure(ctx context.Context, op string, buildingID uint, err error) {
	entry := logger.FromContext(ctx).WithField("building_id", buildingID)
	if apperr.KindOf(err) == apperr.KindStore {
		entry.WithError(err).Error("RegionService." + op + ": store failure")
		return
	}
	entry.WithField("kind", apperr.KindOf(err).String()).Info("RegionService." + op + ": rejected")
}
