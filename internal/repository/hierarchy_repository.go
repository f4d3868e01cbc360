package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus_map/internal/models"
)

// HierarchyStore exposes the dependency counts and deletes used by the building, floor
// and room deletion paths.
type HierarchyStore interface {
	InTx(ctx context.Context, fn func(HierarchyStore) error) error

	FindBuilding(ctx context.Context, id uint) (*models.Building, error)
	FindFloor(ctx context.Context, id uint) (*models.Floor, error)
	FindRoom(ctx context.Context, id uint) (*models.Room, error)
	// RegionIDForBuilding returns 0 when the building has no reference region.
	RegionIDForBuilding(ctx context.Context, buildingID uint) (uint, error)

	CountRoomsInBuilding(ctx context.Context, buildingID uint) (int64, error)
	CountEmptyFloors(ctx context.Context, buildingID uint) (int64, error)
	CountRouteReferences(ctx context.Context, buildingID uint) (int64, error)
	CountRoomsOnFloor(ctx context.Context, floorID uint) (int64, error)

	DeleteBuilding(ctx context.Context, id uint) (int64, error)
	DeleteFloor(ctx context.Context, id uint) (int64, error)
	DeleteRoom(ctx context.Context, id uint) (int64, error)
}

type HierarchyRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewHierarchyRepository(db *gorm.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

func (r *HierarchyRepository) InTx(ctx context.Context, fn func(HierarchyStore) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&HierarchyRepository{db: tx, inTx: true})
	})
}

// row takes a row lock on single row reads inside a transaction, so concurrent inserts of
// children (which key-share lock the parent) wait for the deletion to finish.
func (r *HierarchyRepository) row(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *HierarchyRepository) FindBuilding(ctx context.Context, id uint) (*models.Building, error) {
	var b models.Building
	if err := r.row(ctx).Where("building_id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *HierarchyRepository) FindFloor(ctx context.Context, id uint) (*models.Floor, error) {
	var f models.Floor
	if err := r.row(ctx).Where("floor_id = ?", id).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *HierarchyRepository) FindRoom(ctx context.Context, id uint) (*models.Room, error) {
	var rm models.Room
	if err := r.row(ctx).Where("room_id = ?", id).First(&rm).Error; err != nil {
		return nil, translate(err)
	}
	return &rm, nil
}

func (r *HierarchyRepository) RegionIDForBuilding(ctx context.Context, buildingID uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ReferenceRegion{}).
		Where("building_id = ?", buildingID).
		Pluck("reference_points_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

func (r *HierarchyRepository) CountRoomsInBuilding(ctx context.Context, buildingID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("room AS r").
		Joins("JOIN floor f ON r.floor_id = f.floor_id").
		Where("f.building_id = ?", buildingID).
		Count(&n).Error
	return n, err
}

func (r *HierarchyRepository) CountEmptyFloors(ctx context.Context, buildingID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("floor AS f").
		Where("f.building_id = ?", buildingID).
		Where("NOT EXISTS (SELECT 1 FROM room r WHERE r.floor_id = f.floor_id)").
		Count(&n).Error
	return n, err
}

func (r *HierarchyRepository) CountRouteReferences(ctx context.Context, buildingID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Route{}).
		Where("start_building_id = ? OR end_building_id = ?", buildingID, buildingID).
		Count(&n).Error
	return n, err
}

func (r *HierarchyRepository) CountRoomsOnFloor(ctx context.Context, floorID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("floor_id = ?", floorID).
		Count(&n).Error
	return n, err
}

func (r *HierarchyRepository) DeleteBuilding(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("building_id = ?", id).Delete(&models.Building{})
	return res.RowsAffected, res.Error
}

func (r *HierarchyRepository) DeleteFloor(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("floor_id = ?", id).Delete(&models.Floor{})
	return res.RowsAffected, res.Error
}

func (r *HierarchyRepository) DeleteRoom(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("room_id = ?", id).Delete(&models.Room{})
	return res.RowsAffected, res.Error
}
