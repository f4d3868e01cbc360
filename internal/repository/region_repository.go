package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus_map/internal/models"
)

// RegionStore is the store adapter behind region validation and persistence.
type RegionStore interface {
	// InTx runs fn against a store bound to one transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(RegionStore) error) error

	FindBuilding(ctx context.Context, id uint) (*models.Building, error)
	FindRegion(ctx context.Context, id uint) (*models.ReferenceRegion, error)
	FindRegionByBuilding(ctx context.Context, buildingID uint) (*models.ReferenceRegion, error)
	// ListRegions returns every region with its building name, skipping excludeRegionID
	// when it is not zero.
	ListRegions(ctx context.Context, excludeRegionID uint) ([]models.RegionView, error)
	CreateRegion(ctx context.Context, r *models.ReferenceRegion) error
	UpdateRegion(ctx context.Context, r *models.ReferenceRegion) (int64, error)
	DeleteRegion(ctx context.Context, id uint) (int64, error)
}

type RegionRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewRegionRepository(db *gorm.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

func (r *RegionRepository) InTx(ctx context.Context, fn func(RegionStore) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RegionRepository{db: tx, inTx: true})
	})
}

// row locks single row reads while inside a transaction.
func (r *RegionRepository) row(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *RegionRepository) FindBuilding(ctx context.Context, id uint) (*models.Building, error) {
	var b models.Building
	if err := r.row(ctx).Where("building_id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *RegionRepository) FindRegion(ctx context.Context, id uint) (*models.ReferenceRegion, error) {
	var rp models.ReferenceRegion
	if err := r.row(ctx).Where("reference_points_id = ?", id).First(&rp).Error; err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

func (r *RegionRepository) FindRegionByBuilding(ctx context.Context, buildingID uint) (*models.ReferenceRegion, error) {
	var rp models.ReferenceRegion
	if err := r.row(ctx).Where("building_id = ?", buildingID).First(&rp).Error; err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

func (r *RegionRepository) ListRegions(ctx context.Context, excludeRegionID uint) ([]models.RegionView, error) {
	q := r.db.WithContext(ctx).
		Table("reference_points AS rp").
		Select("rp.*, b.building_name").
		Joins("JOIN building b ON rp.building_id = b.building_id")
	if excludeRegionID != 0 {
		q = q.Where("rp.reference_points_id <> ?", excludeRegionID)
	}

	var rows []models.RegionView
	if err := q.Order("b.building_name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RegionRepository) CreateRegion(ctx context.Context, rp *models.ReferenceRegion) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *RegionRepository) UpdateRegion(ctx context.Context, rp *models.ReferenceRegion) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReferenceRegion{}).
		Where("reference_points_id = ?", rp.ReferencePointsID).
		Updates(map[string]interface{}{
			"building_id":         rp.BuildingID,
			"corner1_coord_x":     rp.Corner1X,
			"corner1_coord_y":     rp.Corner1Y,
			"corner2_coord_x":     rp.Corner2X,
			"corner2_coord_y":     rp.Corner2Y,
			"corner3_coord_x":     rp.Corner3X,
			"corner3_coord_y":     rp.Corner3Y,
			"corner4_coord_x":     rp.Corner4X,
			"corner4_coord_y":     rp.Corner4Y,
			"building_image_path": rp.BuildingImagePath,
			"footprint":           rp.Footprint,
		})
	return res.RowsAffected, res.Error
}

func (r *RegionRepository) DeleteRegion(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("reference_points_id = ?", id).Delete(&models.ReferenceRegion{})
	return res.RowsAffected, res.Error
}
