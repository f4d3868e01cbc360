package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus_map/internal/models"
)

// CatalogStore covers building, floor and room creation and the duplicate lookups that
// guard it. Name comparisons take lower-cased input.
type CatalogStore interface {
	InTx(ctx context.Context, fn func(CatalogStore) error) error

	FindBuilding(ctx context.Context, id uint) (*models.Building, error)
	FindFloor(ctx context.Context, id uint) (*models.Floor, error)
	FindRoom(ctx context.Context, id uint) (*models.Room, error)
	BuildingNameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	CreateBuilding(ctx context.Context, b *models.Building) error
	RenameBuilding(ctx context.Context, id uint, name string) (int64, error)
	CreateFloor(ctx context.Context, f *models.Floor) error

	RoomNamesOnFloor(ctx context.Context, floorID uint, lowerNames []string) ([]string, error)
	RoomNamesOnFloorLabel(ctx context.Context, buildingID uint, floorLabel string, lowerNames []string) ([]string, error)
	RoomNamesTaken(ctx context.Context, lowerNames []string, excludeRoomID uint) ([]string, error)
	CreateRooms(ctx context.Context, rooms []models.Room) error
	RenameRoom(ctx context.Context, id uint, name string) (int64, error)

	ListBuildingTree(ctx context.Context) ([]models.Building, error)
}

type CatalogRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) InTx(ctx context.Context, fn func(CatalogStore) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CatalogRepository{db: tx, inTx: true})
	})
}

func (r *CatalogRepository) row(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *CatalogRepository) FindBuilding(ctx context.Context, id uint) (*models.Building, error) {
	var b models.Building
	if err := r.row(ctx).Where("building_id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *CatalogRepository) FindFloor(ctx context.Context, id uint) (*models.Floor, error) {
	var f models.Floor
	if err := r.row(ctx).Where("floor_id = ?", id).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *CatalogRepository) FindRoom(ctx context.Context, id uint) (*models.Room, error) {
	var rm models.Room
	if err := r.row(ctx).Where("room_id = ?", id).First(&rm).Error; err != nil {
		return nil, translate(err)
	}
	return &rm, nil
}

func (r *CatalogRepository) BuildingNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Building{}).Where("LOWER(building_name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("building_id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CatalogRepository) CreateBuilding(ctx context.Context, b *models.Building) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *CatalogRepository) RenameBuilding(ctx context.Context, id uint, name string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Building{}).Where("building_id = ?", id).Update("building_name", name)
	return res.RowsAffected, res.Error
}

func (r *CatalogRepository) CreateFloor(ctx context.Context, f *models.Floor) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *CatalogRepository) RoomNamesOnFloor(ctx context.Context, floorID uint, lowerNames []string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("floor_id = ? AND LOWER(room_name) IN ?", floorID, lowerNames).
		Pluck("room_name", &names).Error
	return names, err
}

func (r *CatalogRepository) RoomNamesOnFloorLabel(ctx context.Context, buildingID uint, floorLabel string, lowerNames []string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("room AS r").
		Joins("JOIN floor f ON r.floor_id = f.floor_id").
		Where("f.building_id = ? AND LOWER(f.floor_number) = LOWER(?)", buildingID, floorLabel).
		Where("LOWER(r.room_name) IN ?", lowerNames).
		Pluck("r.room_name", &names).Error
	return names, err
}

func (r *CatalogRepository) RoomNamesTaken(ctx context.Context, lowerNames []string, excludeRoomID uint) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&models.Room{}).Where("LOWER(room_name) IN ?", lowerNames)
	if excludeRoomID != 0 {
		q = q.Where("room_id <> ?", excludeRoomID)
	}
	var names []string
	err := q.Pluck("room_name", &names).Error
	return names, err
}

func (r *CatalogRepository) CreateRooms(ctx context.Context, rooms []models.Room) error {
	return r.db.WithContext(ctx).Create(&rooms).Error
}

func (r *CatalogRepository) RenameRoom(ctx context.Context, id uint, name string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Room{}).Where("room_id = ?", id).Update("room_name", name)
	return res.RowsAffected, res.Error
}

func (r *CatalogRepository) ListBuildingTree(ctx context.Context) ([]models.Building, error) {
	var buildings []models.Building
	err := r.db.WithContext(ctx).
		Preload("Floors", func(db *gorm.DB) *gorm.DB { return db.Order("floor_number ASC") }).
		Preload("Floors.Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("room_name ASC") }).
		Order("building_name ASC").
		Find(&buildings).Error
	return buildings, err
}
