package models

import "campus_map/internal/geometry"

// ReferenceRegion is the quadrilateral footprint that anchors a building's indoor map
// image, in image pixel coordinates. A building owns at most one.
type ReferenceRegion struct {
	ReferencePointsID uint    `gorm:"column:reference_points_id;primaryKey" json:"reference_points_id"`
	BuildingID        uint    `gorm:"column:building_id;not null;uniqueIndex" json:"building_id"`
	Corner1X          float64 `gorm:"column:corner1_coord_x;not null" json:"corner1_coord_x"`
	Corner1Y          float64 `gorm:"column:corner1_coord_y;not null" json:"corner1_coord_y"`
	Corner2X          float64 `gorm:"column:corner2_coord_x;not null" json:"corner2_coord_x"`
	Corner2Y          float64 `gorm:"column:corner2_coord_y;not null" json:"corner2_coord_y"`
	Corner3X          float64 `gorm:"column:corner3_coord_x;not null" json:"corner3_coord_x"`
	Corner3Y          float64 `gorm:"column:corner3_coord_y;not null" json:"corner3_coord_y"`
	Corner4X          float64 `gorm:"column:corner4_coord_x;not null" json:"corner4_coord_x"`
	Corner4Y          float64 `gorm:"column:corner4_coord_y;not null" json:"corner4_coord_y"`
	BuildingImagePath *string `gorm:"column:building_image_path;size:512" json:"building_image_path"`

	// WKB polygon kept alongside the corner columns for map tooling.
	Footprint []byte `gorm:"column:footprint;type:bytea" json:"-"`
}

func (ReferenceRegion) TableName() string { return "reference_points" }

// Corners returns the four corners in stored order.
func (r ReferenceRegion) Corners() geometry.Quad {
	return geometry.Quad{
		{X: r.Corner1X, Y: r.Corner1Y},
		{X: r.Corner2X, Y: r.Corner2Y},
		{X: r.Corner3X, Y: r.Corner3Y},
		{X: r.Corner4X, Y: r.Corner4Y},
	}
}

// SetCorners copies q into the corner columns and refreshes the footprint.
func (r *ReferenceRegion) SetCorners(q geometry.Quad) error {
	r.Corner1X, r.Corner1Y = q[0].X, q[0].Y
	r.Corner2X, r.Corner2Y = q[1].X, q[1].Y
	r.Corner3X, r.Corner3Y = q[2].X, q[2].Y
	r.Corner4X, r.Corner4Y = q[3].X, q[3].Y

	fp, err := q.WKB()
	if err != nil {
		return err
	}
	r.Footprint = fp
	return nil
}

// RegionView is a region joined with its building name, as listed to clients.
type RegionView struct {
	ReferenceRegion
	BuildingName string `gorm:"column:building_name" json:"building_name"`
}
