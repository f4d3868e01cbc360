package models

// Route is a drawn path between two buildings. The integrity core only reads it
// to decide whether a building is still referenced.
type Route struct {
	RouteID         uint   `gorm:"column:route_id;primaryKey" json:"route_id"`
	StartBuildingID uint   `gorm:"column:start_building_id;not null;index" json:"start_building_id"`
	EndBuildingID   uint   `gorm:"column:end_building_id;not null;index" json:"end_building_id"`
	RouteTypeID     uint   `gorm:"column:route_type_id;not null" json:"route_type_id"`
	RoutePoints     string `gorm:"column:route_points;type:text" json:"route_points"`
	RouteColor      string `gorm:"column:route_color;size:32" json:"route_color"`
}

func (Route) TableName() string { return "routes" }

// RouteTableName is reported to callers when routes block a building deletion.
const RouteTableName = "routes"
