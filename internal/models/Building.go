package models

// Building is a campus building. Names are unique ignoring case.
type Building struct {
	BuildingID   uint   `gorm:"column:building_id;primaryKey" json:"building_id"`
	BuildingName string `gorm:"column:building_name;size:255;not null" json:"building_name"`

	// Associations
	Floors []Floor          `gorm:"foreignKey:BuildingID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"floors,omitempty"`
	Region *ReferenceRegion `gorm:"foreignKey:BuildingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"region,omitempty"`
}

func (Building) TableName() string { return "building" }
