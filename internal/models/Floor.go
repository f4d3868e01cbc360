package models

// Floor belongs to one building. FloorNumber is a free text label ("G", "2", "Mezzanine").
type Floor struct {
	FloorID     uint   `gorm:"column:floor_id;primaryKey" json:"floor_id"`
	BuildingID  uint   `gorm:"column:building_id;not null;index" json:"building_id"`
	FloorNumber string `gorm:"column:floor_number;size:64;not null" json:"floor_number"`

	Rooms []Room `gorm:"foreignKey:FloorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"rooms,omitempty"`
}

func (Floor) TableName() string { return "floor" }
