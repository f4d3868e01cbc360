package models

// Room belongs to one floor. Room names are unique across the whole campus, ignoring case.
type Room struct {
	RoomID   uint   `gorm:"column:room_id;primaryKey" json:"room_id"`
	FloorID  uint   `gorm:"column:floor_id;not null;index" json:"floor_id"`
	RoomName string `gorm:"column:room_name;size:255;not null" json:"room_name"`
}

func (Room) TableName() string { return "room" }
