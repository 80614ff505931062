package models

type Group struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"size:200"`
	Slug        string `gorm:"uniqueIndex"`
	Description string
}

func (Group) TableName() string {
	return "groups"
}
