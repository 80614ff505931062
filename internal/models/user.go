package models

import "time"

type User struct {
	ID        string `gorm:"primaryKey"` // UUID venant de auth.users
	CreatedAt time.Time
	Username  string `gorm:"uniqueIndex"`
	Firstname string
	Lastname  string
	Email     string
	IsAdmin   bool
}

func (User) TableName() string {
	return "users"
}
