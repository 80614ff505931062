package models

import "time"

// Post est toujours trié du plus récent au plus ancien.
type Post struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Text      string
	AuthorID  string  `gorm:"type:uuid;index"`
	Author    User    `gorm:"foreignKey:AuthorID"`
	GroupID   *string `gorm:"type:uuid;index"`
	Group     *Group  `gorm:"foreignKey:GroupID"`
	ImageURL  *string
}

func (Post) TableName() string {
	return "posts"
}

func (p Post) OwnerID() string {
	return p.AuthorID
}

type Comment struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Text      string
	AuthorID  string `gorm:"type:uuid;index"`
	Author    User   `gorm:"foreignKey:AuthorID"`
	PostID    string `gorm:"type:uuid;index"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c Comment) OwnerID() string {
	return c.AuthorID
}
