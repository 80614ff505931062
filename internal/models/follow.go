package models

import (
	"time"
)

// Follow : FollowerID suit AuthorID. La paire est unique et un utilisateur
// ne peut pas se suivre lui-même (contraintes posées dans le schéma).
type Follow struct {
	ID         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	FollowerID string `gorm:"type:uuid;uniqueIndex:unique_pair_follower_author"`
	AuthorID   string `gorm:"type:uuid;uniqueIndex:unique_pair_follower_author"`
}

func (Follow) TableName() string {
	return "follows"
}
