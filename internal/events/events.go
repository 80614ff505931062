package events

import (
	"context"
	"time"
)

// Sujets publiés par l'application.
const (
	PostCreated    = "post.created"
	PostDeleted    = "post.deleted"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
)

// Publisher diffuse les événements métier. Un échec de publication ne doit
// jamais faire échouer la requête qui l'a déclenché.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close() error
}

type PostEvent struct {
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	GroupID   *string   `json:"group_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CommentEvent struct {
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Timestamp time.Time `json:"timestamp"`
}

type FollowEvent struct {
	FollowerID string    `json:"follower_id"`
	AuthorID   string    `json:"author_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Nop ignore tous les événements.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                       { return nil }
