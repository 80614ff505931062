package follow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AlexanderUp/hw05-final/internal/events"
	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/models"
	"github.com/AlexanderUp/hw05-final/internal/monitoring"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

var ErrMissingUser = errors.New("follow: follower and author ids are required")

// Manager maintient le graphe d'abonnements : orienté, sans boucle, sans
// arête en double. Follow et Unfollow sont idempotents.
type Manager struct {
	store  store.FollowStore
	events events.Publisher
	now    func() time.Time
}

func NewManager(s store.FollowStore, pub events.Publisher) *Manager {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Manager{store: s, events: pub, now: time.Now}
}

// Follow crée l'arête followerID -> authorID. Ne fait rien si elle existe déjà
// ou si followerID == authorID.
func (m *Manager) Follow(ctx context.Context, followerID, authorID string) error {
	if followerID == "" || authorID == "" {
		return ErrMissingUser
	}
	if followerID == authorID {
		return nil
	}

	exists, err := m.store.FollowExists(ctx, followerID, authorID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = m.store.CreateFollow(ctx, &models.Follow{
		ID:         uuid.New().String(),
		CreatedAt:  m.now(),
		FollowerID: followerID,
		AuthorID:   authorID,
	})
	if errors.Is(err, store.ErrConstraint) {
		// Course avec une requête concurrente : l'arête existe déjà.
		monitoring.FollowConflicts.Inc()
		logs.LogJSON("WARN", "Follow already exists", map[string]interface{}{
			"error":  err.Error(),
			"userID": followerID,
			"extra":  "authorID : " + authorID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	m.publish(ctx, events.FollowCreated, followerID, authorID)
	return nil
}

// Unfollow supprime l'arête si elle existe.
func (m *Manager) Unfollow(ctx context.Context, followerID, authorID string) error {
	if followerID == "" || authorID == "" {
		return ErrMissingUser
	}
	if followerID == authorID {
		return nil
	}

	deleted, err := m.store.DeleteFollow(ctx, followerID, authorID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		m.publish(ctx, events.FollowDeleted, followerID, authorID)
	}
	return nil
}

func (m *Manager) IsFollowing(ctx context.Context, followerID, authorID string) (bool, error) {
	if followerID == "" || authorID == "" || followerID == authorID {
		return false, nil
	}
	return m.store.FollowExists(ctx, followerID, authorID)
}

// FollowedAuthorIDs renvoie les auteurs suivis par followerID.
func (m *Manager) FollowedAuthorIDs(ctx context.Context, followerID string) ([]string, error) {
	if followerID == "" {
		return []string{}, nil
	}
	return m.store.FollowedAuthorIDs(ctx, followerID)
}

// Counts renvoie le nombre d'abonnés et d'abonnements de userID.
func (m *Manager) Counts(ctx context.Context, userID string) (followers, following int64, err error) {
	followers, err = m.store.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	following, err = m.store.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

func (m *Manager) publish(ctx context.Context, subject, followerID, authorID string) {
	err := m.events.Publish(ctx, subject, events.FollowEvent{
		FollowerID: followerID,
		AuthorID:   authorID,
		Timestamp:  m.now(),
	})
	if err != nil {
		logs.LogJSON("ERROR", "Error publishing follow event", map[string]interface{}{
			"error":   err.Error(),
			"subject": subject,
			"userID":  followerID,
		})
	}
}
