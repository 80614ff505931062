// Package pagecache met en cache des pages déjà rendues pendant une durée fixe.
// Aucune écriture n'invalide le cache : une page servie peut montrer un post
// supprimé entre-temps jusqu'à expiration ou Clear.
package pagecache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/monitoring"
)

// Backend stocke les pages rendues.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// RenderFunc produit la page. Le contexte reçu n'est pas annulé quand le
// client qui a déclenché le rendu se déconnecte.
type RenderFunc func(ctx context.Context) ([]byte, error)

type Cache struct {
	backend Backend
	renders singleflight.Group
}

func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// Key construit la clé d'une page à partir du chemin demandé (query comprise)
// et de la dimension de session de la requête.
func Key(path, sessionKey string) string {
	return fmt.Sprintf("views:%s:%s", sessionKey, path)
}

func entryKey(key string, ttl time.Duration) string {
	return fmt.Sprintf("page:%d:%s", int64(ttl/time.Second), key)
}

// GetOrRender renvoie la page en cache si elle n'a pas expiré, sinon appelle
// render, stocke le résultat pour ttl et le renvoie. Les appels concurrents
// sur une même clé partagent un seul rendu.
func (c *Cache) GetOrRender(ctx context.Context, key string, ttl time.Duration, render RenderFunc) ([]byte, error) {
	k := entryKey(key, ttl)

	data, ok, err := c.backend.Get(ctx, k)
	switch {
	case err != nil:
		monitoring.PageCacheLookups.WithLabelValues("error").Inc()
		logs.LogJSON("ERROR", "Page cache read failed", map[string]interface{}{
			"error": err.Error(),
			"key":   k,
		})
	case ok:
		monitoring.PageCacheLookups.WithLabelValues("hit").Inc()
		return data, nil
	default:
		monitoring.PageCacheLookups.WithLabelValues("miss").Inc()
	}

	// Le rendu est partagé par tous les appels en attente sur k : il ne doit
	// pas dépendre de la requête qui l'a lancé.
	renderCtx := context.WithoutCancel(ctx)
	v, err, _ := c.renders.Do(k, func() (interface{}, error) {
		rendered, err := render(renderCtx)
		if err != nil {
			return nil, err
		}
		if err := c.backend.Set(renderCtx, k, rendered, ttl); err != nil {
			logs.LogJSON("ERROR", "Page cache write failed", map[string]interface{}{
				"error": err.Error(),
				"key":   k,
			})
		}
		return rendered, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Clear vide tout le cache de pages.
func (c *Cache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}
