// Package memstate est le store local de l'état de lecture: en mémoire
// seulement, l'état est volontairement perdu à chaque redémarrage du démon.
package memstate

import (
	"context"
	"sync"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

type Repository struct {
	mu    sync.Mutex
	state domain.PlaybackState
}

func New() *Repository {
	return &Repository{state: domain.DefaultPlaybackState()}
}

func (r *Repository) Get(_ context.Context) (domain.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Normalize(), nil
}

func (r *Repository) Put(_ context.Context, state domain.PlaybackState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state.Normalize()
	return nil
}
