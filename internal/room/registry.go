package room

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"rummy-lite/rummy"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

const defaultReapInterval = 30 * time.Second

// Config tunes registry and room timing. Zero values take defaults.
type Config struct {
	// TickInterval is the cadence of each room's background loop.
	TickInterval time.Duration
	// ReapInterval is how often closed rooms are removed.
	ReapInterval time.Duration
	// Seed fixes every game's shuffle rng. Zero keeps time-based
	// seeding.
	Seed int64
}

// Registry owns the live rooms and reaps them once they close.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
	done  chan struct{}
	once  sync.Once
}

func NewRegistry(cfg Config) *Registry {
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaultReapInterval
	}
	r := &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		done:  make(chan struct{}),
	}
	go r.reap()
	return r
}

// Create builds a fresh room with creator already seated as leader.
func (r *Registry) Create(creator string, send SendFunc) (*Room, error) {
	id := uuid.NewString()
	g := rummy.NewGame(rummy.Config{Seed: r.cfg.Seed})
	if err := g.Join(creator); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; ok {
		return nil, ErrRoomExists
	}
	rm := newRoom(id, g, send, r.cfg.TickInterval)
	r.rooms[id] = rm
	log.Printf("[Registry] room %s created by %s", id, creator)
	return rm, nil
}

func (r *Registry) Get(id string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// List returns all live rooms in no particular order.
func (r *Registry) List() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, rm)
	}
	return out
}

// Remove stops a room and drops it from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	rm, ok := r.rooms[id]
	if ok {
		delete(r.rooms, id)
	}
	r.mu.Unlock()
	if ok {
		rm.stop()
	}
}

func (r *Registry) reap() {
	ticker := time.NewTicker(r.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			for id, rm := range r.rooms {
				if rm.IsClosed() {
					delete(r.rooms, id)
					log.Printf("[Registry] room %s reaped", id)
				}
			}
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}

// Close stops the janitor and every live room.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.done) })
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rm := range r.rooms {
		rm.stop()
		delete(r.rooms, id)
	}
}
