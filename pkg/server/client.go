package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
)

// client is the state of one browser
type client struct {
	auth   *identity.Adapter
	studio *studio.Studio

	// lastSeen is guarded by clients.mu
	lastSeen time.Time
}

type clients struct {
	mu   sync.Mutex
	byID map[string]*client
	ttl  time.Duration
	now  func() time.Time
}

func newClients(ttl time.Duration) *clients {
	return &clients{
		byID: make(map[string]*client),
		ttl:  ttl,
		now:  time.Now,
	}
}

// get returns the client for id, creating one with a fresh id when id is unknown
func (cs *clients) get(id string, create func() *client) (string, *client) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if c, ok := cs.byID[id]; ok && id != "" {
		c.lastSeen = cs.now()
		return id, c
	}

	id = uuid.NewString()
	c := create()
	c.lastSeen = cs.now()
	cs.byID[id] = c
	return id, c
}

func (cs *clients) len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.byID)
}

// sweep drops clients idle for longer than ttl
func (cs *clients) sweep() {
	cs.mu.Lock()
	var expired []*client
	for id, c := range cs.byID {
		if cs.now().Sub(c.lastSeen) > cs.ttl {
			expired = append(expired, c)
			delete(cs.byID, id)
		}
	}
	cs.mu.Unlock()

	for _, c := range expired {
		c.studio.Close()
	}
}

func (cs *clients) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.sweep()
		}
	}
}

func (cs *clients) closeAll() {
	cs.mu.Lock()
	all := cs.byID
	cs.byID = make(map[string]*client)
	cs.mu.Unlock()

	for _, c := range all {
		c.studio.Close()
	}
}
