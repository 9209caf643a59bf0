package executor

import "sync"

// inflightGuard enforces at most one apply/rollback per resource per
// workspace at a time. A second concurrent attempt is rejected, not
// queued: provider calls are not cancellable once issued, so racing
// them would be unrecoverable.
type inflightGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{busy: make(map[string]struct{})}
}

func inflightKey(workspaceID, resourceID string) string {
	return workspaceID + "/" + resourceID
}

// acquire reserves the resource, false when already in flight.
func (g *inflightGuard) acquire(workspaceID, resourceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := inflightKey(workspaceID, resourceID)
	if _, taken := g.busy[key]; taken {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

// release frees the resource for the next operation.
func (g *inflightGuard) release(workspaceID, resourceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, inflightKey(workspaceID, resourceID))
}
