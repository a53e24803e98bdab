package game

import "sync"

// Scene receives entities for rendering.
type Scene interface {
	Add(e Entity)
}

// SceneGraph is an ordered, concurrency-safe list of entities.
type SceneGraph struct {
	mu       sync.RWMutex
	entities []Entity
}

// NewSceneGraph returns an empty scene.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{}
}

// Add appends e to the scene.
func (g *SceneGraph) Add(e Entity) {
	g.mu.Lock()
	g.entities = append(g.entities, e)
	g.mu.Unlock()
}

// Entities returns a copy of the scene contents in insertion order.
func (g *SceneGraph) Entities() []Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Entity(nil), g.entities...)
}

// Len returns the number of entities in the scene.
func (g *SceneGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entities)
}
