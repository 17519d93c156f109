package world

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/chargedblocks/internal/token"
)

// Vec3i is a block position
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ItemEntity is a dropped item lying in the world
type ItemEntity struct {
	EntityID string
	Pos      Vec3i
	Item     *token.Item
}

// Container is a block with an inventory, such as a chest
type Container struct {
	Type      string
	Pos       Vec3i
	Inventory *Inventory
}

// Region is a spatial unit of the world. Only loaded regions are swept.
type Region struct {
	Name string

	mu         sync.Mutex
	loaded     bool
	entities   map[string]*ItemEntity
	containers map[Vec3i]*Container
	placed     map[Vec3i]*token.Item

	// onLoad runs after the region goes from unloaded to loaded
	onLoad func(ctx context.Context, r *Region)
}

// NewRegion creates an empty, loaded region
func NewRegion(name string) *Region {
	return &Region{
		Name:       name,
		loaded:     true,
		entities:   make(map[string]*ItemEntity),
		containers: make(map[Vec3i]*Container),
		placed:     make(map[Vec3i]*token.Item),
	}
}

// Loaded reports whether the region is active
func (r *Region) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// SetLoaded activates or unloads the region. Activating an unloaded region
// of a World tells the world's listener, outside the region lock.
func (r *Region) SetLoaded(ctx context.Context, loaded bool) {
	r.mu.Lock()
	activated := loaded && !r.loaded
	r.loaded = loaded
	onLoad := r.onLoad
	r.mu.Unlock()

	if activated && onLoad != nil {
		onLoad(ctx, r)
	}
}

// AddEntity puts a dropped item into the region
func (r *Region) AddEntity(e *ItemEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[e.EntityID] = e
}

// RemoveEntity removes a dropped item. Absent ids are a no-op.
func (r *Region) RemoveEntity(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[id]; !ok {
		return false
	}
	delete(r.entities, id)
	return true
}

// Entities returns the dropped items ordered by entity id
func (r *Region) Entities() []*ItemEntity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ItemEntity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// PlaceContainer adds a container block, replacing any at the same position
func (r *Region) PlaceContainer(c *Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers[c.Pos] = c
}

// Containers returns the region's containers ordered by position
func (r *Region) Containers() []*Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Container, 0, len(r.containers))
	for _, c := range r.containers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Pos, out[j].Pos) })
	return out
}

// PlaceBlock sets a token as the block at pos
func (r *Region) PlaceBlock(pos Vec3i, item *token.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed[pos] = item
}

// BreakBlock clears pos if it still holds this exact item
func (r *Region) BreakBlock(pos Vec3i, item *token.Item) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.placed[pos]; !ok || cur != item {
		return false
	}
	delete(r.placed, pos)
	return true
}

// PlacedBlock is a token placed as a block
type PlacedBlock struct {
	Pos  Vec3i
	Item *token.Item
}

// Placed returns the placed token blocks ordered by position
func (r *Region) Placed() []PlacedBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlacedBlock, 0, len(r.placed))
	for pos, it := range r.placed {
		out = append(out, PlacedBlock{Pos: pos, Item: it})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Pos, out[j].Pos) })
	return out
}

func less(a, b Vec3i) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
