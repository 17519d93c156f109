// Package world is the in-process view of live state the registry
// reconciles against: online players, and the regions holding dropped
// items, containers and placed blocks.
package world

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mcoot/chargedblocks/internal/dependencies/random"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/token"
)

// DefaultInventorySize matches a player's main inventory
const DefaultInventorySize = 36

// ErrPlayerOffline is returned when an operation needs an online player
var ErrPlayerOffline = errors.New("player is not online")

// Player is an online player and what they carry
type Player struct {
	model.Player
	Region    string
	Pos       Vec3i
	Inventory *Inventory

	mu       sync.Mutex
	messages []string
}

// Messages returns the notifications the player has received
func (p *Player) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *Player) notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

var (
	// ErrTokenNotHeld is returned when a player does not carry the token
	ErrTokenNotHeld = errors.New("token is not in the player's inventory")
	// ErrTokenNotPlaced is returned when no loaded region has the token placed
	ErrTokenNotPlaced = errors.New("token is not placed in a loaded region")
)

// Listener is told when live state becomes reachable. Calls happen outside
// the world's locks.
type Listener interface {
	PlayerJoined(ctx context.Context, p *Player)
	RegionLoaded(ctx context.Context, r *Region)
}

// World tracks online players and regions
type World struct {
	random random.Random

	mu       sync.RWMutex
	players  map[model.PlayerID]*Player
	regions  map[string]*Region
	listener Listener
}

// New creates an empty world
func New(random random.Random) *World {
	return &World{
		random:  random,
		players: make(map[model.PlayerID]*Player),
		regions: make(map[string]*Region),
	}
}

// SetListener registers l for join and region load events
func (w *World) SetListener(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = l
}

func (w *World) currentListener() Listener {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.listener
}

// Join brings a player online in region at pos carrying items. Items that do
// not fit are left out. The region is created if needed.
func (w *World) Join(ctx context.Context, p model.Player, region string, pos Vec3i, items ...*token.Item) *Player {
	w.Region(region)

	player := &Player{
		Player:    p,
		Region:    region,
		Pos:       pos,
		Inventory: NewInventory(DefaultInventorySize),
	}
	for _, item := range items {
		player.Inventory.Add(item)
	}

	w.mu.Lock()
	w.players[p.ID] = player
	l := w.listener
	w.mu.Unlock()

	if l != nil {
		l.PlayerJoined(ctx, player)
	}
	return player
}

// Leave takes a player offline
func (w *World) Leave(id model.PlayerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, id)
}

// Player returns an online player
func (w *World) Player(id model.PlayerID) (*Player, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.players[id]
	return p, ok
}

// OnlinePlayers returns every online player ordered by id
func (w *World) OnlinePlayers() []*Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Region returns the named region, creating a loaded one if needed
func (w *World) Region(name string) *Region {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.regions[name]
	if !ok {
		r = NewRegion(name)
		r.onLoad = w.regionLoaded
		w.regions[name] = r
	}
	return r
}

func (w *World) regionLoaded(ctx context.Context, r *Region) {
	if l := w.currentListener(); l != nil {
		l.RegionLoaded(ctx, r)
	}
}

// LoadedRegions returns the active regions ordered by name
func (w *World) LoadedRegions() []*Region {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Region, 0, len(w.regions))
	for _, r := range w.regions {
		if r.Loaded() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PlayerName resolves the name of an online player, or "" when offline
func (w *World) PlayerName(_ context.Context, id model.PlayerID) string {
	if p, ok := w.Player(id); ok {
		return p.Name
	}
	return ""
}

// Give puts the item in the player's inventory and reports whether it fit
func (w *World) Give(_ context.Context, id model.PlayerID, item *token.Item) (bool, error) {
	p, ok := w.Player(id)
	if !ok {
		return false, ErrPlayerOffline
	}
	return p.Inventory.Add(item), nil
}

// Drop spawns the item as a dropped entity at the player's position
func (w *World) Drop(_ context.Context, id model.PlayerID, item *token.Item) (*ItemEntity, error) {
	p, ok := w.Player(id)
	if !ok {
		return nil, ErrPlayerOffline
	}
	e := &ItemEntity{
		EntityID: w.random.UUID().String(),
		Pos:      p.Pos,
		Item:     item,
	}
	w.Region(p.Region).AddEntity(e)
	return e, nil
}

// Notify delivers a message to an online player. Offline players miss it.
func (w *World) Notify(_ context.Context, id model.PlayerID, msg string) {
	if p, ok := w.Player(id); ok {
		p.notify(msg)
	}
}

// Held returns the item carrying token id in the player's inventory
func (w *World) Held(id model.PlayerID, tokenID model.TokenID) (*Player, *token.Item, error) {
	p, ok := w.Player(id)
	if !ok {
		return nil, nil, ErrPlayerOffline
	}
	for _, item := range p.Inventory.Items() {
		if tid, ok := item.TokenID(); ok && tid == tokenID {
			return p, item, nil
		}
	}
	return p, nil, ErrTokenNotHeld
}
