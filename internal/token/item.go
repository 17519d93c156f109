package token

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/chargedblocks/internal/model"
)

// Metadata tag keys persisted on the token itself
const (
	TagUses    = "uses"
	TagMaxUses = "max_uses"
	TagOwner   = "owner"
	TagTokenID = "token_id"
)

// Item is a charged token: a placeable item carrying its own counters and
// ownership claim as opaque metadata tags.
type Item struct {
	Kind   model.Kind
	Amount int
	Name   string

	mu   sync.RWMutex
	lore []string
	tags map[string]string

	claimMu sync.Mutex
}

// New creates an untagged item of the given kind
func New(kind model.Kind) *Item {
	return &Item{Kind: kind, Amount: 1}
}

// Tag returns a raw metadata tag
func (i *Item) Tag(key string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.tags[key]
	return v, ok
}

// SetTag stores a raw metadata tag
func (i *Item) SetTag(key, value string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tags == nil {
		i.tags = make(map[string]string)
	}
	i.tags[key] = value
}

// DeleteTag removes a metadata tag
func (i *Item) DeleteTag(key string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.tags, key)
}

// Tags returns a copy of all metadata tags
func (i *Item) Tags() map[string]string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]string, len(i.tags))
	for k, v := range i.tags {
		out[k] = v
	}
	return out
}

func (i *Item) intTag(key string) (int32, bool) {
	raw, ok := i.Tag(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

func (i *Item) setIntTag(key string, n int32) {
	i.SetTag(key, strconv.FormatInt(int64(n), 10))
}

// addIntTag adds delta to a numeric tag and returns the result. A missing or
// unparsable tag counts as zero.
func (i *Item) addIntTag(key string, delta int32) int32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	var n int32
	if raw, ok := i.tags[key]; ok {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
			n = int32(v)
		}
	}
	n += delta
	if i.tags == nil {
		i.tags = make(map[string]string)
	}
	i.tags[key] = strconv.FormatInt(int64(n), 10)
	return n
}

func (i *Item) uuidTag(key string) (uuid.UUID, bool) {
	raw, ok := i.Tag(key)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Owner returns the owner tag, if the token has been bound
func (i *Item) Owner() (model.PlayerID, bool) {
	return i.uuidTag(TagOwner)
}

// TokenID returns the token id tag, if the token has been bound
func (i *Item) TokenID() (model.TokenID, bool) {
	return i.uuidTag(TagTokenID)
}

// Bound reports whether the token carries an owner tag
func (i *Item) Bound() bool {
	_, ok := i.Tag(TagOwner)
	return ok
}

// TagOwnership stores the owner and token id tags unless an owner tag is
// already present. The check and the write happen under one lock.
func (i *Item) TagOwnership(owner model.PlayerID, id model.TokenID) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.tags[TagOwner]; ok {
		return false
	}
	if i.tags == nil {
		i.tags = make(map[string]string)
	}
	i.tags[TagOwner] = owner.String()
	i.tags[TagTokenID] = id.String()
	return true
}

// Claim serialises binding attempts on this item until release is called.
// Other items are unaffected.
func (i *Item) Claim() (release func()) {
	i.claimMu.Lock()
	return i.claimMu.Unlock
}

// Lore returns a copy of the description lines
func (i *Item) Lore() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, len(i.lore))
	copy(out, i.lore)
	return out
}

// SetLore replaces the description lines
func (i *Item) SetLore(lines []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lore = make([]string, len(lines))
	copy(i.lore, lines)
}

// Clone returns a deep copy of the item
func (i *Item) Clone() *Item {
	i.mu.RLock()
	defer i.mu.RUnlock()
	c := &Item{Kind: i.Kind, Amount: i.Amount, Name: i.Name}
	c.lore = make([]string, len(i.lore))
	copy(c.lore, i.lore)
	if i.tags != nil {
		c.tags = make(map[string]string, len(i.tags))
		for k, v := range i.tags {
			c.tags[k] = v
		}
	}
	return c
}
