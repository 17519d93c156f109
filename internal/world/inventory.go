package world

import (
	"sync"

	"github.com/mcoot/chargedblocks/internal/token"
)

// Inventory is a fixed number of slots, each empty or holding one stack.
// Player inventories and container blocks share it.
type Inventory struct {
	mu    sync.Mutex
	slots []*token.Item
}

// NewInventory creates an empty inventory with size slots
func NewInventory(size int) *Inventory {
	return &Inventory{slots: make([]*token.Item, size)}
}

// Size returns the number of slots
func (inv *Inventory) Size() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.slots)
}

// Items returns the non-empty slots in slot order
func (inv *Inventory) Items() []*token.Item {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]*token.Item, 0, len(inv.slots))
	for _, it := range inv.slots {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Add puts the item into the first empty slot and reports whether there was
// room
func (inv *Inventory) Add(item *token.Item) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i, it := range inv.slots {
		if it == nil {
			inv.slots[i] = item
			return true
		}
	}
	return false
}

// Set overwrites a slot. Out of range slots are ignored.
func (inv *Inventory) Set(slot int, item *token.Item) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if slot >= 0 && slot < len(inv.slots) {
		inv.slots[slot] = item
	}
}

// Remove empties the slot holding exactly this item. Removing an item that
// is no longer there is a no-op.
func (inv *Inventory) Remove(item *token.Item) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i, it := range inv.slots {
		if it == item {
			inv.slots[i] = nil
			return true
		}
	}
	return false
}

// Contains reports whether this exact item is in a slot
func (inv *Inventory) Contains(item *token.Item) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, it := range inv.slots {
		if it == item {
			return true
		}
	}
	return false
}
