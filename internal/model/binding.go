package model

// Binding is the durable mirror of a bound token's counters and state.
// Uses is best-effort: the live token wins whenever it can be reached.
type Binding struct {
	Owner   PlayerID
	TokenID TokenID
	Kind    Kind
	Uses    int32
	MaxUses int32
	Hidden  bool // soft-archived, excluded from listings

	// OwnerName is informational and only kept by backends with a column for it
	OwnerName string
}

// Depleted reports whether the binding has no charges left
func (b Binding) Depleted() bool {
	return b.Uses <= 0
}

// BindingRecord is the stored value of a binding, without its key
type BindingRecord struct {
	Kind    Kind
	Uses    int32
	MaxUses int32
	Hidden  bool
}

// Record returns the stored value part of the binding
func (b Binding) Record() BindingRecord {
	return BindingRecord{Kind: b.Kind, Uses: b.Uses, MaxUses: b.MaxUses, Hidden: b.Hidden}
}

// NewBinding joins a key and a stored record
func NewBinding(owner PlayerID, id TokenID, rec BindingRecord) Binding {
	return Binding{
		Owner:   owner,
		TokenID: id,
		Kind:    rec.Kind,
		Uses:    rec.Uses,
		MaxUses: rec.MaxUses,
		Hidden:  rec.Hidden,
	}
}
