// pkg/core/economy.go
package core

// ResourceInventory holds the three resource counters of a player.
// Counters are never negative; Debit callers must check CanAfford first.
type ResourceInventory struct {
	Wood  int `json:"wood"`
	Iron  int `json:"iron"`
	Stone int `json:"stone"`
}

// ResourceCost is a partial price over the three resources. A zero field
// means that resource is not part of the price.
type ResourceCost struct {
	Wood  int `json:"wood,omitempty"`
	Iron  int `json:"iron,omitempty"`
	Stone int `json:"stone,omitempty"`
}

// CanAfford reports whether every field of the cost is covered by the
// inventory.
func (inv ResourceInventory) CanAfford(cost ResourceCost) bool {
	return inv.Wood >= cost.Wood && inv.Iron >= cost.Iron && inv.Stone >= cost.Stone
}

// Debit subtracts the cost from the inventory and returns the result.
// It does not guard against negative counters; the afford check is the
// caller's responsibility. This keeps the operation a pure subtraction
// and puts the trust boundary at the command layer.
func (inv ResourceInventory) Debit(cost ResourceCost) ResourceInventory {
	return ResourceInventory{
		Wood:  inv.Wood - cost.Wood,
		Iron:  inv.Iron - cost.Iron,
		Stone: inv.Stone - cost.Stone,
	}
}

// Credit adds the amounts to the inventory and returns the result. There
// is no inventory-level upper bound; caps live on zones and bases.
func (inv ResourceInventory) Credit(amounts ResourceInventory) ResourceInventory {
	return ResourceInventory{
		Wood:  inv.Wood + amounts.Wood,
		Iron:  inv.Iron + amounts.Iron,
		Stone: inv.Stone + amounts.Stone,
	}
}

// CreditKind adds amount of a single resource kind.
func (inv ResourceInventory) CreditKind(kind ResourceKind, amount int) ResourceInventory {
	switch kind {
	case Wood:
		inv.Wood += amount
	case Iron:
		inv.Iron += amount
	case Stone:
		inv.Stone += amount
	}
	return inv
}

// Get returns the counter for a single resource kind.
func (inv ResourceInventory) Get(kind ResourceKind) int {
	switch kind {
	case Wood:
		return inv.Wood
	case Iron:
		return inv.Iron
	case Stone:
		return inv.Stone
	}
	return 0
}

// Cost converts the inventory to a cost over the same counters. Used for
// base maintenance, where the per-cycle upkeep is stored inventory-shaped.
func (inv ResourceInventory) Cost() ResourceCost {
	return ResourceCost{Wood: inv.Wood, Iron: inv.Iron, Stone: inv.Stone}
}
