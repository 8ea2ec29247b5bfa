// pkg/core/tables.go
package core

// Balance tables for the territory and resource economy. These are the
// canonical values; config may not override them.

// DefaultConquestCost is the price of conquering any cell.
var DefaultConquestCost = ResourceCost{Wood: 10, Iron: 5, Stone: 8}

// DefaultTerritoryMaintenance is the per-cycle upkeep recorded on each
// territory.
var DefaultTerritoryMaintenance = ResourceCost{Wood: 2, Iron: 1, Stone: 2}

// BaseEstablishCost is the one-time price of establishing a level-1 base.
// The legacy client also carried a 50/30/40 table at one call site; that
// table is the upgrade price, not the establishment price.
var BaseEstablishCost = ResourceCost{Wood: 30, Iron: 20, Stone: 25}

// BaseUpgradeCost is the one-time price of upgrading a base to level 2.
var BaseUpgradeCost = ResourceCost{Wood: 50, Iron: 30, Stone: 40}

// BaseStats holds the per-cycle production and upkeep of a base level.
type BaseStats struct {
	Generation  ResourceInventory
	Maintenance ResourceInventory
	MaxHealth   int
}

// BaseStatsByLevel maps each base level to its production table.
var BaseStatsByLevel = map[BaseLevel]BaseStats{
	BaseLevel1: {
		Generation:  ResourceInventory{Wood: 5, Iron: 3, Stone: 4},
		Maintenance: ResourceInventory{Wood: 2, Iron: 1, Stone: 2},
		MaxHealth:   100,
	},
	BaseLevel2: {
		Generation:  ResourceInventory{Wood: 10, Iron: 6, Stone: 8},
		Maintenance: ResourceInventory{Wood: 4, Iron: 2, Stone: 4},
		MaxHealth:   150,
	},
}

// ZoneBaseAmount is the base spawn amount per resource kind. Freshly
// placed zones hold between one and two times this amount, and
// regeneration caps at exactly twice it.
var ZoneBaseAmount = map[ResourceKind]int{
	Wood:  50,
	Iron:  30,
	Stone: 40,
}

// ZoneRegenPerHour is the hourly regeneration rate per resource kind.
var ZoneRegenPerHour = map[ResourceKind]int{
	Wood:  10,
	Iron:  5,
	Stone: 8,
}

// ZoneAmountCap returns the regeneration ceiling for a kind.
func ZoneAmountCap(kind ResourceKind) int {
	return 2 * ZoneBaseAmount[kind]
}
