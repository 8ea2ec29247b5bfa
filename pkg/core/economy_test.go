package core

import "testing"

func TestCanAfford_ExactCover(t *testing.T) {
	inv := ResourceInventory{Wood: 10, Iron: 5, Stone: 8}
	if !inv.CanAfford(ResourceCost{Wood: 10, Iron: 5, Stone: 8}) {
		t.Error("expected exact cover to be affordable")
	}
}

func TestCanAfford_MissingFieldTreatedAsZero(t *testing.T) {
	inv := ResourceInventory{Wood: 1}
	if !inv.CanAfford(ResourceCost{Wood: 1}) {
		t.Error("expected wood-only cost to be affordable")
	}
	if !inv.CanAfford(ResourceCost{}) {
		t.Error("expected empty cost to always be affordable")
	}
}

func TestCanAfford_SingleShortfall(t *testing.T) {
	inv := ResourceInventory{Wood: 50, Iron: 30, Stone: 40}
	if inv.CanAfford(ResourceCost{Wood: 10, Iron: 31, Stone: 8}) {
		t.Error("expected iron shortfall to fail the afford check")
	}
}

func TestCanAfford_EmptyInventory(t *testing.T) {
	var inv ResourceInventory
	if inv.CanAfford(ResourceCost{Stone: 1}) {
		t.Error("expected empty inventory to afford nothing")
	}
	if !inv.CanAfford(ResourceCost{}) {
		t.Error("expected empty cost against empty inventory to pass")
	}
}

func TestDebit(t *testing.T) {
	inv := ResourceInventory{Wood: 50, Iron: 30, Stone: 40}
	got := inv.Debit(ResourceCost{Wood: 10, Iron: 5, Stone: 8})
	want := ResourceInventory{Wood: 40, Iron: 25, Stone: 32}
	if got != want {
		t.Errorf("Debit = %+v, want %+v", got, want)
	}
}

func TestDebit_DoesNotMutateReceiver(t *testing.T) {
	inv := ResourceInventory{Wood: 5}
	_ = inv.Debit(ResourceCost{Wood: 3})
	if inv.Wood != 5 {
		t.Errorf("receiver mutated: wood = %d", inv.Wood)
	}
}

func TestCredit(t *testing.T) {
	inv := ResourceInventory{Wood: 1, Iron: 2, Stone: 3}
	got := inv.Credit(ResourceInventory{Wood: 5, Iron: 3, Stone: 4})
	want := ResourceInventory{Wood: 6, Iron: 5, Stone: 7}
	if got != want {
		t.Errorf("Credit = %+v, want %+v", got, want)
	}
}

func TestCreditKind(t *testing.T) {
	var inv ResourceInventory
	inv = inv.CreditKind(Wood, 7)
	inv = inv.CreditKind(Iron, 3)
	inv = inv.CreditKind(Stone, 1)
	want := ResourceInventory{Wood: 7, Iron: 3, Stone: 1}
	if inv != want {
		t.Errorf("CreditKind chain = %+v, want %+v", inv, want)
	}
}

func TestGet(t *testing.T) {
	inv := ResourceInventory{Wood: 1, Iron: 2, Stone: 3}
	for kind, want := range map[ResourceKind]int{Wood: 1, Iron: 2, Stone: 3} {
		if got := inv.Get(kind); got != want {
			t.Errorf("Get(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestZoneAmountCap(t *testing.T) {
	if cap := ZoneAmountCap(Wood); cap != 100 {
		t.Errorf("wood cap = %d, want 100", cap)
	}
	if cap := ZoneAmountCap(Iron); cap != 60 {
		t.Errorf("iron cap = %d, want 60", cap)
	}
	if cap := ZoneAmountCap(Stone); cap != 80 {
		t.Errorf("stone cap = %d, want 80", cap)
	}
}
