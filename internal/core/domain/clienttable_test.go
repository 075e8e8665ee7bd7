package domain

import "testing"

func TestClientTableInsertGetRemove(t *testing.T) {
	table := NewClientTable()

	a := &Client{IsHost: true}
	b := &Client{}

	ha := table.Insert(a)
	hb := table.Insert(b)

	if ha == hb {
		t.Fatalf("expected distinct handles, got %d and %d", ha, hb)
	}
	if table.Len() != 2 {
		t.Fatalf("expected len 2, got %d", table.Len())
	}
	if got := table.Get(ha); got != a {
		t.Fatalf("Get(%d) = %v, want %v", ha, got, a)
	}

	removed := table.Remove(ha)
	if removed != a {
		t.Fatalf("Remove(%d) = %v, want %v", ha, removed, a)
	}
	if table.Len() != 1 {
		t.Fatalf("expected len 1 after remove, got %d", table.Len())
	}
	if table.Get(ha) != nil {
		t.Fatalf("expected Get(%d) to be nil after remove", ha)
	}
}

func TestClientTableReusesFreedHandle(t *testing.T) {
	table := NewClientTable()

	first := table.Insert(&Client{})
	table.Remove(first)

	second := table.Insert(&Client{})
	if second != first {
		t.Fatalf("expected freed handle %d to be reused, got %d", first, second)
	}
}

func TestClientTableEachVisitsOnlyAdmitted(t *testing.T) {
	table := NewClientTable()
	h1 := table.Insert(&Client{})
	h2 := table.Insert(&Client{})
	table.Remove(h1)

	seen := make(map[int]bool)
	table.Each(func(handle int, c *Client) {
		seen[handle] = true
	})

	if seen[h1] {
		t.Fatalf("Each visited removed handle %d", h1)
	}
	if !seen[h2] {
		t.Fatalf("Each did not visit live handle %d", h2)
	}
}

func TestClientTableRemoveUnknownHandle(t *testing.T) {
	table := NewClientTable()
	if got := table.Remove(5); got != nil {
		t.Fatalf("Remove on empty table = %v, want nil", got)
	}
	table.Insert(&Client{})
	if got := table.Remove(99); got != nil {
		t.Fatalf("Remove out-of-range handle = %v, want nil", got)
	}
}
