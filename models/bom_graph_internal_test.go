package models

import (
	"testing"
)

// fakeComponents backs the graph walkers with an in-memory edge map.
func fakeComponents(edges map[int][]ItemComponent) componentSource {
	return func(itemId int) ([]ItemComponent, error) {
		return edges[itemId], nil
	}
}

func edge(parent, child, qty int) ItemComponent {
	return ItemComponent{ParentItemId: parent, ChildItemId: child, RequiredQuantity: qty}
}

func TestDetectCycle_SelfReference(t *testing.T) {
	cycle, err := detectCycle(fakeComponents(nil), 7, 7)
	if err != nil {
		t.Fatalf("detectCycle: %v", err)
	}
	if cycle == nil {
		t.Fatal("expected self-reference to be reported as a cycle")
	}
	if len(cycle.Path) != 2 || cycle.Path[0] != 7 || cycle.Path[1] != 7 {
		t.Fatalf("unexpected cycle path: %v", cycle.Path)
	}
}

func TestDetectCycle_DirectCycle(t *testing.T) {
	// 2 -> 1 exists; adding 1 -> 2 closes the loop.
	components := fakeComponents(map[int][]ItemComponent{
		2: {edge(2, 1, 1)},
	})
	cycle, err := detectCycle(components, 1, 2)
	if err != nil {
		t.Fatalf("detectCycle: %v", err)
	}
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	want := []int{1, 2, 1}
	if len(cycle.Path) != len(want) {
		t.Fatalf("cycle path %v, want %v", cycle.Path, want)
	}
	for i := range want {
		if cycle.Path[i] != want[i] {
			t.Fatalf("cycle path %v, want %v", cycle.Path, want)
		}
	}
}

func TestDetectCycle_DeepCycle(t *testing.T) {
	// 3 -> 4 -> 1 exists; adding 1 -> 3 makes 1 -> 3 -> 4 -> 1.
	components := fakeComponents(map[int][]ItemComponent{
		3: {edge(3, 4, 2)},
		4: {edge(4, 1, 1)},
	})
	cycle, err := detectCycle(components, 1, 3)
	if err != nil {
		t.Fatalf("detectCycle: %v", err)
	}
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if cycle.Path[0] != 1 || cycle.Path[len(cycle.Path)-1] != 1 {
		t.Fatalf("cycle path should start and end at the parent: %v", cycle.Path)
	}
}

func TestDetectCycle_DiamondIsNotACycle(t *testing.T) {
	// 1 -> {2, 3}, both 2 and 3 -> 4. Shared child, no loop.
	components := fakeComponents(map[int][]ItemComponent{
		1: {edge(1, 2, 1), edge(1, 3, 1)},
		2: {edge(2, 4, 1)},
		3: {edge(3, 4, 1)},
	})
	cycle, err := detectCycle(components, 1, 4)
	if err != nil {
		t.Fatalf("detectCycle: %v", err)
	}
	if cycle != nil {
		t.Fatalf("diamond flagged as cycle: %v", cycle.Path)
	}
}

func TestCompositeAvailable_MinOverFloors(t *testing.T) {
	stock := map[int]int{10: 9, 11: 10, 12: 4}
	avail := func(itemId int) (int, error) { return stock[itemId], nil }

	// floor(9/2)=4, floor(10/5)=2, floor(4/1)=4 -> 2
	edges := []ItemComponent{
		edge(1, 10, 2),
		edge(1, 11, 5),
		edge(1, 12, 1),
	}
	got, err := compositeAvailable(edges, avail)
	if err != nil {
		t.Fatalf("compositeAvailable: %v", err)
	}
	if got != 2 {
		t.Fatalf("compositeAvailable = %d, want 2", got)
	}
}

func TestCompositeAvailable_SkipsNonPositiveEdges(t *testing.T) {
	avail := func(itemId int) (int, error) { return 6, nil }
	edges := []ItemComponent{
		edge(1, 10, 0),
		edge(1, 11, 3),
	}
	got, err := compositeAvailable(edges, avail)
	if err != nil {
		t.Fatalf("compositeAvailable: %v", err)
	}
	if got != 2 {
		t.Fatalf("compositeAvailable = %d, want 2", got)
	}
}

func TestCompositeAvailable_NoContributingEdges(t *testing.T) {
	avail := func(itemId int) (int, error) { return 100, nil }
	got, err := compositeAvailable(nil, avail)
	if err != nil {
		t.Fatalf("compositeAvailable: %v", err)
	}
	if got != 0 {
		t.Fatalf("compositeAvailable = %d, want 0 for an empty composite", got)
	}
}

func fakeItems(items map[int]*Item) func(itemId int) (*Item, error) {
	return func(itemId int) (*Item, error) {
		item, ok := items[itemId]
		if !ok {
			return nil, &NotFoundError{Entity: "item", Id: itemId}
		}
		return item, nil
	}
}

func TestValidateGraph_NonCompositeRoot(t *testing.T) {
	items := fakeItems(map[int]*Item{
		1: {ID: 1, Kind: ItemKindAtomic},
	})
	report, err := validateGraph(fakeComponents(nil), items, 1)
	if err != nil {
		t.Fatalf("validateGraph: %v", err)
	}
	if report.IsValid() {
		t.Fatal("atomic root should not validate as a composite graph")
	}
}

func TestValidateGraph_ServiceChildAndMissingChild(t *testing.T) {
	items := fakeItems(map[int]*Item{
		1: {ID: 1, Kind: ItemKindComposite},
		2: {ID: 2, Kind: ItemKindService},
	})
	components := fakeComponents(map[int][]ItemComponent{
		1: {edge(1, 2, 1), edge(1, 99, 1)},
	})
	report, err := validateGraph(components, items, 1)
	if err != nil {
		t.Fatalf("validateGraph: %v", err)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 errors (service child, missing child), got %v", report.Errors)
	}
}

func TestValidateGraph_WarningsDoNotInvalidate(t *testing.T) {
	inactive := false
	items := fakeItems(map[int]*Item{
		1: {ID: 1, Kind: ItemKindComposite},
		2: {ID: 2, Kind: ItemKindAtomic, IsActive: &inactive},
		3: {ID: 3, Kind: ItemKindComposite},
	})
	components := fakeComponents(map[int][]ItemComponent{
		1: {edge(1, 2, 1), edge(1, 3, 1)},
	})
	report, err := validateGraph(components, items, 1)
	if err != nil {
		t.Fatalf("validateGraph: %v", err)
	}
	if !report.IsValid() {
		t.Fatalf("inactive child and empty nested composite are warnings, got errors %v", report.Errors)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", report.Warnings)
	}
}

func TestValidateGraph_NonPositiveQuantity(t *testing.T) {
	items := fakeItems(map[int]*Item{
		1: {ID: 1, Kind: ItemKindComposite},
		2: {ID: 2, Kind: ItemKindAtomic},
	})
	components := fakeComponents(map[int][]ItemComponent{
		1: {edge(1, 2, 0)},
	})
	report, err := validateGraph(components, items, 1)
	if err != nil {
		t.Fatalf("validateGraph: %v", err)
	}
	if report.IsValid() {
		t.Fatal("non-positive required quantity must be an error")
	}
}
