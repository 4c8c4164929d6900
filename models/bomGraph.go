package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

// componentSource resolves the outgoing component edges of an item.
// Kept as a function type so graph traversal is testable without a db.
type componentSource func(itemId int) ([]ItemComponent, error)

// availabilityFn resolves the rentable quantity of an item.
type availabilityFn func(itemId int) (int, error)

// reachPath returns the item ids along a component path from 'from'
// down to 'to', or nil if 'to' is unreachable. A visited set keeps
// diamond graphs (shared children) from being walked twice.
func reachPath(components componentSource, from, to int) ([]int, error) {
	visited := make(map[int]bool)

	var dfs func(node int, trail []int) ([]int, error)
	dfs = func(node int, trail []int) ([]int, error) {
		if node == to {
			return append(trail, node), nil
		}
		if visited[node] {
			return nil, nil
		}
		visited[node] = true

		edges, err := components(node)
		if err != nil {
			return nil, err
		}
		trail = append(trail, node)
		for _, edge := range edges {
			path, err := dfs(edge.ChildItemId, trail)
			if err != nil {
				return nil, err
			}
			if path != nil {
				return path, nil
			}
		}
		return nil, nil
	}

	return dfs(from, []int{})
}

// detectCycle reports whether inserting the edge parent -> child would
// close a cycle. The cycle exists iff parent is already reachable from
// child. The returned path starts at parent and ends at parent.
func detectCycle(components componentSource, parentId int, childId int) (*CycleDetectedError, error) {
	if parentId == childId {
		return &CycleDetectedError{
			ParentId: parentId,
			ChildId:  childId,
			Path:     []int{parentId, parentId},
		}, nil
	}
	path, err := reachPath(components, childId, parentId)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, nil
	}
	cycle := append([]int{parentId}, path...)
	return &CycleDetectedError{
		ParentId: parentId,
		ChildId:  childId,
		Path:     cycle,
	}, nil
}

// compositeAvailable derives how many units of a composite can be
// assembled: the minimum over floor(childAvailable / requiredQuantity).
// Edges with a non-positive required quantity are skipped; a composite
// with no contributing edges yields zero.
func compositeAvailable(edges []ItemComponent, childAvailable availabilityFn) (int, error) {
	available := 0
	contributed := false
	for _, edge := range edges {
		if edge.RequiredQuantity <= 0 {
			continue
		}
		childQty, err := childAvailable(edge.ChildItemId)
		if err != nil {
			return 0, err
		}
		buildable := childQty / edge.RequiredQuantity
		if !contributed || buildable < available {
			available = buildable
			contributed = true
		}
	}
	if !contributed {
		return 0, nil
	}
	return available, nil
}

// BOMValidationReport summarizes structural problems of one item's
// component graph. Errors make the graph unusable; warnings do not.
type BOMValidationReport struct {
	ItemId   int      `json:"item_id"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *BOMValidationReport) IsValid() bool {
	return len(r.Errors) == 0
}

// validateGraph walks the full graph under rootId checking edge sanity
// and kind constraints. Cycles cannot exist once edges pass the write
// path, but a visited guard keeps a corrupted graph from looping.
func validateGraph(components componentSource, items func(itemId int) (*Item, error), rootId int) (*BOMValidationReport, error) {
	report := &BOMValidationReport{ItemId: rootId}

	root, err := items(rootId)
	if err != nil {
		return nil, err
	}
	if root.Kind != ItemKindComposite {
		report.Errors = append(report.Errors, fmt.Sprintf("item %d is not composite", rootId))
		return report, nil
	}

	visited := make(map[int]bool)
	onStack := make(map[int]bool)

	var walk func(nodeId int) error
	walk = func(nodeId int) error {
		if onStack[nodeId] {
			report.Errors = append(report.Errors, fmt.Sprintf("component cycle through item %d", nodeId))
			return nil
		}
		if visited[nodeId] {
			return nil
		}
		visited[nodeId] = true
		onStack[nodeId] = true
		defer delete(onStack, nodeId)

		edges, err := components(nodeId)
		if err != nil {
			return err
		}
		node, err := items(nodeId)
		if err != nil {
			return err
		}
		if node.Kind == ItemKindComposite && len(edges) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("composite item %d has no components", nodeId))
		}
		for _, edge := range edges {
			if edge.RequiredQuantity <= 0 {
				report.Errors = append(report.Errors, fmt.Sprintf("component edge %d -> %d has non-positive required quantity", edge.ParentItemId, edge.ChildItemId))
			}
			child, err := items(edge.ChildItemId)
			if err != nil {
				var notFound *NotFoundError
				if errors.As(err, &notFound) {
					report.Errors = append(report.Errors, fmt.Sprintf("component child %d does not exist", edge.ChildItemId))
					continue
				}
				return err
			}
			if child.Kind == ItemKindService {
				report.Errors = append(report.Errors, fmt.Sprintf("service item %d cannot be a component", edge.ChildItemId))
				continue
			}
			if child.IsActive != nil && !*child.IsActive {
				report.Warnings = append(report.Warnings, fmt.Sprintf("component child %d is inactive", edge.ChildItemId))
			}
			if err := walk(edge.ChildItemId); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(rootId); err != nil {
		return nil, err
	}
	return report, nil
}

// ValidateBOMStructure checks the component graph rooted at itemId.
func ValidateBOMStructure(ctx context.Context, itemId int) (*BOMValidationReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Item](ctx, businessId, itemId); err != nil {
		return nil, &NotFoundError{Entity: "item", Id: itemId}
	}

	return validateGraph(dbComponentSource(ctx, businessId), dbItemLookup(ctx, businessId), itemId)
}

// dbComponentSource backs componentSource with db queries.
func dbComponentSource(ctx context.Context, businessId string) componentSource {
	return func(itemId int) ([]ItemComponent, error) {
		db := config.GetDB()
		var edges []ItemComponent
		err := db.WithContext(ctx).
			Where("business_id = ? AND parent_item_id = ?", businessId, itemId).
			Order("position").
			Find(&edges).Error
		if err != nil {
			return nil, err
		}
		return edges, nil
	}
}

func dbItemLookup(ctx context.Context, businessId string) func(itemId int) (*Item, error) {
	return func(itemId int) (*Item, error) {
		item, err := utils.FetchModel[Item](ctx, businessId, itemId)
		if err != nil {
			return nil, &NotFoundError{Entity: "item", Id: itemId}
		}
		return item, nil
	}
}
