package session

import "sort"

// BuildMenuTree reconstructs a forest from a flat parent-referencing list. Children
// are ordered by Sort, then by input order. Nodes whose parent is unknown, or whose
// ancestry loops back on itself, become roots. The input is not modified.
func BuildMenuTree(flat []*MenuNode) []*MenuNode {
	nodes := make([]*MenuNode, 0, len(flat))
	byID := make(map[FlexID]*MenuNode, len(flat))
	parentOf := make(map[FlexID]FlexID, len(flat))

	for _, n := range flat {
		if n == nil {
			continue
		}
		cp := *n
		cp.Children = nil
		nodes = append(nodes, &cp)
		if cp.ID != "" {
			if _, dup := byID[cp.ID]; !dup {
				byID[cp.ID] = &cp
				parentOf[cp.ID] = cp.ParentID
			}
		}
	}

	var roots []*MenuNode
	for _, n := range nodes {
		parent, ok := byID[n.ParentID]
		if n.ParentID == "" || !ok || parent == n || loops(n.ID, parentOf) {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sortTree(roots)
	return roots
}

func loops(id FlexID, parentOf map[FlexID]FlexID) bool {
	if id == "" {
		return false
	}
	seen := map[FlexID]bool{id: true}
	cur := parentOf[id]
	for cur != "" {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		next, ok := parentOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// FlattenMenuTree lists every node of the forest in depth-first pre-order. Returned
// nodes are copies without children; ParentID is set from the tree structure.
func FlattenMenuTree(tree []*MenuNode) []*MenuNode {
	var out []*MenuNode
	var walk func(nodes []*MenuNode, parent FlexID)
	walk = func(nodes []*MenuNode, parent FlexID) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			cp := *n
			cp.Children = nil
			cp.ParentID = parent
			out = append(out, &cp)
			walk(n.Children, n.ID)
		}
	}
	walk(tree, "")
	return out
}

// NormalizeMenus accepts either shape the server sends. A list in which no node has
// children but some node references a parent is treated as flat and rebuilt;
// anything else is copied and sorted as a tree.
func NormalizeMenus(nodes []*MenuNode) []*MenuNode {
	if len(nodes) == 0 {
		return nil
	}
	flat := true
	referencesParent := false
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if len(n.Children) > 0 {
			flat = false
			break
		}
		if n.ParentID != "" {
			referencesParent = true
		}
	}
	if flat && referencesParent {
		return BuildMenuTree(nodes)
	}
	out := cloneTree(nodes)
	sortTree(out)
	return out
}

func sortTree(nodes []*MenuNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Sort < nodes[j].Sort
	})
	for _, n := range nodes {
		sortTree(n.Children)
	}
}

func cloneTree(nodes []*MenuNode) []*MenuNode {
	if nodes == nil {
		return nil
	}
	out := make([]*MenuNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		cp := *n
		cp.Children = cloneTree(n.Children)
		out = append(out, &cp)
	}
	return out
}

// leafMenus collects nodes without children, depth-first in tree order.
func leafMenus(tree []*MenuNode) []*MenuNode {
	var leaves []*MenuNode
	var walk func(nodes []*MenuNode)
	walk = func(nodes []*MenuNode) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if len(n.Children) == 0 {
				cp := *n
				leaves = append(leaves, &cp)
				continue
			}
			walk(n.Children)
		}
	}
	walk(tree)
	return leaves
}

// DeriveAccessible lists the paths and names of every active node, in tree order,
// without duplicates.
func DeriveAccessible(tree []*MenuNode) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	var walk func(nodes []*MenuNode)
	walk = func(nodes []*MenuNode) {
		for _, n := range nodes {
			if n == nil || !bool(n.Active) {
				continue
			}
			add(n.Path)
			add(n.Name)
			walk(n.Children)
		}
	}
	walk(tree)
	return out
}

func treeContains(tree []*MenuNode, target string) bool {
	for _, n := range tree {
		if n == nil || !bool(n.Active) {
			continue
		}
		if n.Path == target || n.Name == target {
			return true
		}
		if treeContains(n.Children, target) {
			return true
		}
	}
	return false
}
