package ir

// PreOrder returns root and every live operation nested in it, parents before their regions' contents, in
// program order. The result is a snapshot: it is not affected by later changes to the module.
func (m *Module) PreOrder(root OpID) []OpID {
	var order []OpID
	var visit func(op OpID)
	visit = func(op OpID) {
		order = append(order, op)
		for _, r := range m.ops[op].regions {
			for _, b := range m.regions[r].blocks {
				for _, nested := range m.blocks[b].ops {
					visit(nested)
				}
			}
		}
	}
	if m.ops[root].erased {
		return nil
	}
	visit(root)
	return order
}

// Walk calls fn for every live operation of the module (the module operation itself excluded), in pre-order.
// It stops early if fn returns false.
func (m *Module) Walk(fn func(op OpID) bool) {
	for _, op := range m.PreOrder(m.root)[1:] {
		if !fn(op) {
			return
		}
	}
}

// WalkRegion calls fn for every operation nested in the region, in pre-order.
func (m *Module) WalkRegion(r RegionID, fn func(op OpID) bool) {
	for _, b := range m.regions[r].blocks {
		for _, op := range m.blocks[b].ops {
			for _, nested := range m.PreOrder(op) {
				if !fn(nested) {
					return
				}
			}
		}
	}
}

// IsAncestor returns whether ancestor is op or one of the operations enclosing it.
func (m *Module) IsAncestor(ancestor, op OpID) bool {
	for ; op != NoOp; op = m.ParentOp(op) {
		if op == ancestor {
			return true
		}
	}
	return false
}
