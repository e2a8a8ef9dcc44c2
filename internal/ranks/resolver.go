package ranks

// ResolveRank returns the highest hierarchy index whose role is held, or NoRank.
// Members holding several hierarchy roles resolve to the highest one.
func ResolveRank(held []string, h Hierarchy) int {
	set := toSet(held)
	current := NoRank
	for i, id := range h {
		if _, ok := set[id]; ok {
			current = i
		}
	}
	return current
}

// HeldRoles returns every hierarchy role present in held, in hierarchy order.
func HeldRoles(held []string, h Hierarchy) []string {
	set := toSet(held)
	out := make([]string, 0, 1)
	for _, id := range h {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// HoldsAny reports whether at least one hierarchy role is held.
func HoldsAny(held []string, h Hierarchy) bool {
	return ResolveRank(held, h) != NoRank
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
