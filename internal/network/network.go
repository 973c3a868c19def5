package network

import (
	"cmp"
	"slices"
)

// Network is an immutable set of links ordered by ID.
type Network struct {
	links []Link
	index map[string]int

	// CRS is the coordinate reference system of the node coordinates, if known.
	CRS string
}

// New builds a network from links. Later duplicates of an ID replace earlier ones.
func New(links []Link) *Network {
	byID := make(map[string]Link, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}

	sorted := make([]Link, 0, len(byID))
	for _, l := range byID {
		sorted = append(sorted, l)
	}
	slices.SortFunc(sorted, func(a, b Link) int { return cmp.Compare(a.ID, b.ID) })

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		index[l.ID] = i
	}

	return &Network{links: sorted, index: index}
}

// Links returns the links in ID order. The slice must not be modified.
func (n *Network) Links() []Link {
	return n.links
}

// Len returns the number of links.
func (n *Network) Len() int {
	return len(n.links)
}

// Link looks up a link by ID.
func (n *Network) Link(id string) (Link, bool) {
	i, ok := n.index[id]
	if !ok {
		return Link{}, false
	}
	return n.links[i], true
}

// Index returns the position of a link in Links().
func (n *Network) Index(id string) (int, bool) {
	i, ok := n.index[id]
	return i, ok
}

// RoadTypes returns the distinct road types, sorted.
func (n *Network) RoadTypes() []string {
	seen := make(map[string]bool)
	var types []string
	for _, l := range n.links {
		if !seen[l.RoadType] {
			seen[l.RoadType] = true
			types = append(types, l.RoadType)
		}
	}
	slices.Sort(types)
	return types
}

// Filter returns a new network holding the links accepted by every predicate.
func (n *Network) Filter(keep ...func(Link) bool) *Network {
	var kept []Link
	for _, l := range n.links {
		ok := true
		for _, k := range keep {
			if !k(l) {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, l)
		}
	}
	out := New(kept)
	out.CRS = n.CRS
	return out
}
