package bvh

// AtDepth returns copies of the nodes exactly depth levels below the root.
// Leaves above that depth are not included.
func (b *BVH) AtDepth(depth int) []Node {
	var out []Node
	if len(b.Index) == 0 {
		return out
	}
	b.collect(0, 0, depth, &out)
	return out
}

func (b *BVH) collect(idx, depth, target int, out *[]Node) {
	if depth > target {
		return
	}
	n := b.Nodes[idx]
	if depth == target {
		*out = append(*out, n)
		return
	}
	if !n.IsLeaf() {
		b.collect(n.First, depth+1, target, out)
		b.collect(n.First+1, depth+1, target, out)
	}
}

// Depth returns the number of levels below the root.
func (b *BVH) Depth() int {
	return b.Stats().MaxDepth
}
