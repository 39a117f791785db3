package avl

// Decision tables for the two fix-up walks. They are pure functions of
// balance factors so each row can be checked on its own; the walks in
// insert.go and remove.go apply them.

type rotation uint8

const (
	rotateNone rotation = iota
	rotateSingle
	rotateDouble
)

// step is what a fix-up does at one node.
type step struct {
	rotation rotation
	// New balance of the node when rotation is rotateNone or rotateSingle.
	balance int8
	// New balance of the promoted child after a single rotation.
	child     int8
	propagate bool
}

// insertStep decides the insert fix-up at grandparent g, whose balance has
// already been moved towards the side that grew. sameSide tells whether the
// new node hangs off the parent on the same side as the parent hangs off g.
func insertStep(balance int8, sameSide bool) step {
	switch balance {
	case 0:
		return step{}
	case -1, 1:
		return step{balance: balance, propagate: true}
	case -2, 2:
		if sameSide {
			return step{rotation: rotateSingle}
		}

		return step{rotation: rotateDouble}
	}

	panic("insert fix-up reached an impossible balance")
}

// insertDoubleBalances returns the balances of the parent, grandparent and
// new subtree root after a left-right double rotation, keyed by the new root's
// balance before the rotation. The right-left case negates input and output.
func insertDoubleBalances(nodeBalance int8) (int8, int8, int8) {
	switch nodeBalance {
	case -1:
		return 0, 1, 0
	case 0:
		return 0, 0, 0
	case 1:
		return -1, 0, 0
	}

	panic("insert double rotation on an unbalanced node")
}

// removeStep decides the remove fix-up at a node whose balance is balance
// and one of whose subtrees just lost a level: diff is +1 when it was the
// left one and -1 for the right one. heavy is the balance of the child on
// the opposite, now taller, side and only matters when the node tips over.
func removeStep(balance, diff, heavy int8) step {
	sum := balance + diff

	switch sum {
	case -1, 1:
		// Was level: absorbed, the subtree keeps its height.
		return step{balance: sum}
	case 0:
		return step{balance: 0, propagate: true}
	case -2, 2:
		lean := heavy
		if sum > 0 {
			lean = -heavy
		}

		switch lean {
		case -1:
			return step{rotation: rotateSingle, propagate: true}
		case 0:
			// The height is unchanged; nothing above needs fixing.
			return step{rotation: rotateSingle, balance: sum / 2, child: -sum / 2}
		case 1:
			return step{rotation: rotateDouble, propagate: true}
		}
	}

	panic("remove fix-up reached an impossible balance")
}

// removeDoubleBalances returns the balances of the unbalanced node, its
// child and grandchild after a left-right double rotation of a left-heavy
// node, keyed by the grandchild's balance before the rotation. The mirrored
// case negates input and output.
func removeDoubleBalances(grandBalance int8) (int8, int8, int8) {
	switch grandBalance {
	case 1:
		return 0, -1, 0
	case 0:
		return 0, 0, 0
	case -1:
		return 1, 0, 0
	}

	panic("remove double rotation on an unbalanced node")
}

func mirrored(fn func(int8) (int8, int8, int8), balance int8) (int8, int8, int8) {
	first, second, third := fn(-balance)

	return -first, -second, -third
}
