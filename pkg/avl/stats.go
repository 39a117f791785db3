package avl

// Stats counts the work done by a tree since its creation.
type Stats struct {
	// Inserts counts keys added as new nodes.
	Inserts int64
	// Overwrites counts inserts of a key that was already present.
	Overwrites int64
	Removes    int64
	// Rotations counts primitive rotations; a double rotation adds two.
	Rotations       int64
	SingleRotations int64
	DoubleRotations int64
	// FixupSteps counts ancestors visited by both fix-up walks.
	FixupSteps int64
}
