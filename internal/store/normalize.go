package store

// firstOrNil collapses a joined relation that may come back as zero, one or
// many rows into a canonical optional single value, so downstream code never
// branches on row multiplicity.
func firstOrNil[T any](xs []T) *T {
	if len(xs) == 0 {
		return nil
	}
	return &xs[0]
}
