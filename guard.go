package sift

// Guard rejects bulk mutations that constrain nothing. An empty or
// absent where clause matches every row, so updateAll/deleteAll-class
// operations must either carry a condition or pass force explicitly.
// Guard runs before any predicate is composed.
func Guard(w *Where, force bool) error {
	if w.Empty() && !force {
		return &UnsafeBulkError{}
	}
	return nil
}
