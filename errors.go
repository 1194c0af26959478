package sift

import (
	"fmt"
	"strings"
)

// StructuralError reports a malformed filter shape: an unrecognized
// operator in strict mode, a malformed operand, or a fields projection
// mixing inclusion and exclusion. It is always surfaced, never coerced.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return "sift: " + e.Msg
}

func structuralf(format string, args ...any) *StructuralError {
	return &StructuralError{Msg: fmt.Sprintf(format, args...)}
}

// RelationNotFoundError reports an include naming a relation the entity
// does not define. Known carries the entity's actual relation names,
// sorted, for diagnostics.
type RelationNotFoundError struct {
	Entity   string
	Relation string
	Known    []string
}

func (e *RelationNotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("sift: entity %q has no relation %q (no relations defined)", e.Entity, e.Relation)
	}
	return fmt.Sprintf("sift: entity %q has no relation %q (known relations: %s)",
		e.Entity, e.Relation, strings.Join(e.Known, ", "))
}

// UnknownEntityError reports a resolve call against an entity that was
// never registered.
type UnknownEntityError struct {
	Entity string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("sift: unknown entity %q", e.Entity)
}

// UnsafeBulkError reports a bulk mutation whose where clause constrains
// nothing. It is raised before any query construction happens.
type UnsafeBulkError struct {
	Entity string
}

func (e *UnsafeBulkError) Error() string {
	if e.Entity == "" {
		return "sift: bulk mutation with empty where requires force"
	}
	return fmt.Sprintf("sift: bulk mutation on %q with empty where requires force", e.Entity)
}
