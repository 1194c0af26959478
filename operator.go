package sift

import "reflect"

// Operation is a filter operator name as it appears on the wire.
type Operation string

// OperatorMap maps operator names to their operands for one field. A
// field key carries either one OperatorMap or a bare literal, never
// both.
type OperatorMap map[Operation]any

const (
	OperationEq          Operation = "eq"
	OperationNeq         Operation = "neq"
	OperationGt          Operation = "gt"
	OperationGte         Operation = "gte"
	OperationLt          Operation = "lt"
	OperationLte         Operation = "lte"
	OperationInq         Operation = "inq"
	OperationIn          Operation = "in"
	OperationNin         Operation = "nin"
	OperationLike        Operation = "like"
	OperationILike       Operation = "ilike"
	OperationNotLike     Operation = "nlike"
	OperationBetween     Operation = "between"
	OperationNotBetween  Operation = "notBetween"
	OperationIs          Operation = "is"
	OperationIsNot       Operation = "isn"
	OperationContains    Operation = "contains"
	OperationContainedBy Operation = "containedBy"
	OperationOverlaps    Operation = "overlaps"
)

var operatorNames = map[Operation]bool{
	OperationEq:          true,
	OperationNeq:         true,
	OperationGt:          true,
	OperationGte:         true,
	OperationLt:          true,
	OperationLte:         true,
	OperationInq:         true,
	OperationIn:          true,
	OperationNin:         true,
	OperationLike:        true,
	OperationILike:       true,
	OperationNotLike:     true,
	OperationBetween:     true,
	OperationNotBetween:  true,
	OperationIs:          true,
	OperationIsNot:       true,
	OperationContains:    true,
	OperationContainedBy: true,
	OperationOverlaps:    true,
}

// Mode controls how the translator treats operator names it does not
// recognize.
type Mode string

const (
	// ModeStrict rejects unknown operators with a StructuralError.
	ModeStrict Mode = "strict"
	// ModeLenient drops unknown operators without emitting a predicate.
	ModeLenient Mode = "lenient"
)

// Translate maps one {column, operator, operand} triple to a predicate.
//
// Comparison operators keep native-type ordering; for JSON paths the
// adapters use type-preserving extraction, so a numeric operand never
// matches a value stored as a JSON string. That mismatch yields zero
// rows, not an error.
//
// In ModeLenient an unknown operator returns (nil, nil) and the caller
// skips it. A malformed between/notBetween operand is a StructuralError
// in both modes: the operator itself is recognized, its shape is not.
func Translate(col Column, op Operation, operand any, mode Mode) (Expr, error) {
	switch op {
	case OperationEq:
		if operand == nil {
			return IsNullExpr{Column: col}, nil
		}
		return EqExpr{Column: col, Value: operand}, nil
	case OperationNeq:
		if operand == nil {
			return NotNullExpr{Column: col}, nil
		}
		return NeqExpr{Column: col, Value: operand}, nil
	case OperationGt:
		return GtExpr{Column: col, Value: operand}, nil
	case OperationGte:
		return GteExpr{Column: col, Value: operand}, nil
	case OperationLt:
		return LtExpr{Column: col, Value: operand}, nil
	case OperationLte:
		return LteExpr{Column: col, Value: operand}, nil
	case OperationInq, OperationIn:
		values := operandSlice(operand)
		if len(values) == 0 {
			return FalseExpr{}, nil
		}
		return InExpr{Column: col, Values: values}, nil
	case OperationNin:
		return NotInExpr{Column: col, Values: operandSlice(operand)}, nil
	case OperationLike:
		return LikeExpr{Column: col, Value: operand}, nil
	case OperationILike:
		return ILikeExpr{Column: col, Value: operand}, nil
	case OperationNotLike:
		return NotLikeExpr{Column: col, Value: operand}, nil
	case OperationBetween:
		low, high, err := rangeOperands(op, operand)
		if err != nil {
			return nil, err
		}
		return BetweenExpr{Column: col, Low: low, High: high}, nil
	case OperationNotBetween:
		low, high, err := rangeOperands(op, operand)
		if err != nil {
			return nil, err
		}
		return NotBetweenExpr{Column: col, Low: low, High: high}, nil
	case OperationIs:
		// operand, if any, is ignored
		return IsNullExpr{Column: col}, nil
	case OperationIsNot:
		return NotNullExpr{Column: col}, nil
	case OperationContains:
		return ContainsExpr{Column: col, Values: operandSlice(operand)}, nil
	case OperationContainedBy:
		return ContainedByExpr{Column: col, Values: operandSlice(operand)}, nil
	case OperationOverlaps:
		return OverlapsExpr{Column: col, Values: operandSlice(operand)}, nil
	default:
		if mode == ModeLenient {
			return nil, nil
		}
		return nil, structuralf("unknown operator %q", string(op))
	}
}

// operandSlice normalizes a list operand. JSON decoding hands us []any;
// programmatic callers may pass any slice type.
func operandSlice(operand any) []any {
	if operand == nil {
		return nil
	}
	if v, ok := operand.([]any); ok {
		if len(v) == 0 {
			return nil
		}
		return v
	}
	rv := reflect.ValueOf(operand)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{operand}
	}
	if rv.Len() == 0 {
		return nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func rangeOperands(op Operation, operand any) (any, any, error) {
	values := operandSlice(operand)
	if len(values) != 2 {
		return nil, nil, structuralf("%s expects a [low, high] pair, got %d operand(s)", string(op), len(values))
	}
	return values[0], values[1], nil
}
