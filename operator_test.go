package sift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateComparisons(t *testing.T) {
	col := Col("price")

	e, err := Translate(col, OperationEq, 10, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, EqExpr{Column: col, Value: 10}, e)

	e, err = Translate(col, OperationGte, 5, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, GteExpr{Column: col, Value: 5}, e)

	e, err = Translate(col, OperationNeq, "x", ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, NeqExpr{Column: col, Value: "x"}, e)
}

func TestTranslateNullComparisons(t *testing.T) {
	col := Col("deleted_at")

	e, err := Translate(col, OperationEq, nil, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, IsNullExpr{Column: col}, e)

	e, err = Translate(col, OperationNeq, nil, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, NotNullExpr{Column: col}, e)

	// is/isn ignore their operand entirely
	e, err = Translate(col, OperationIs, "ignored", ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, IsNullExpr{Column: col}, e)

	e, err = Translate(col, OperationIsNot, nil, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, NotNullExpr{Column: col}, e)
}

func TestTranslateEmptyInMatchesNothing(t *testing.T) {
	e, err := Translate(Col("status"), OperationInq, []any{}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, FalseExpr{}, e)

	e, err = Translate(Col("status"), OperationIn, nil, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, FalseExpr{}, e)
}

func TestTranslateEmptyNinKeepsNonNullRows(t *testing.T) {
	e, err := Translate(Col("status"), OperationNin, []any{}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, NotInExpr{Column: Col("status")}, e)

	// the SQL rendering makes the NULL exclusion explicit
	frag, args := exprToSQL(e)
	assert.Equal(t, "`status` IS NOT NULL", frag)
	assert.Empty(t, args)
}

func TestTranslateListOperandNormalization(t *testing.T) {
	e, err := Translate(Col("id"), OperationInq, []int{1, 2, 3}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, InExpr{Column: Col("id"), Values: []any{1, 2, 3}}, e)

	// a scalar operand still builds a one-element membership test
	e, err = Translate(Col("id"), OperationInq, 7, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, InExpr{Column: Col("id"), Values: []any{7}}, e)
}

func TestTranslateBetween(t *testing.T) {
	e, err := Translate(Col("price"), OperationBetween, []any{10, 20}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, BetweenExpr{Column: Col("price"), Low: 10, High: 20}, e)

	_, err = Translate(Col("price"), OperationBetween, []any{10}, ModeStrict)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)

	// a malformed range is a shape error even in lenient mode
	_, err = Translate(Col("price"), OperationNotBetween, "oops", ModeLenient)
	require.ErrorAs(t, err, &serr)
}

func TestTranslateUnknownOperator(t *testing.T) {
	_, err := Translate(Col("x"), Operation("regexp"), ".*", ModeStrict)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "regexp")

	e, err := Translate(Col("x"), Operation("regexp"), ".*", ModeLenient)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestTranslateArrayOperators(t *testing.T) {
	e, err := Translate(Col("tags"), OperationContains, []any{"go", "db"}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, ContainsExpr{Column: Col("tags"), Values: []any{"go", "db"}}, e)

	e, err = Translate(Col("tags"), OperationContainedBy, []any{"go"}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, ContainedByExpr{Column: Col("tags"), Values: []any{"go"}}, e)

	e, err = Translate(Col("tags"), OperationOverlaps, []any{"go"}, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, OverlapsExpr{Column: Col("tags"), Values: []any{"go"}}, e)
}
