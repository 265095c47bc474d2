package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewWeek(t *testing.T) {
	w := NewWeek(3)

	assert.Equal(t, 3, w.Number)
	require.Len(t, w.Days, 7)
	for i, d := range w.Days {
		assert.Equal(t, Weekdays[i], d.Name)
		assert.Empty(t, d.Blocks)
		assert.True(t, d.Rest)
	}
}

func TestAssignBlock_MaterializesWeekAndClearsRest(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()

	err := p.AssignBlock(2, "Martes", blockID)
	require.NoError(t, err)

	require.Len(t, p.Weeks, 1)
	w := p.Weeks[0]
	assert.Equal(t, 2, w.Number)
	require.Len(t, w.Days, 7)

	for _, d := range w.Days {
		if d.Name == "Martes" {
			assert.Equal(t, []primitive.ObjectID{blockID}, d.Blocks)
			assert.False(t, d.Rest)
		} else {
			assert.Empty(t, d.Blocks)
			assert.True(t, d.Rest)
		}
	}
}

func TestAssignBlock_InvalidDayName(t *testing.T) {
	p := &Plan{}
	err := p.AssignBlock(1, "Monday", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrInvalidDayName)
	assert.Empty(t, p.Weeks, "failed assignment must not materialize the week")
}

func TestAssignBlock_ZeroBlockRef(t *testing.T) {
	p := &Plan{}
	err := p.AssignBlock(1, "Lunes", primitive.NilObjectID)
	assert.ErrorIs(t, err, ErrInvalidBlockRef)
}

func TestAssignBlock_DuplicateOnSameDay(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()

	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))
	err := p.AssignBlock(1, "Lunes", blockID)
	assert.ErrorIs(t, err, ErrBlockAlreadyAssigned)

	// The first reference is still there, exactly once.
	day := p.Weeks[0].Days[0]
	assert.Equal(t, "Lunes", day.Name)
	assert.Equal(t, []primitive.ObjectID{blockID}, day.Blocks)
}

func TestAssignBlock_SameBlockDifferentDays(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()

	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))
	require.NoError(t, p.AssignBlock(1, "Jueves", blockID))
	require.NoError(t, p.AssignBlock(2, "Lunes", blockID))

	assert.Equal(t, 3, p.TotalBlocks())
}

func TestAssignBlock_WeeksStaySorted(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()

	require.NoError(t, p.AssignBlock(4, "Lunes", blockID))
	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))
	require.NoError(t, p.AssignBlock(3, "Lunes", blockID))

	require.Len(t, p.Weeks, 3)
	assert.Equal(t, 1, p.Weeks[0].Number)
	assert.Equal(t, 3, p.Weeks[1].Number)
	assert.Equal(t, 4, p.Weeks[2].Number)
}

func TestAssignBlock_RepairsLegacyDayGaps(t *testing.T) {
	// Documents written before eager materialization may hold sparse,
	// unordered day lists with duplicate refs.
	blockID := primitive.NewObjectID()
	dup := primitive.NewObjectID()
	p := &Plan{Weeks: []Week{{
		Number: 1,
		Days: []Day{
			{Name: "Viernes", Blocks: []primitive.ObjectID{dup, dup, primitive.NilObjectID}, Rest: false},
		},
	}}}

	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))

	w := p.Weeks[0]
	require.Len(t, w.Days, 2)
	assert.Equal(t, "Lunes", w.Days[0].Name, "days re-sorted into canonical order")
	assert.Equal(t, "Viernes", w.Days[1].Name)
	assert.Equal(t, []primitive.ObjectID{dup}, w.Days[1].Blocks, "dup and zero refs pruned")
}

func TestRemoveBlock_WeekWideAndRestoresRest(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))
	require.NoError(t, p.AssignBlock(1, "Miércoles", blockID))
	require.NoError(t, p.AssignBlock(1, "Miércoles", other))

	require.NoError(t, p.RemoveBlock(1, blockID))

	w := p.Weeks[0]
	lunes := w.Days[WeekdayIndex("Lunes")]
	miercoles := w.Days[WeekdayIndex("Miércoles")]
	assert.Empty(t, lunes.Blocks)
	assert.True(t, lunes.Rest, "emptied day reverts to rest")
	assert.Equal(t, []primitive.ObjectID{other}, miercoles.Blocks)
	assert.False(t, miercoles.Rest)
}

func TestRemoveBlock_WeekNotFound(t *testing.T) {
	p := &Plan{}
	err := p.RemoveBlock(9, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestRemoveBlock_AbsentBlockIsNoOp(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()
	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))

	require.NoError(t, p.RemoveBlock(1, primitive.NewObjectID()))
	assert.Equal(t, 1, p.TotalBlocks())
}

func TestPruneRefs(t *testing.T) {
	p := &Plan{}
	kept := primitive.NewObjectID()
	gone := primitive.NewObjectID()

	require.NoError(t, p.AssignBlock(1, "Lunes", kept))
	require.NoError(t, p.AssignBlock(1, "Lunes", gone))
	require.NoError(t, p.AssignBlock(2, "Martes", gone))

	pruned := p.PruneRefs(func(id primitive.ObjectID) bool { return id == kept })

	assert.Equal(t, 2, pruned)
	assert.Equal(t, []primitive.ObjectID{kept}, p.BlockRefs())

	martes := p.Weeks[1].Days[WeekdayIndex("Martes")]
	assert.True(t, martes.Rest, "day emptied by pruning reverts to rest")
}

func TestPruneRefs_CleanPlanUntouched(t *testing.T) {
	p := &Plan{}
	blockID := primitive.NewObjectID()
	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))

	pruned := p.PruneRefs(func(primitive.ObjectID) bool { return true })
	assert.Zero(t, pruned)
	assert.Equal(t, 1, p.TotalBlocks())
}

func TestNormalizeWeeks(t *testing.T) {
	blockID := primitive.NewObjectID()
	weeks := []Week{
		{Number: 2, Days: []Day{{Name: "Viernes", Blocks: []primitive.ObjectID{blockID, blockID}}}},
		{Number: 1, Days: []Day{
			{Name: "Martes", Blocks: []primitive.ObjectID{blockID}},
			{Name: "Lunes"},
		}},
	}

	out, err := NormalizeWeeks(weeks)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Number, "weeks sorted by number")
	assert.Equal(t, "Lunes", out[0].Days[0].Name, "days in canonical order")
	assert.Equal(t, "Martes", out[0].Days[1].Name)
	assert.True(t, out[0].Days[0].Rest)
	assert.False(t, out[0].Days[1].Rest)
	assert.Equal(t, []primitive.ObjectID{blockID}, out[1].Days[0].Blocks, "duplicate refs deduplicated")

	// Input slice must not be modified.
	assert.Equal(t, 2, weeks[0].Number)
	assert.Len(t, weeks[0].Days[0].Blocks, 2)
}

func TestNormalizeWeeks_Rejections(t *testing.T) {
	_, err := NormalizeWeeks([]Week{{Number: 0}})
	assert.ErrorIs(t, err, ErrInvalidWeekNumber)

	_, err = NormalizeWeeks([]Week{{Number: 1}, {Number: 1}})
	assert.ErrorIs(t, err, ErrDuplicateWeek)

	_, err = NormalizeWeeks([]Week{{Number: 1, Days: []Day{{Name: "Monday"}}}})
	assert.ErrorIs(t, err, ErrInvalidDayName)

	_, err = NormalizeWeeks([]Week{{Number: 1, Days: []Day{{Name: "Lunes"}, {Name: "Lunes"}}}})
	assert.ErrorIs(t, err, ErrDuplicateDay)
}

func TestBlockRefs_DedupedTraversalOrder(t *testing.T) {
	p := &Plan{}
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	require.NoError(t, p.AssignBlock(1, "Martes", a))
	require.NoError(t, p.AssignBlock(1, "Viernes", b))
	require.NoError(t, p.AssignBlock(2, "Lunes", a))

	assert.Equal(t, []primitive.ObjectID{a, b}, p.BlockRefs())
}

func TestPlanCounters(t *testing.T) {
	p := &Plan{Weeks: []Week{NewWeek(1), NewWeek(2)}}
	blockID := primitive.NewObjectID()
	require.NoError(t, p.AssignBlock(1, "Lunes", blockID))

	assert.Equal(t, 1, p.TotalBlocks())
	assert.Equal(t, 14, p.TotalDays())
	assert.Equal(t, 13, p.TotalRestDays())
}
