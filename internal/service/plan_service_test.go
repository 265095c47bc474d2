package service

import (
	"context"
	"strings"
	"testing"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPlanServiceForTest() (PlanService, *fakePlanRepo, *fakeBlockRepo) {
	planRepo := newFakePlanRepo()
	blockRepo := newFakeBlockRepo()
	return NewPlanService(planRepo, blockRepo), planRepo, blockRepo
}

func testCoach() *domain.User {
	return &domain.User{
		ID:    primitive.NewObjectID(),
		Name:  "Nahuel",
		Email: "nahuel@rf.uy",
		Role:  domain.RoleCoach,
	}
}

func seedBlock(t *testing.T, blockRepo *fakeBlockRepo) primitive.ObjectID {
	t.Helper()
	id, err := blockRepo.Create(context.Background(), &domain.Block{
		Title: "bloque", Kind: domain.BlockKindText, TextContent: "x",
	})
	require.NoError(t, err)
	return id
}

func TestCreatePlan(t *testing.T) {
	svc, _, _ := newPlanServiceForTest()
	coach := testCoach()

	plan, err := svc.CreatePlan(context.Background(), coach, CreatePlanInput{
		Title:     "Hipertrofia 4 semanas",
		Type:      domain.TypeHipertrofia,
		WeekCount: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryBasic, plan.Category, "category defaults to basica")
	require.Len(t, plan.Weeks, 4)
	for i, w := range plan.Weeks {
		assert.Equal(t, i+1, w.Number)
		assert.Len(t, w.Days, 7)
	}
	assert.Equal(t, coach.ID, plan.CreatedBy)
	assert.Equal(t, domain.CreatorSnapshot{Name: "Nahuel", Email: "nahuel@rf.uy", Role: domain.RoleCoach}, plan.Creator)
	assert.Equal(t, 28, plan.TotalRestDays(), "every materialized day starts as rest")
}

func TestCreatePlan_Validation(t *testing.T) {
	svc, _, _ := newPlanServiceForTest()

	_, err := svc.CreatePlan(context.Background(), testCoach(), CreatePlanInput{
		Title:       strings.Repeat("x", 101),
		Description: strings.Repeat("y", 501),
		Type:        "yoga",
		Category:    "premium",
		WeekCount:   -1,
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 5)
}

func TestAssignBlock(t *testing.T) {
	svc, planRepo, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)

	updated, err := svc.AssignBlock(ctx, plan.ID, 2, "Miércoles", blockID)
	require.NoError(t, err)

	require.Len(t, updated.Weeks, 1)
	assert.Equal(t, 2, updated.Weeks[0].Number)
	day := updated.Weeks[0].Days[domain.WeekdayIndex("Miércoles")]
	assert.Equal(t, []primitive.ObjectID{blockID}, day.Blocks)
	assert.False(t, day.Rest)

	// The stored aggregate matches what was returned.
	stored, err := planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Weeks, stored.Weeks)
}

func TestAssignBlock_Errors(t *testing.T) {
	svc, _, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)

	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Monday", blockID)
	assert.ErrorIs(t, err, domain.ErrInvalidDayName)

	_, err = svc.AssignBlock(ctx, plan.ID, 0, "Lunes", blockID)
	assert.ErrorIs(t, err, domain.ErrInvalidWeekNumber)

	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrBlockNotFound, "block must exist at assignment time")

	_, err = svc.AssignBlock(ctx, primitive.NewObjectID(), 1, "Lunes", blockID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	assert.ErrorIs(t, err, domain.ErrBlockAlreadyAssigned)
}

func TestAssignBlock_FailedMutationLeavesPlanUntouched(t *testing.T) {
	svc, planRepo, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	require.NoError(t, err)

	before, err := planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)

	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	require.ErrorIs(t, err, domain.ErrBlockAlreadyAssigned)

	after, err := planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Weeks, after.Weeks, "aborted transaction must not change stored state")
}

func TestRemoveBlock(t *testing.T) {
	svc, _, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Jueves", blockID)
	require.NoError(t, err)

	updated, err := svc.RemoveBlock(ctx, plan.ID, 1, blockID)
	require.NoError(t, err)

	assert.Empty(t, updated.BlockRefs(), "removal is week wide")
	assert.Equal(t, 7, updated.TotalRestDays())

	_, err = svc.RemoveBlock(ctx, plan.ID, 5, blockID)
	assert.ErrorIs(t, err, domain.ErrWeekNotFound)
}

func TestEditMetadata(t *testing.T) {
	svc, _, _ := newPlanServiceForTest()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)

	_, err = svc.EditMetadata(ctx, plan.ID, PlanPatch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)

	title := "Nuevo título"
	typ := domain.TypeRunning
	updated, err := svc.EditMetadata(ctx, plan.ID, PlanPatch{Title: &title, Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo título", updated.Title)
	assert.Equal(t, domain.TypeRunning, updated.Type)

	bad := ""
	_, err = svc.EditMetadata(ctx, plan.ID, PlanPatch{Title: &bad})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.EditMetadata(ctx, primitive.NewObjectID(), PlanPatch{Title: &title})
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestEditMetadata_WeeksReplacement(t *testing.T) {
	svc, _, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza, WeekCount: 3})
	require.NoError(t, err)

	weeks := []domain.Week{
		{Number: 1, Days: []domain.Day{
			{Name: "Viernes", Blocks: []primitive.ObjectID{blockID, blockID}},
			{Name: "Lunes"},
		}},
	}
	updated, err := svc.EditMetadata(ctx, plan.ID, PlanPatch{Weeks: &weeks})
	require.NoError(t, err)

	require.Len(t, updated.Weeks, 1, "replacement discards the previous structure")
	days := updated.Weeks[0].Days
	require.Len(t, days, 2)
	assert.Equal(t, "Lunes", days[0].Name)
	assert.True(t, days[0].Rest)
	assert.Equal(t, []primitive.ObjectID{blockID}, days[1].Blocks, "duplicates deduplicated")

	badWeeks := []domain.Week{{Number: 1}, {Number: 1}}
	_, err = svc.EditMetadata(ctx, plan.ID, PlanPatch{Weeks: &badWeeks})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestGetPlanProjection(t *testing.T) {
	svc, planRepo, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)
	ghostID := primitive.NewObjectID() // never stored

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza, WeekCount: 1})
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	require.NoError(t, err)

	// Inject a dangling reference behind the service's back.
	_, err = planRepo.UpdateWithinTransaction(ctx, plan.ID, func(p *domain.Plan) error {
		day := &p.Weeks[0].Days[domain.WeekdayIndex("Martes")]
		day.Blocks = append(day.Blocks, ghostID)
		day.Rest = false
		return nil
	})
	require.NoError(t, err)

	projection, err := svc.GetPlanProjection(ctx, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, projection.TotalBlocks, "dangling reference not counted")
	assert.Equal(t, 7, projection.TotalDays)

	lunes := projection.Weeks[0].Days[domain.WeekdayIndex("Lunes")]
	require.Len(t, lunes.Blocks, 1)
	assert.Equal(t, blockID, lunes.Blocks[0].ID)

	martes := projection.Weeks[0].Days[domain.WeekdayIndex("Martes")]
	assert.Empty(t, martes.Blocks, "dangling reference skipped in the view")
	assert.True(t, martes.Rest, "a day with nothing resolvable reads as rest")
	assert.Equal(t, 6, projection.TotalRestDays)

	// The stored document still holds the dangling ref; projection is read only.
	stored, err := planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.BlockRefs(), ghostID)
}

func TestSweepDanglingRefs(t *testing.T) {
	svc, planRepo, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	keptID := seedBlock(t, blockRepo)
	goneID := seedBlock(t, blockRepo)

	planA, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "A", Type: domain.TypeFuerza})
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, planA.ID, 1, "Lunes", keptID)
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, planA.ID, 1, "Martes", goneID)
	require.NoError(t, err)

	planB, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "B", Type: domain.TypeGap})
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, planB.ID, 1, "Viernes", goneID)
	require.NoError(t, err)

	// Simulate a block deletion whose cascade purge never ran.
	require.NoError(t, blockRepo.Delete(ctx, goneID))

	pruned, err := svc.SweepDanglingRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	a, err := planRepo.GetByID(ctx, planA.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{keptID}, a.BlockRefs())
	martes := a.Weeks[0].Days[domain.WeekdayIndex("Martes")]
	assert.True(t, martes.Rest, "emptied day settled back to rest")

	b, err := planRepo.GetByID(ctx, planB.ID)
	require.NoError(t, err)
	assert.Empty(t, b.BlockRefs())

	// Idempotent: a second pass finds nothing.
	pruned, err = svc.SweepDanglingRefs(ctx)
	require.NoError(t, err)
	assert.Zero(t, pruned)
}

func TestSweepDanglingRefs_RepairsStaleRestFlags(t *testing.T) {
	svc, planRepo, blockRepo := newPlanServiceForTest()
	ctx := context.Background()
	blockID := seedBlock(t, blockRepo)

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)
	_, err = svc.AssignBlock(ctx, plan.ID, 1, "Lunes", blockID)
	require.NoError(t, err)

	// Legacy documents can carry an empty day still marked as training,
	// written before rest settlement followed every mutation.
	require.NoError(t, blockRepo.Delete(ctx, blockID))
	_, err = planRepo.UpdateWithinTransaction(ctx, plan.ID, func(p *domain.Plan) error {
		lunes := &p.Weeks[0].Days[domain.WeekdayIndex("Lunes")]
		lunes.Blocks = nil
		lunes.Rest = false
		return nil
	})
	require.NoError(t, err)

	stored, err := planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	lunes := stored.Weeks[0].Days[domain.WeekdayIndex("Lunes")]
	require.Empty(t, lunes.Blocks)
	require.False(t, lunes.Rest, "precondition: empty day carrying a stale flag")

	_, err = svc.SweepDanglingRefs(ctx)
	require.NoError(t, err)

	repaired, err := planRepo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, repaired.Weeks[0].Days[domain.WeekdayIndex("Lunes")].Rest)
}

func TestDeletePlan(t *testing.T) {
	svc, planRepo, _ := newPlanServiceForTest()
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, testCoach(), CreatePlanInput{Title: "p", Type: domain.TypeFuerza})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlan(ctx, plan.ID))
	assert.Empty(t, planRepo.plans)

	assert.ErrorIs(t, svc.DeletePlan(ctx, plan.ID), ErrPlanNotFound)
}

func TestListPlans_Filter(t *testing.T) {
	svc, _, _ := newPlanServiceForTest()
	ctx := context.Background()
	coach := testCoach()

	_, err := svc.CreatePlan(ctx, coach, CreatePlanInput{Title: "a", Type: domain.TypeFuerza})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, coach, CreatePlanInput{Title: "b", Type: domain.TypeRunning})
	require.NoError(t, err)

	typ := domain.TypeRunning
	plans, err := svc.ListPlans(ctx, repository.PlanFilter{Type: &typ})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "b", plans[0].Title)
}
