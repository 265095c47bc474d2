package service

import (
	"context"
	"testing"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCommentServiceForTest(t *testing.T) (CommentService, primitive.ObjectID) {
	t.Helper()
	commentRepo := newFakeCommentRepo()
	planRepo := newFakePlanRepo()
	planID, err := planRepo.Create(context.Background(), &domain.Plan{
		Title: "p", Type: domain.TypeFuerza, Category: domain.CategoryBasic,
	})
	require.NoError(t, err)
	return NewCommentService(commentRepo, planRepo), planID
}

func intPtr(v int) *int { return &v }

func TestAddComment(t *testing.T) {
	svc, planID := newCommentServiceForTest(t)
	authorID := primitive.NewObjectID()
	blockID := primitive.NewObjectID()

	comment, err := svc.AddComment(context.Background(), authorID, planID, "¿Cuántas series?", intPtr(2), &blockID)
	require.NoError(t, err)

	assert.False(t, comment.ID.IsZero())
	assert.Equal(t, planID, comment.PlanID)
	assert.Equal(t, 2, *comment.WeekNumber)
	assert.Equal(t, blockID, *comment.BlockID)
	assert.Nil(t, comment.Reply)
}

func TestAddComment_Validation(t *testing.T) {
	svc, planID := newCommentServiceForTest(t)
	ctx := context.Background()
	authorID := primitive.NewObjectID()

	_, err := svc.AddComment(ctx, authorID, planID, "", nil, nil)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.AddComment(ctx, authorID, planID, "hola", intPtr(0), nil)
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.AddComment(ctx, authorID, primitive.NewObjectID(), "hola", nil, nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestReplyToComment_SingleReplyOnly(t *testing.T) {
	svc, planID := newCommentServiceForTest(t)
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	comment, err := svc.AddComment(ctx, primitive.NewObjectID(), planID, "duda", nil, nil)
	require.NoError(t, err)

	replied, err := svc.ReplyToComment(ctx, coachID, comment.ID, "respuesta")
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, coachID, replied.Reply.AuthorID)

	_, err = svc.ReplyToComment(ctx, coachID, comment.ID, "otra")
	assert.ErrorIs(t, err, ErrAlreadyReplied)

	_, err = svc.ReplyToComment(ctx, coachID, primitive.NewObjectID(), "hola")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestDeleteComment_OwnershipRules(t *testing.T) {
	svc, planID := newCommentServiceForTest(t)
	ctx := context.Background()

	author := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleClient}
	stranger := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleCoach}
	admin := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}

	first, err := svc.AddComment(ctx, author.ID, planID, "uno", nil, nil)
	require.NoError(t, err)
	second, err := svc.AddComment(ctx, author.ID, planID, "dos", nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteComment(ctx, stranger, first.ID), ErrCommentAccessDenied)
	assert.NoError(t, svc.DeleteComment(ctx, author, first.ID))
	assert.NoError(t, svc.DeleteComment(ctx, admin, second.ID))

	remaining, err := svc.ListByPlan(ctx, planID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
