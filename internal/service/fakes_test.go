package service

import (
	"context"
	"strings"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/domain"
	"github.com/nahuelmieres/rf-online-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the Mongo implementations'
// observable behavior, including which sentinel errors they return.

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}
	id := primitive.NewObjectID()
	u := *user
	u.ID = id
	u.CreatedAt = time.Now().UTC()
	r.users[id] = u
	return id, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.PaymentActive != nil && u.PaymentActive != *filter.PaymentActive {
			continue
		}
		if filter.Search != "" {
			// Literal, case-insensitive substring over name and email,
			// matching the quoted regex the real repository builds.
			term := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(u.Name), term) &&
				!strings.Contains(strings.ToLower(u.Email), term) {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) SetPersonalPlan(_ context.Context, userID, planID primitive.ObjectID) error {
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PersonalPlanID = &planID
	r.users[userID] = u
	return nil
}

// --- blocks ---

type fakeBlockRepo struct {
	blocks map[primitive.ObjectID]domain.Block
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[primitive.ObjectID]domain.Block)}
}

func (r *fakeBlockRepo) Create(_ context.Context, block *domain.Block) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	b := *block
	b.ID = id
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	r.blocks[id] = b
	return id, nil
}

func (r *fakeBlockRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Block, error) {
	b, ok := r.blocks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := b
	return &out, nil
}

func (r *fakeBlockRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Block, error) {
	var out []domain.Block
	for _, id := range ids {
		if b, ok := r.blocks[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) List(_ context.Context, filter repository.BlockFilter) ([]domain.Block, error) {
	var out []domain.Block
	for _, b := range r.blocks {
		if filter.CreatedBy != nil && b.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Kind != nil && b.Kind != *filter.Kind {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBlockRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.blocks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.blocks, id)
	return nil
}

// --- plans ---

type fakePlanRepo struct {
	plans   map[primitive.ObjectID]domain.Plan
	pullErr error // injected PullBlockRefs failure
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]domain.Plan)}
}

func clonePlan(p domain.Plan) domain.Plan {
	out := p
	out.Weeks = make([]domain.Week, len(p.Weeks))
	for i, w := range p.Weeks {
		nw := domain.Week{Number: w.Number, Days: make([]domain.Day, len(w.Days))}
		for j, d := range w.Days {
			nd := d
			nd.Blocks = append([]primitive.ObjectID{}, d.Blocks...)
			nw.Days[j] = nd
		}
		out.Weeks[i] = nw
	}
	return out
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	p := clonePlan(*plan)
	p.ID = id
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.plans[id] = p
	return id, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clonePlan(p)
	return &out, nil
}

func (r *fakePlanRepo) List(_ context.Context, filter repository.PlanFilter) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, p := range r.plans {
		if filter.CreatedBy != nil && p.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Type != nil && p.Type != *filter.Type {
			continue
		}
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		out = append(out, clonePlan(p))
	}
	return out, nil
}

func (r *fakePlanRepo) UpdateWithinTransaction(_ context.Context, id primitive.ObjectID, mutate func(*domain.Plan) error) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := clonePlan(p)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	r.plans[id] = clonePlan(working)
	return &working, nil
}

func (r *fakePlanRepo) UpdateMetadata(_ context.Context, id primitive.ObjectID, set map[string]interface{}) error {
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := set["title"]; ok {
		p.Title = v.(string)
	}
	if v, ok := set["description"]; ok {
		p.Description = v.(string)
	}
	if v, ok := set["type"]; ok {
		p.Type = v.(domain.TrainingType)
	}
	if v, ok := set["category"]; ok {
		p.Category = v.(domain.PlanCategory)
	}
	p.UpdatedAt = time.Now().UTC()
	r.plans[id] = p
	return nil
}

func (r *fakePlanRepo) SetAssignedUser(_ context.Context, planID, userID primitive.ObjectID) error {
	p, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	p.AssignedUserID = &userID
	r.plans[planID] = p
	return nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

// PullBlockRefs mimics the production two-step update: references vanish,
// then every day left without blocks flips back to rest.
func (r *fakePlanRepo) PullBlockRefs(_ context.Context, blockID primitive.ObjectID) error {
	if r.pullErr != nil {
		return r.pullErr
	}
	for id, p := range r.plans {
		for wi := range p.Weeks {
			for di := range p.Weeks[wi].Days {
				d := &p.Weeks[wi].Days[di]
				kept := make([]primitive.ObjectID, 0, len(d.Blocks))
				for _, ref := range d.Blocks {
					if ref != blockID {
						kept = append(kept, ref)
					}
				}
				d.Blocks = kept
				if len(d.Blocks) == 0 {
					d.Rest = true
				}
			}
		}
		r.plans[id] = p
	}
	return nil
}

// --- comments ---

type fakeCommentRepo struct {
	comments map[primitive.ObjectID]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[primitive.ObjectID]domain.Comment)}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	c := *comment
	c.ID = id
	c.CreatedAt = time.Now().UTC()
	r.comments[id] = c
	return id, nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := c
	return &out, nil
}

func (r *fakeCommentRepo) ListByPlan(_ context.Context, planID primitive.ObjectID) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range r.comments {
		if c.PlanID == planID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) SetReply(_ context.Context, id primitive.ObjectID, reply *domain.CommentReply) error {
	c, ok := r.comments[id]
	if !ok || c.Reply != nil {
		// Mirrors the conditional update filter: a second reply matches nothing.
		return repository.ErrUpdateFailed
	}
	c.Reply = reply
	r.comments[id] = c
	return nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

// --- reservations ---

type fakeReservationRepo struct {
	reservations map[primitive.ObjectID]domain.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[primitive.ObjectID]domain.Reservation)}
}

func (r *fakeReservationRepo) Create(_ context.Context, res *domain.Reservation) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	re := *res
	re.ID = id
	re.CreatedAt = time.Now().UTC()
	re.UpdatedAt = re.CreatedAt
	r.reservations[id] = re
	return id, nil
}

func (r *fakeReservationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Reservation, error) {
	re, ok := r.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := re
	return &out, nil
}

func (r *fakeReservationRepo) GetActiveByUserAndSlot(_ context.Context, userID primitive.ObjectID, slot time.Time) (*domain.Reservation, error) {
	for _, re := range r.reservations {
		if re.UserID == userID && re.Date.Equal(slot) && re.Status == domain.ReservationActive {
			out := re
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReservationRepo) CountActiveInSlot(_ context.Context, slot time.Time, typ domain.ReservationType, branch domain.Branch) (int64, error) {
	var n int64
	for _, re := range r.reservations {
		if re.Date.Equal(slot) && re.Type == typ && re.Branch == branch && re.Status == domain.ReservationActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeReservationRepo) ListActiveInRange(_ context.Context, from, to time.Time, branch domain.Branch) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, re := range r.reservations {
		if re.Branch != branch || re.Status != domain.ReservationActive {
			continue
		}
		if re.Date.Before(from) || re.Date.After(to) {
			continue
		}
		out = append(out, re)
	}
	return out, nil
}

func (r *fakeReservationRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, re := range r.reservations {
		if re.UserID == userID {
			out = append(out, re)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) Cancel(_ context.Context, id, userID primitive.ObjectID) error {
	re, ok := r.reservations[id]
	if !ok || re.UserID != userID || re.Status != domain.ReservationActive {
		return repository.ErrNotFound
	}
	re.Status = domain.ReservationCancelled
	r.reservations[id] = re
	return nil
}
