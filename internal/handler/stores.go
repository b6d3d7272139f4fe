package handler

import (
	"context"
	"time"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
)

// The interfaces below are the slices of the repositories each handler
// uses.  The *repository types satisfy them.

type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
	SetActive(ctx context.Context, id uint64, active bool) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
}

type RoomStore interface {
	Create(ctx context.Context, room *model.ExamRoom) error
	GetByID(ctx context.Context, id string) (*model.ExamRoom, error)
	List(ctx context.Context) ([]*model.ExamRoom, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.ExamRoom, error)
	Update(ctx context.Context, room *model.ExamRoom) error
	Delete(ctx context.Context, id string) error
}

type ExamineeStore interface {
	List(ctx context.Context, limit, offset int) ([]model.Examinee, error)
	Count(ctx context.Context) (int, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]model.Examinee, error)
	CreateBulk(ctx context.Context, es []model.Examinee) (int, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *model.ExamSession) error
	GetByID(ctx context.Context, id string) (*model.ExamSession, error)
	List(ctx context.Context) ([]*model.ExamSession, error)
	Update(ctx context.Context, s *model.ExamSession) error
	Delete(ctx context.Context, id string) error
}

type PlanStore interface {
	SaveAllocation(ctx context.Context, p *model.SeatingPlan, seats []model.SeatAssignment) error
	GetByID(ctx context.Context, id string) (*model.SeatingPlan, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.SeatingPlan, error)
	List(ctx context.Context) ([]*model.SeatingPlan, error)
	Delete(ctx context.Context, id string) error
	ListAssignments(ctx context.Context, planID string) ([]model.SeatListing, error)
	SearchAssignments(ctx context.Context, planID string, f repository.AssignmentFilter) ([]model.SeatListing, error)
}

type StatsStore interface {
	Totals(ctx context.Context) (repository.DashboardStats, error)
	RoomUsage(ctx context.Context) ([]repository.RoomUsage, error)
}

// EventPublisher delivers plan events to the broker.
type EventPublisher interface {
	PublishPlanCreated(ctx context.Context, ev queue.PlanCreatedEvent) error
}

// CachePurger drops cached responses after writes.
type CachePurger interface {
	Purge(ctx context.Context) error
}

var (
	_ UserStore     = (*repository.UserRepo)(nil)
	_ TokenStore    = (*repository.TokenRepo)(nil)
	_ RoomStore     = (*repository.RoomRepo)(nil)
	_ ExamineeStore = (*repository.ExamineeRepo)(nil)
	_ SessionStore  = (*repository.SessionRepo)(nil)
	_ PlanStore     = (*repository.PlanRepo)(nil)
	_ StatsStore    = (*repository.StatsRepo)(nil)
)
