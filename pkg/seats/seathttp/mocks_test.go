package seathttp_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/seatshare/pkg/seats"
)

// MockService is a mock implementation of seats.Service.
type MockService struct {
	mock.Mock
}

var _ seats.Service = (*MockService)(nil)

func (m *MockService) CreateInvite(ctx context.Context, cmd seats.CreateInviteCommand) (seats.InviteSummary, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(seats.InviteSummary), args.Error(1)
}

func (m *MockService) RevokeInvite(ctx context.Context, cmd seats.RevokeInviteCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

func (m *MockService) AcceptInvite(ctx context.Context, cmd seats.AcceptInviteCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

func (m *MockService) RemoveMember(ctx context.Context, cmd seats.RemoveMemberCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

func (m *MockService) LeaveFamily(ctx context.Context, cmd seats.LeaveFamilyCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

func (m *MockService) GetFamilyView(ctx context.Context, accountID uuid.UUID) (seats.FamilyView, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(seats.FamilyView), args.Error(1)
}

func (m *MockService) RegisterAccount(ctx context.Context, cmd seats.RegisterAccountCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

func (m *MockService) ApplyPlanChange(ctx context.Context, cmd seats.PlanChangeCommand) (seats.CascadeResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(seats.CascadeResult), args.Error(1)
}

func (m *MockService) CancelPlan(ctx context.Context, ownerID uuid.UUID) (seats.CascadeResult, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(seats.CascadeResult), args.Error(1)
}

func (m *MockService) ExpireTrial(ctx context.Context, ownerID uuid.UUID, now time.Time) (seats.CascadeResult, error) {
	args := m.Called(ctx, ownerID, now)
	return args.Get(0).(seats.CascadeResult), args.Error(1)
}

func (m *MockService) SweepExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockService) SweepExpiredTrials(ctx context.Context, now time.Time) (seats.TrialSweepReport, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(seats.TrialSweepReport), args.Error(1)
}
