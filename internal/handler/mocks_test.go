package handler

import (
	"context"
	"io"
	"time"

	"admin_panel/internal/filestore"
	"admin_panel/internal/model"
	"admin_panel/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserService) CreateUser(ctx context.Context, req model.CreateUserRequest, files service.Uploads) (*model.User, error) {
	args := m.Called(ctx, req, files)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest, files service.Uploads) (*model.User, error) {
	args := m.Called(ctx, id, req, files)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserService) OpenUserFile(ctx context.Context, id int64, slot filestore.Slot) (io.ReadCloser, string, error) {
	args := m.Called(ctx, id, slot)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.String(1), args.Error(2)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req model.CreateUserRequest, files service.Uploads) (*model.User, error) {
	args := m.Called(ctx, req, files)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*model.User)
	return user, args.String(1), args.Error(2)
}

func (m *mockAuthService) AdminLogin(ctx context.Context, username, password string) (*model.Admin, string, error) {
	args := m.Called(ctx, username, password)
	admin, _ := args.Get(0).(*model.Admin)
	return admin, args.String(1), args.Error(2)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	args := m.Called(ctx, token)
	p, _ := args.Get(0).(*model.Principal)
	return p, args.Error(1)
}

func (m *mockAuthService) EnsureAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	args := m.Called(ctx, username, password)
	admin, _ := args.Get(0).(*model.Admin)
	return admin, args.Error(1)
}

func (m *mockAuthService) SessionTTL() time.Duration {
	return 30 * time.Minute
}
