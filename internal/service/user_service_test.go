package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"admin_panel/internal/filestore"
	"admin_panel/internal/model"
	"admin_panel/internal/repository"
	"admin_panel/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T, removeFiles bool) (*userService, *mockUserRepo, *filestore.LocalStore) {
	t.Helper()
	store, err := filestore.NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	repo := new(mockUserRepo)
	svc := NewUserService(repo, store, removeFiles).(*userService)
	return svc, repo, store
}

func validCreateRequest() model.CreateUserRequest {
	return model.CreateUserRequest{
		Name:        "Ada",
		Email:       " Ada@Example.com ",
		Password:    "secret",
		Address:     "1 Main St",
		PhoneNumber: "555-0100",
	}
}

func exists(t *testing.T, store filestore.Store, slot filestore.Slot, name string) bool {
	t.Helper()
	ok, err := store.Exists(context.Background(), slot, name)
	require.NoError(t, err)
	return ok
}

func TestCreateUser_StoresFilesAndHashesPassword(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, false)

	repo.On("FindByEmail", ctx, "ada@example.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 1 }).
		Return(nil)

	files := Uploads{
		ProfilePic:      fileHeader(t, "profile_pic", "me.png", []byte("png")),
		DescriptionFile: fileHeader(t, "description_file", "cv.pdf", []byte("pdf")),
	}
	user, err := svc.CreateUser(ctx, validCreateRequest(), files)
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("secret", user.PasswordHash))
	require.NotNil(t, user.ProfilePic)
	require.NotNil(t, user.DescriptionFile)
	assert.Equal(t, "me.png", *user.ProfilePic)
	assert.Equal(t, "cv.pdf", *user.DescriptionFile)
	assert.True(t, exists(t, store, filestore.SlotPicture, "me.png"))
	assert.True(t, exists(t, store, filestore.SlotDocument, "cv.pdf"))
	repo.AssertExpectations(t)
}

func TestCreateUser_MissingFields(t *testing.T) {
	svc, repo, _ := newTestUserService(t, false)

	req := validCreateRequest()
	req.PhoneNumber = "  "
	req.Email = ""

	_, err := svc.CreateUser(context.Background(), req, Uploads{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "phone_number")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, false)

	repo.On("FindByEmail", ctx, "ada@example.com").Return(&model.User{ID: 9}, nil)

	files := Uploads{ProfilePic: fileHeader(t, "profile_pic", "me.png", []byte("png"))}
	_, err := svc.CreateUser(ctx, validCreateRequest(), files)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.False(t, exists(t, store, filestore.SlotPicture, "me.png"))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateOnInsertWithoutFiles(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestUserService(t, false)

	repo.On("FindByEmail", ctx, "ada@example.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate)

	_, err := svc.CreateUser(ctx, validCreateRequest(), Uploads{})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	var pwErr *PartialWriteError
	assert.False(t, errors.As(err, &pwErr))
}

func TestCreateUser_RowFailureRollsBackFiles(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, false)
	dbErr := errors.New("connection reset")

	repo.On("FindByEmail", ctx, "ada@example.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.Anything).Return(dbErr)

	files := Uploads{
		ProfilePic:      fileHeader(t, "profile_pic", "me.png", []byte("png")),
		DescriptionFile: fileHeader(t, "description_file", "cv.pdf", []byte("pdf")),
	}
	_, err := svc.CreateUser(ctx, validCreateRequest(), files)

	var pwErr *PartialWriteError
	require.ErrorAs(t, err, &pwErr)
	assert.ErrorIs(t, err, dbErr)
	assert.ElementsMatch(t, []string{"photos/me.png", "docs/cv.pdf"}, pwErr.RolledBack)
	assert.False(t, exists(t, store, filestore.SlotPicture, "me.png"))
	assert.False(t, exists(t, store, filestore.SlotDocument, "cv.pdf"))
}

func TestCreateUser_SecondFileFailureRollsBackFirst(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.NewLocalStore(t.TempDir(), 4)
	require.NoError(t, err)
	repo := new(mockUserRepo)
	svc := NewUserService(repo, store, false)

	repo.On("FindByEmail", ctx, "ada@example.com").Return(nil, repository.ErrNotFound)

	files := Uploads{
		ProfilePic:      fileHeader(t, "profile_pic", "me.png", []byte("png")),
		DescriptionFile: fileHeader(t, "description_file", "cv.pdf", []byte("far too large")),
	}
	_, err = svc.CreateUser(ctx, validCreateRequest(), files)

	var pwErr *PartialWriteError
	require.ErrorAs(t, err, &pwErr)
	assert.ErrorIs(t, err, filestore.ErrFileTooLarge)
	assert.False(t, exists(t, store, filestore.SlotPicture, "me.png"))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateUser_AppliesSuppliedFields(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestUserService(t, false)

	existing := &model.User{ID: 4, Name: "Old", Email: "a@b.c", Address: "Addr", PhoneNumber: "1"}
	repo.On("FindByID", ctx, int64(4)).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)

	user, err := svc.UpdateUser(ctx, 4, model.UpdateUserRequest{Name: strPtr(" New ")}, Uploads{})
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
	assert.Equal(t, "Addr", user.Address)
	assert.Equal(t, "a@b.c", user.Email)
}

func TestUpdateUser_BlankFieldRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestUserService(t, false)

	repo.On("FindByID", ctx, int64(4)).Return(&model.User{ID: 4, Name: "Old"}, nil)

	_, err := svc.UpdateUser(ctx, 4, model.UpdateUserRequest{PhoneNumber: strPtr("")}, Uploads{})
	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestUserService(t, false)

	repo.On("FindByID", ctx, int64(42)).Return(nil, repository.ErrNotFound)

	_, err := svc.UpdateUser(ctx, 42, model.UpdateUserRequest{}, Uploads{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_ReplacesPictureAndRemovesOld(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, true)

	_, err := store.Save(ctx, filestore.SlotPicture, fileHeader(t, "profile_pic", "old.png", []byte("old")))
	require.NoError(t, err)

	existing := &model.User{ID: 4, Name: "Ada", ProfilePic: strPtr("old.png")}
	repo.On("FindByID", ctx, int64(4)).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)

	files := Uploads{ProfilePic: fileHeader(t, "profile_pic", "new.png", []byte("new"))}
	user, err := svc.UpdateUser(ctx, 4, model.UpdateUserRequest{}, files)
	require.NoError(t, err)

	assert.Equal(t, "new.png", *user.ProfilePic)
	assert.True(t, exists(t, store, filestore.SlotPicture, "new.png"))
	assert.False(t, exists(t, store, filestore.SlotPicture, "old.png"))
}

func TestUpdateUser_RollbackKeepsReferencedFile(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, false)
	dbErr := errors.New("deadlock detected")

	_, err := store.Save(ctx, filestore.SlotPicture, fileHeader(t, "profile_pic", "me.png", []byte("v1")))
	require.NoError(t, err)

	existing := &model.User{ID: 4, Name: "Ada", ProfilePic: strPtr("me.png")}
	repo.On("FindByID", ctx, int64(4)).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(dbErr)

	files := Uploads{
		ProfilePic:      fileHeader(t, "profile_pic", "me.png", []byte("v2")),
		DescriptionFile: fileHeader(t, "description_file", "cv.pdf", []byte("pdf")),
	}
	_, err = svc.UpdateUser(ctx, 4, model.UpdateUserRequest{}, files)

	var pwErr *PartialWriteError
	require.ErrorAs(t, err, &pwErr)
	assert.Equal(t, []string{"docs/cv.pdf"}, pwErr.RolledBack)
	assert.True(t, exists(t, store, filestore.SlotPicture, "me.png"))
	assert.False(t, exists(t, store, filestore.SlotDocument, "cv.pdf"))
}

func TestDeleteUser_KeepsFilesByDefault(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, false)

	_, err := store.Save(ctx, filestore.SlotPicture, fileHeader(t, "profile_pic", "me.png", []byte("png")))
	require.NoError(t, err)
	repo.On("Delete", ctx, int64(4)).Return(nil)

	require.NoError(t, svc.DeleteUser(ctx, 4))
	assert.True(t, exists(t, store, filestore.SlotPicture, "me.png"))
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestDeleteUser_RemovesFilesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, true)

	_, err := store.Save(ctx, filestore.SlotDocument, fileHeader(t, "description_file", "cv.pdf", []byte("pdf")))
	require.NoError(t, err)
	repo.On("FindByID", ctx, int64(4)).Return(&model.User{ID: 4, DescriptionFile: strPtr("cv.pdf")}, nil)
	repo.On("Delete", ctx, int64(4)).Return(nil)

	require.NoError(t, svc.DeleteUser(ctx, 4))
	assert.False(t, exists(t, store, filestore.SlotDocument, "cv.pdf"))
}

func TestDeleteUser_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestUserService(t, false)

	repo.On("Delete", ctx, int64(4)).Return(repository.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, 4), ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestUserService(t, false)

	repo.On("List", ctx).Return([]model.User{{ID: 1}, {ID: 2}}, nil)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestOpenUserFile(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestUserService(t, false)

	_, err := store.Save(ctx, filestore.SlotPicture, fileHeader(t, "profile_pic", "me.png", []byte("png-bytes")))
	require.NoError(t, err)
	repo.On("FindByID", ctx, int64(4)).Return(&model.User{ID: 4, ProfilePic: strPtr("me.png")}, nil)

	rc, name, err := svc.OpenUserFile(ctx, 4, filestore.SlotPicture)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "me.png", name)
	assert.Equal(t, "png-bytes", string(data))

	_, _, err = svc.OpenUserFile(ctx, 4, filestore.SlotDocument)
	assert.ErrorIs(t, err, ErrFileReferenceAbsent)
}
