package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path"
	"strings"

	"admin_panel/internal/filestore"
	"admin_panel/internal/model"
	"admin_panel/internal/repository"
	"admin_panel/internal/utils"
)

// Uploads are the optional files of a write request. Nil means "not sent".
type Uploads struct {
	ProfilePic      *multipart.FileHeader
	DescriptionFile *multipart.FileHeader
}

// UserService defines operations on user records and their files
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, req model.CreateUserRequest, files Uploads) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest, files Uploads) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	// OpenUserFile returns the stored file for slot and its filename
	OpenUserFile(ctx context.Context, id int64, slot filestore.Slot) (io.ReadCloser, string, error)
}

type userService struct {
	repo                repository.UserRepository
	files               filestore.Store
	removeFilesOnDelete bool
}

// NewUserService creates a new UserService. When removeFilesOnDelete is set,
// files no longer referenced after a delete or replace are removed too.
func NewUserService(repo repository.UserRepository, files filestore.Store, removeFilesOnDelete bool) UserService {
	return &userService{repo: repo, files: files, removeFilesOnDelete: removeFilesOnDelete}
}

type savedFile struct {
	slot filestore.Slot
	name string
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users from repo: %w", err)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, req model.CreateUserRequest, files Uploads) (*model.User, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Address:      strings.TrimSpace(req.Address),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
	}

	saved, err := s.saveUploads(ctx, files, user, nil)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = ErrEmailAlreadyExists
		} else {
			err = fmt.Errorf("failed to create user in repo: %w", err)
		}
		return nil, s.rollback(ctx, saved, nil, err)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest, files Uploads) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(user, req); err != nil {
		return nil, err
	}

	previous := savedFiles(user)
	saved, err := s.saveUploads(ctx, files, user, previous)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrUserNotFound
		} else {
			err = fmt.Errorf("failed to update user in repo: %w", err)
		}
		return nil, s.rollback(ctx, saved, previous, err)
	}

	if s.removeFilesOnDelete {
		current := savedFiles(user)
		for _, f := range previous {
			if !containsFile(current, f) {
				s.removeQuietly(ctx, f)
			}
		}
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	var orphans []savedFile
	if s.removeFilesOnDelete {
		user, err := s.GetUser(ctx, id)
		if err != nil {
			return err
		}
		orphans = savedFiles(user)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user in repo: %w", err)
	}

	for _, f := range orphans {
		s.removeQuietly(ctx, f)
	}
	return nil
}

func (s *userService) OpenUserFile(ctx context.Context, id int64, slot filestore.Slot) (io.ReadCloser, string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var ref *string
	switch slot {
	case filestore.SlotPicture:
		ref = user.ProfilePic
	case filestore.SlotDocument:
		ref = user.DescriptionFile
	default:
		return nil, "", filestore.ErrUnknownSlot
	}
	if ref == nil || *ref == "" {
		return nil, "", ErrFileReferenceAbsent
	}

	rc, err := s.files.Open(ctx, slot, *ref)
	if err != nil {
		return nil, "", err
	}
	return rc, *ref, nil
}

// saveUploads stores every supplied file and points user at it. If a later
// file fails, the ones already written are removed, except those in keep.
func (s *userService) saveUploads(ctx context.Context, files Uploads, user *model.User, keep []savedFile) ([]savedFile, error) {
	var saved []savedFile

	uploads := []struct {
		slot filestore.Slot
		fh   *multipart.FileHeader
		ref  **string
	}{
		{filestore.SlotPicture, files.ProfilePic, &user.ProfilePic},
		{filestore.SlotDocument, files.DescriptionFile, &user.DescriptionFile},
	}

	for _, u := range uploads {
		if u.fh == nil {
			continue
		}
		name, err := s.files.Save(ctx, u.slot, u.fh)
		if err != nil {
			return nil, s.rollback(ctx, saved, keep, fmt.Errorf("failed to store %s upload: %w", u.slot, err))
		}
		saved = append(saved, savedFile{slot: u.slot, name: name})
		stored := name
		*u.ref = &stored
	}
	return saved, nil
}

// rollback removes files written by the failing operation and wraps cause.
// Files in keep are still referenced by the stored record and stay.
// With nothing to undo, cause is returned unchanged.
func (s *userService) rollback(ctx context.Context, saved, keep []savedFile, cause error) error {
	if len(saved) == 0 {
		return cause
	}
	rolledBack := make([]string, 0, len(saved))
	for _, f := range saved {
		if containsFile(keep, f) {
			continue
		}
		s.removeQuietly(ctx, f)
		rolledBack = append(rolledBack, path.Join(string(f.slot), f.name))
	}
	return &PartialWriteError{RolledBack: rolledBack, Err: cause}
}

func (s *userService) removeQuietly(ctx context.Context, f savedFile) {
	if err := s.files.Remove(ctx, f.slot, f.name); err != nil {
		log.Printf("WARN: failed to remove %s/%s: %v", f.slot, f.name, err)
	}
}

func savedFiles(u *model.User) []savedFile {
	var out []savedFile
	if u.ProfilePic != nil && *u.ProfilePic != "" {
		out = append(out, savedFile{slot: filestore.SlotPicture, name: *u.ProfilePic})
	}
	if u.DescriptionFile != nil && *u.DescriptionFile != "" {
		out = append(out, savedFile{slot: filestore.SlotDocument, name: *u.DescriptionFile})
	}
	return out
}

func containsFile(files []savedFile, f savedFile) bool {
	for _, x := range files {
		if x == f {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCreate(req model.CreateUserRequest) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", req.Name},
		{"email", req.Email},
		{"password", req.Password},
		{"address", req.Address},
		{"phone_number", req.PhoneNumber},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func applyUpdate(user *model.User, req model.UpdateUserRequest) error {
	fields := []struct {
		name  string
		value *string
		dst   *string
	}{
		{"name", req.Name, &user.Name},
		{"address", req.Address, &user.Address},
		{"phone_number", req.PhoneNumber, &user.PhoneNumber},
	}
	var blank []string
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			blank = append(blank, f.name)
			continue
		}
		*f.dst = v
	}
	if len(blank) > 0 {
		return fmt.Errorf("%w: required fields cannot be blank: %s", ErrValidation, strings.Join(blank, ", "))
	}
	return nil
}
