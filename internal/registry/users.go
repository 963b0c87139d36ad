package registry

import (
	"context"

	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/models"
	"github.com/mwantia/cpkgs/pkg/db/store"
)

func (s *Service) ListUsers(ctx context.Context) ([]api.UserResponse, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, wrapStore(err)
	}
	return userViews(users), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (api.UserResponse, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return api.UserResponse{}, wrapStore(err)
	}
	return UserView(user), nil
}

// CreateUser provisions an account with role USER, the way admin
// tooling creates accounts on behalf of others.
func (s *Service) CreateUser(ctx context.Context, req api.UserRequest) (api.UserResponse, error) {
	user, err := s.createUser(ctx, req, models.RoleUser)
	if err != nil {
		return api.UserResponse{}, err
	}
	return UserView(user), nil
}

// UpdateUser applies only the supplied fields. A new password is
// re-hashed before storage.
func (s *Service) UpdateUser(ctx context.Context, id string, req api.UserRequest) (api.UserResponse, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return api.UserResponse{}, wrapStore(err)
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return api.UserResponse{}, err
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return api.UserResponse{}, wrapStore(err)
	}
	return UserView(user), nil
}

// DeleteUser removes the account and its tokens. Authored packages are
// left in place with their author reference orphaned.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return wrapStore(err)
	}
	s.log.Info("User '%s' deleted", id)
	return nil
}

// ListPackagesByUser returns every package authored by the user.
func (s *Service) ListPackagesByUser(ctx context.Context, id string) ([]api.PackageResponse, error) {
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return nil, wrapStore(err)
	}
	pkgs, err := s.store.ListPackages(ctx, store.PackageFilter{AuthorID: id, Limit: -1})
	if err != nil {
		return nil, wrapStore(err)
	}
	return packageViews(pkgs), nil
}

func (s *Service) createUser(ctx context.Context, req api.UserRequest, role string) (*models.User, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, wrapStore(err)
	}
	return user, nil
}
