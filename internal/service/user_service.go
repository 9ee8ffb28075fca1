package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
)

// UserService administrator views of portal accounts.
type UserService interface {
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, &PersistenceError{Op: "list users", Err: err}
	}

	list := make([]dto.UserResponse, len(users))
	for i := range users {
		list[i] = toUserResponse(&users[i])
	}
	return list, total, nil
}
