package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/internal/service/tokens"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/shopspring/decimal"
)

const JWTTokenExpire = 24 * time.Hour

type UserService struct {
	uow            uow.UOW
	userRepo       UserRepository
	hasher         PasswordHasher
	jwtTokenSecret []byte
	startingCash   decimal.Decimal
}

func NewUserService(
	u uow.UOW,
	jwtTokenSecret []byte,
	hasher PasswordHasher,
	startingCash decimal.Decimal,
) (*UserService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	return &UserService{
		uow:            u,
		userRepo:       userRepo,
		hasher:         hasher,
		jwtTokenSecret: jwtTokenSecret,
		startingCash:   startingCash,
	}, nil
}

type RegisterUserArgs struct {
	Username     string
	Password     string
	Confirmation string
}

// Register создает юзера со стартовым балансом. После успешного создания генерирует jwt token. Возвращает 3
// значения: созданный юзер, токен и ошибку. Занятый юзернейм - domain.ErrDuplicateKey.
func (s *UserService) Register(ctx context.Context, args RegisterUserArgs) (*domain.User, string, error) {
	if err := domain.ValidateCredential(args.Username); err != nil {
		return nil, "", fmt.Errorf("registering user: %w", err)
	}
	if err := validatePassword(args.Password, args.Confirmation); err != nil {
		return nil, "", fmt.Errorf("registering user: %w", err)
	}

	password, hashErr := s.hasher.HashPassword(args.Password)
	if hashErr != nil {
		return nil, "", fmt.Errorf("registering user: %s", hashErr.Error())
	}

	var user *domain.User
	var token string
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var userErr, tokenErr error
		repo, repoErr := userRepo(tx)
		if repoErr != nil {
			return repoErr
		}
		user, userErr = repo.CreateUser(c, repoargs.CreateUser{
			Username: args.Username,
			Password: password,
			Cash:     s.startingCash,
		})
		if userErr != nil {
			return userErr //nolint:wrapcheck
		}

		token, tokenErr = tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
		if tokenErr != nil {
			return tokenErr //nolint:wrapcheck
		}
		return nil
	})

	if txErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", txErr)
	}
	return user, token, nil
}

type LoginUserArgs struct {
	Username string
	Password string
}

// Login проверяет логин и пароль и выдает jwt token. Ошибки: domain.ErrRecordNotFound если юзера нет,
// domain.ErrPasswordMissMatch если пароль не подходит.
func (s *UserService) Login(ctx context.Context, args LoginUserArgs) (*domain.User, string, error) {
	if args.Username == "" || args.Password == "" {
		return nil, "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	user, userErr := s.userRepo.FindUserByUsername(ctx, args.Username)
	if userErr != nil {
		return nil, "", fmt.Errorf("login: %w", userErr)
	}

	if !s.hasher.ComparePassword(args.Password, user.Password) {
		return nil, "", fmt.Errorf("login: %w", domain.ErrPasswordMissMatch)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("login: %s", tokenErr.Error())
	}
	return user, token, nil
}

type ChangePasswordArgs struct {
	Password     string
	Confirmation string
}

// ChangePassword меняет пароль юзера.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, args ChangePasswordArgs) error {
	if err := validatePassword(args.Password, args.Confirmation); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}

	password, hashErr := s.hasher.HashPassword(args.Password)
	if hashErr != nil {
		return fmt.Errorf("changing password: %s", hashErr.Error())
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, password); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	return nil
}

func validatePassword(password, confirmation string) error {
	if err := domain.ValidateCredential(password); err != nil {
		return err //nolint:wrapcheck
	}
	if password != confirmation {
		return domain.ErrPasswordConfirm
	}
	return nil
}

// IsAuthError ошибки входа, о которых клиенту сообщается одинаково.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound) || errors.Is(err, domain.ErrPasswordMissMatch)
}
