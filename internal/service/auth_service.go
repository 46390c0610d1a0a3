package service

import (
	"errors"
	"fmt"
	"time"

	"conecart/internal/domain"
	"conecart/internal/repository"
	"conecart/pkg/hash"
	"conecart/pkg/jwt"

	"github.com/google/uuid"
)

type AuthService struct {
	shoppers      repository.ShopperRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(shoppers repository.ShopperRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		shoppers:      shoppers,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(req *domain.RegisterRequest) (*domain.Shopper, error) {
	taken, err := s.shoppers.EmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	shopper := &domain.Shopper{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.shoppers.Create(shopper); err != nil {
		return nil, fmt.Errorf("failed to create shopper: %w", err)
	}

	shopper.Password = ""
	return shopper, nil
}

func (s *AuthService) Login(req *domain.LoginRequest) (*domain.LoginResponse, error) {
	shopper, err := s.shoppers.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrShopperNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load shopper: %w", err)
	}

	if err := hash.Compare(shopper.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(shopper.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	shopper.Password = ""

	return &domain.LoginResponse{
		Shopper:     shopper,
		AccessToken: token,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
