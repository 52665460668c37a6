package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// OperatorService manages the certifying operators and verifies their sign-off credentials
type OperatorService struct {
	repo     repository.OperatorRepository
	auditSvc *AuditService
}

func NewOperatorService(repo repository.OperatorRepository, auditSvc *AuditService) *OperatorService {
	return &OperatorService{repo: repo, auditSvc: auditSvc}
}

// OperatorInput is the payload for registering an operator
type OperatorInput struct {
	AuthID   string `json:"auth_id" binding:"required,max=64"`
	Name     string `json:"name" binding:"required,max=128"`
	Password string `json:"password" binding:"omitempty,min=6,max=72"`
}

func (s *OperatorService) List(ctx context.Context) ([]models.Operator, error) {
	return s.repo.List(ctx)
}

func (s *OperatorService) Create(ctx context.Context, input OperatorInput, actorID uint) (*models.Operator, error) {
	operator := &models.Operator{
		AuthID: strings.TrimSpace(input.AuthID),
		Name:   strings.TrimSpace(input.Name),
		Active: true,
	}
	if input.Password != "" {
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		operator.PasswordHash = hash
	}
	if err := s.repo.Create(ctx, operator); err != nil {
		return nil, err
	}
	if s.auditSvc != nil {
		s.auditSvc.LogAsync(ctx, actorID, models.AuditActionCreate, "Operator", operator.ID, fmt.Sprintf("Operator registered: %s", operator.AuthID))
	}
	return operator, nil
}

// Verify implements capture.Verifier. Unregistered auth ids pass; a registered operator
// must be active and, when a password is on file, must supply it.
func (s *OperatorService) Verify(ctx context.Context, creds capture.Credentials) error {
	operator, err := s.repo.FindByAuthID(ctx, creds.AuthID)
	if err != nil {
		return err
	}
	if operator == nil {
		return nil
	}
	if !operator.Active {
		return ErrOperatorInactive
	}
	if operator.PasswordHash != "" && !VerifyPassword(creds.Password, operator.PasswordHash) {
		return ErrInvalidPassword
	}
	return nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a password with a hash
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var _ capture.Verifier = (*OperatorService)(nil)
