package supplier

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

type Service interface {
	CreateSupplier(ctx context.Context, req SupplierRequest) (*Supplier, error)
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context, activeOnly bool) ([]*Supplier, error)
	UpdateSupplier(ctx context.Context, id string, req SupplierRequest) (*Supplier, error)
	SetActive(ctx context.Context, id string, active bool) (*Supplier, error)
}

type SupplierRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) CreateSupplier(ctx context.Context, req SupplierRequest) (*Supplier, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sup := &Supplier{
		ID:        uuid.New(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(sup)
	if err := s.repo.CreateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *service) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("id", "is not a valid uuid")
	}
	return s.repo.GetSupplier(ctx, uid)
}

func (s *service) ListSuppliers(ctx context.Context, activeOnly bool) ([]*Supplier, error) {
	return s.repo.ListSuppliers(ctx, activeOnly)
}

func (s *service) UpdateSupplier(ctx context.Context, id string, req SupplierRequest) (*Supplier, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	sup, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(sup)
	sup.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *service) SetActive(ctx context.Context, id string, active bool) (*Supplier, error) {
	sup, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	sup.IsActive = active
	sup.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (r SupplierRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Invalid("name", "is required")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return apperr.Invalid("email", "is not a valid address")
		}
	}
	return nil
}

func (r SupplierRequest) apply(s *Supplier) {
	s.Name = strings.TrimSpace(r.Name)
	s.ContactName = strings.TrimSpace(r.ContactName)
	s.Phone = strings.TrimSpace(r.Phone)
	s.Email = strings.ToLower(strings.TrimSpace(r.Email))
	s.Address = strings.TrimSpace(r.Address)
}
