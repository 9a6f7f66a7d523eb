package services

import (
	"context"
	"errors"
	"strings"

	"github.com/AnshRaj112/multilink-backend/internal/apperrors"
	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ProductInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Price       *float64 `json:"price" validate:"required,min=0"`
	Currency    string   `json:"currency" validate:"omitempty,currency"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	IsActive    *bool    `json:"isActive"`
}

// ProductUpdate changes only the fields that are set. An empty ImageURL clears it.
type ProductUpdate struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string  `json:"description" validate:"omitnil,min=1,max=1000"`
	Price       *float64 `json:"price" validate:"omitnil,min=0"`
	Currency    *string  `json:"currency" validate:"omitnil,currency"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
	IsActive    *bool    `json:"isActive"`
}

type ProductService struct {
	products ProductStore
	users    UserLookup
	cache    *ProfileCache
	validate *validator.Validate
	log      *zap.Logger
}

func NewProductService(products ProductStore, users UserLookup, cache *ProfileCache, v *validator.Validate, log *zap.Logger) *ProductService {
	return &ProductService{products: products, users: users, cache: cache, validate: v, log: log}
}

// List returns all of the caller's products, newest first.
func (s *ProductService) List(ctx context.Context, id auth.Identity) ([]models.Product, error) {
	owner, err := callerID(id)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListByUser(ctx, owner, false)
	if err != nil {
		return nil, apperrors.Wrap(err, "list products")
	}
	return products, nil
}

// Public returns the active products of username's profile.
func (s *ProductService) Public(ctx context.Context, username string) ([]models.Product, error) {
	owner, err := publicOwner(ctx, s.users, username)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if s.cache.Get(ctx, publicProducts, owner.Hex(), &products) {
		return products, nil
	}

	products, err = s.products.ListByUser(ctx, owner, true)
	if err != nil {
		return nil, apperrors.Wrap(err, "list public products")
	}
	s.cache.Set(ctx, publicProducts, owner.Hex(), products)
	return products, nil
}

func (s *ProductService) Create(ctx context.Context, id auth.Identity, in ProductInput) (*models.Product, error) {
	owner, err := callerID(id)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Currency = strings.TrimSpace(in.Currency)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if in.Currency == "" {
		in.Currency = models.DefaultCurrency
	}

	product := &models.Product{
		UserID:      owner,
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Currency:    in.Currency,
		ImageURL:    in.ImageURL,
		IsActive:    boolOr(in.IsActive, true),
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperrors.Wrap(err, "create product")
	}

	s.cache.Invalidate(ctx, publicProducts, owner.Hex())
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id auth.Identity, productID string, in ProductUpdate) (*models.Product, error) {
	in.Name, in.Description = trimmed(in.Name), trimmed(in.Description)
	in.Currency, in.ImageURL = trimmed(in.Currency), trimmed(in.ImageURL)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	product, err := s.owned(ctx, id, productID)
	if err != nil {
		return nil, err
	}

	product, err = s.products.Update(ctx, product.ID, product.UserID, models.ProductPatch(in))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Product not found")
		}
		return nil, apperrors.Wrap(err, "update product")
	}

	s.cache.Invalidate(ctx, publicProducts, product.UserID.Hex())
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id auth.Identity, productID string) error {
	product, err := s.owned(ctx, id, productID)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Product not found")
		}
		return apperrors.Wrap(err, "delete product")
	}

	s.cache.Invalidate(ctx, publicProducts, product.UserID.Hex())
	return nil
}

func (s *ProductService) owned(ctx context.Context, id auth.Identity, productID string) (*models.Product, error) {
	caller, err := callerID(id)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Product not found")
		}
		return nil, apperrors.Wrap(err, "find product")
	}
	if err := checkOwner(caller, product.UserID); err != nil {
		return nil, err
	}
	return product, nil
}
