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

type LinkInput struct {
	Title    string `json:"title" validate:"required,max=50"`
	URL      string `json:"url" validate:"required,url"`
	Icon     string `json:"icon" validate:"omitempty,url"`
	IsActive *bool  `json:"isActive"`
	Order    int    `json:"order" validate:"min=0"`
}

// LinkUpdate changes only the fields that are set. An empty Icon clears it.
type LinkUpdate struct {
	Title    *string `json:"title" validate:"omitnil,min=1,max=50"`
	URL      *string `json:"url" validate:"omitnil,min=1,url"`
	Icon     *string `json:"icon" validate:"omitempty,url"`
	IsActive *bool   `json:"isActive"`
	Order    *int    `json:"order" validate:"omitnil,min=0"`
}

type LinkOrder struct {
	ID    string `json:"id" validate:"required"`
	Order int    `json:"order" validate:"min=0"`
}

type ReorderInput struct {
	Links []LinkOrder `json:"links" validate:"dive"`
}

type LinkService struct {
	links    LinkStore
	users    UserLookup
	cache    *ProfileCache
	validate *validator.Validate
	log      *zap.Logger
}

func NewLinkService(links LinkStore, users UserLookup, cache *ProfileCache, v *validator.Validate, log *zap.Logger) *LinkService {
	return &LinkService{links: links, users: users, cache: cache, validate: v, log: log}
}

// List returns all of the caller's links, active or not, in display order.
func (s *LinkService) List(ctx context.Context, id auth.Identity) ([]models.Link, error) {
	owner, err := callerID(id)
	if err != nil {
		return nil, err
	}
	links, err := s.links.ListByUser(ctx, owner, false)
	if err != nil {
		return nil, apperrors.Wrap(err, "list links")
	}
	return links, nil
}

// Public returns the active links of username's profile.
func (s *LinkService) Public(ctx context.Context, username string) ([]models.Link, error) {
	owner, err := publicOwner(ctx, s.users, username)
	if err != nil {
		return nil, err
	}

	var links []models.Link
	if s.cache.Get(ctx, publicLinks, owner.Hex(), &links) {
		return links, nil
	}

	links, err = s.links.ListByUser(ctx, owner, true)
	if err != nil {
		return nil, apperrors.Wrap(err, "list public links")
	}
	s.cache.Set(ctx, publicLinks, owner.Hex(), links)
	return links, nil
}

func (s *LinkService) Create(ctx context.Context, id auth.Identity, in LinkInput) (*models.Link, error) {
	owner, err := callerID(id)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Icon = strings.TrimSpace(in.Icon)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	link := &models.Link{
		UserID:   owner,
		Title:    in.Title,
		URL:      in.URL,
		Icon:     in.Icon,
		IsActive: boolOr(in.IsActive, true),
		Order:    in.Order,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, apperrors.Wrap(err, "create link")
	}

	s.cache.Invalidate(ctx, publicLinks, owner.Hex())
	return link, nil
}

// Update applies in to the caller's link. Links owned by others are left
// untouched and reported as Forbidden.
func (s *LinkService) Update(ctx context.Context, id auth.Identity, linkID string, in LinkUpdate) (*models.Link, error) {
	in.Title, in.URL, in.Icon = trimmed(in.Title), trimmed(in.URL), trimmed(in.Icon)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	link, err := s.owned(ctx, id, linkID)
	if err != nil {
		return nil, err
	}

	link, err = s.links.Update(ctx, link.ID, link.UserID, models.LinkPatch(in))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Link not found")
		}
		return nil, apperrors.Wrap(err, "update link")
	}

	s.cache.Invalidate(ctx, publicLinks, link.UserID.Hex())
	return link, nil
}

func (s *LinkService) Delete(ctx context.Context, id auth.Identity, linkID string) error {
	link, err := s.owned(ctx, id, linkID)
	if err != nil {
		return err
	}

	if err := s.links.Delete(ctx, link.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Link not found")
		}
		return apperrors.Wrap(err, "delete link")
	}

	s.cache.Invalidate(ctx, publicLinks, link.UserID.Hex())
	return nil
}

// Reorder sets the order of each listed link. Updates are independent; entries
// that do not name one of the caller's links are skipped. It returns the
// number of links updated.
func (s *LinkService) Reorder(ctx context.Context, id auth.Identity, in ReorderInput) (int, error) {
	owner, err := callerID(id)
	if err != nil {
		return 0, err
	}
	if in.Links == nil {
		return 0, apperrors.NewValidation("Invalid links data")
	}
	if err := validateStruct(s.validate, in); err != nil {
		return 0, err
	}

	updated := 0
	for _, item := range in.Links {
		ok, err := s.links.UpdateOrder(ctx, owner, item.ID, item.Order)
		if err != nil {
			return updated, apperrors.Wrap(err, "reorder links")
		}
		if ok {
			updated++
		} else {
			s.log.Debug("reorder skipped link", zap.String("link_id", item.ID), zap.String("user_id", owner.Hex()))
		}
	}

	if updated > 0 {
		s.cache.Invalidate(ctx, publicLinks, owner.Hex())
	}
	return updated, nil
}

func (s *LinkService) owned(ctx context.Context, id auth.Identity, linkID string) (*models.Link, error) {
	caller, err := callerID(id)
	if err != nil {
		return nil, err
	}

	link, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Link not found")
		}
		return nil, apperrors.Wrap(err, "find link")
	}
	if err := checkOwner(caller, link.UserID); err != nil {
		return nil, err
	}
	return link, nil
}
