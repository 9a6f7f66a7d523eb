package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (f *fakeUserStore) find(match func(models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.Email == email || u.Username == username })
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.Email == email })
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u models.User) bool { return u.Username == username })
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return f.find(func(u models.User) bool { return u.ID == oid })
}

func (f *fakeUserStore) clashes(u *models.User) bool {
	for id, other := range f.users {
		if id != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return true
		}
	}
	return false
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if f.clashes(u) {
		return repository.ErrDuplicateKey
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	f.users[u.ID] = *u
	return nil
}

// modify applies fn to user id when match accepts the stored record.
func (f *fakeUserStore) modify(id primitive.ObjectID, match func(models.User) bool, fn func(*models.User)) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !match(u) {
		return nil, repository.ErrNotFound
	}
	fn(&u)
	if f.clashes(&u) {
		return nil, repository.ErrDuplicateKey
	}
	u.UpdatedAt = time.Now()
	f.users[id] = u
	return &u, nil
}

func anyUser(models.User) bool { return true }

func (f *fakeUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, username, email *string) (*models.User, error) {
	return f.modify(id, anyUser, func(u *models.User) {
		if username != nil {
			u.Username = *username
		}
		if email != nil {
			u.Email = *email
		}
	})
}

func (f *fakeUserStore) SetPassword(_ context.Context, id primitive.ObjectID, currentHash, newHash string) error {
	_, err := f.modify(id,
		func(u models.User) bool { return u.PasswordHash == currentHash },
		func(u *models.User) { u.PasswordHash = newHash })
	return err
}

func (f *fakeUserStore) SetMfaSecret(_ context.Context, id primitive.ObjectID, secret string) error {
	_, err := f.modify(id,
		func(u models.User) bool { return !u.MfaEnabled },
		func(u *models.User) { u.MfaSecret = secret })
	return err
}

func (f *fakeUserStore) EnableMfa(_ context.Context, id primitive.ObjectID, secret string) error {
	_, err := f.modify(id,
		func(u models.User) bool { return u.MfaSecret == secret },
		func(u *models.User) { u.MfaEnabled = true })
	return err
}

func (f *fakeUserStore) DisableMfa(_ context.Context, id primitive.ObjectID, secret string) error {
	_, err := f.modify(id,
		func(u models.User) bool { return u.MfaSecret == secret },
		func(u *models.User) { u.MfaEnabled, u.MfaSecret = false, "" })
	return err
}

func (f *fakeUserStore) ReplaceMfaSecret(_ context.Context, id primitive.ObjectID, current, replacement string) error {
	_, err := f.modify(id,
		func(u models.User) bool { return u.MfaSecret == current },
		func(u *models.User) { u.MfaSecret = replacement })
	return err
}

func (f *fakeUserStore) ExistsOther(_ context.Context, field, value string, excludeID primitive.ObjectID) (bool, error) {
	_, err := f.find(func(u models.User) bool {
		if u.ID == excludeID {
			return false
		}
		switch field {
		case "username":
			return u.Username == value
		case "email":
			return u.Email == value
		}
		return false
	})
	return err == nil, nil
}

func (f *fakeUserStore) delete(id primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

// put overwrites a stored record, bypassing every write condition.
func (f *fakeUserStore) put(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUserStore) get(id string) models.User {
	u, _ := f.FindByID(context.Background(), id)
	if u == nil {
		return models.User{}
	}
	return *u
}

type fakeLinkStore struct {
	mu    sync.Mutex
	links map[primitive.ObjectID]models.Link
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: make(map[primitive.ObjectID]models.Link)}
}

func (f *fakeLinkStore) ListByUser(_ context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Link{}
	for _, l := range f.links {
		if l.UserID == userID && (!activeOnly || l.IsActive) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeLinkStore) FindByID(_ context.Context, id string) (*models.Link, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (f *fakeLinkStore) Create(_ context.Context, l *models.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = primitive.NewObjectID()
	f.links[l.ID] = *l
	return nil
}

func (f *fakeLinkStore) Update(_ context.Context, id, owner primitive.ObjectID, patch models.LinkPatch) (*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok || l.UserID != owner {
		return nil, repository.ErrNotFound
	}
	assign(&l.Title, patch.Title)
	assign(&l.URL, patch.URL)
	assign(&l.Icon, patch.Icon)
	assign(&l.IsActive, patch.IsActive)
	assign(&l.Order, patch.Order)
	f.links[id] = l
	return &l, nil
}

func (f *fakeLinkStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.links, id)
	return nil
}

func (f *fakeLinkStore) UpdateOrder(_ context.Context, userID primitive.ObjectID, id string, order int) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[oid]
	if !ok || l.UserID != userID {
		return false, nil
	}
	l.Order = order
	f.links[oid] = l
	return true, nil
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[primitive.ObjectID]models.Product)}
}

func (f *fakeProductStore) ListByUser(_ context.Context, userID primitive.ObjectID, activeOnly bool) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.products {
		if p.UserID == userID && (!activeOnly || p.IsActive) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProductStore) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) Update(_ context.Context, id, owner primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.UserID != owner {
		return nil, repository.ErrNotFound
	}
	assign(&p.Name, patch.Name)
	assign(&p.Description, patch.Description)
	assign(&p.Price, patch.Price)
	assign(&p.Currency, patch.Currency)
	assign(&p.ImageURL, patch.ImageURL)
	assign(&p.IsActive, patch.IsActive)
	f.products[id] = p
	return &p, nil
}

func (f *fakeProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
