package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-process ProductRepository and CategoryRepository
// used as a fake by service, handler and command tests.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
	// Err, when set, is returned by every read to simulate a storage fault
	Err error
}

// NewMemoryProductRepository seeds the repository with products
func NewMemoryProductRepository(products ...domain.Product) *MemoryProductRepository {
	r := &MemoryProductRepository{}
	for i := range products {
		_ = r.Create(context.Background(), &products[i])
	}
	return r
}

func (r *MemoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.SEO.Slug == product.SEO.Slug {
			return ErrSlugAlreadyExists
		}
	}
	r.products = append(r.products, *product)
	return nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, p := range r.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *MemoryProductRepository) List(_ context.Context, filter catalog.Filter, sort catalog.Sort, window catalog.Window) ([]domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, 0, r.Err
	}

	matched := []domain.Product{}
	for _, p := range r.products {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}

	slices.SortStableFunc(matched, func(a, b domain.Product) int {
		var c int
		switch sort.Field {
		case catalog.SortByPrice:
			c = cmp.Compare(a.Price.Amount, b.Price.Amount)
		case catalog.SortByRating:
			c = cmp.Compare(a.Rating, b.Rating)
		default:
			// byte order; postgres orders names by the database collation
			c = strings.Compare(a.Name, b.Name)
		}
		if sort.Descending {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		return c
	})

	start, end := window.Apply(len(matched))
	return matched[start:end], len(matched), nil
}

func (r *MemoryProductRepository) ListNames(ctx context.Context) ([]domain.ProductName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}

	ordered := slices.Clone(r.products)
	slices.SortStableFunc(ordered, func(a, b domain.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	names := make([]domain.ProductName, 0, len(ordered))
	for _, p := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names = append(names, domain.ProductName{ID: p.ID, Name: p.Name})
	}
	return names, nil
}

func (r *MemoryProductRepository) FindListItemsByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		for _, p := range r.products {
			if p.ID == id {
				products = append(products, p)
				break
			}
		}
	}
	return products, nil
}

// Categories implements CategoryRepository.List over the stored products
func (r *MemoryProductRepository) Categories() CategoryRepository {
	return memoryCategories{r}
}

type memoryCategories struct {
	r *MemoryProductRepository
}

func (c memoryCategories) List(_ context.Context) ([]domain.CategorySummary, error) {
	c.r.mu.RLock()
	defer c.r.mu.RUnlock()

	if c.r.Err != nil {
		return nil, c.r.Err
	}

	counts := map[string]int{}
	for _, p := range c.r.products {
		counts[p.Category]++
	}

	categories := make([]domain.CategorySummary, 0, len(counts))
	for name, n := range counts {
		categories = append(categories, domain.CategorySummary{Name: name, ProductCount: n})
	}
	slices.SortFunc(categories, func(a, b domain.CategorySummary) int {
		return strings.Compare(a.Name, b.Name)
	})
	return categories, nil
}

// MemoryUserRepository is an in-process UserRepository
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrEmailAlreadyExists
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	update.Apply(&u)
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return &u, nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return nil
}

// Delete removes a user; tests use it to exercise tokens of deleted accounts
func (r *MemoryUserRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// MemoryRevokedTokenRepository is an in-process RevokedTokenRepository
type MemoryRevokedTokenRepository struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]domain.RevokedToken
}

func NewMemoryRevokedTokenRepository() *MemoryRevokedTokenRepository {
	return &MemoryRevokedTokenRepository{tokens: make(map[uuid.UUID]domain.RevokedToken)}
}

func (r *MemoryRevokedTokenRepository) Create(_ context.Context, token *domain.RevokedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.ID]; !ok {
		r.tokens[token.ID] = *token
	}
	return nil
}

func (r *MemoryRevokedTokenRepository) IsRevoked(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tokens[id]
	return ok, nil
}

func (r *MemoryRevokedTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

var (
	_ ProductRepository      = (*MemoryProductRepository)(nil)
	_ UserRepository         = (*MemoryUserRepository)(nil)
	_ RevokedTokenRepository = (*MemoryRevokedTokenRepository)(nil)
)
