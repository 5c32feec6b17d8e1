package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"
	"shelfwise/internal/platform/cache"
)

// In-memory repository fakes. They mirror the Postgres implementations
// closely enough for service-level tests, including the status CAS in
// Transition.

type memUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
	roles map[string][]string // userID -> role names
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users: make(map[string]model.User),
		roles: make(map[string][]string),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return common.ErrConflict
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []model.User
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, len(users), nil
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return common.ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	delete(r.roles, id)
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
		r.users[id] = u
	}
	return nil
}

func (r *memUserRepo) RoleNames(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.roles[userID]...), nil
}

func (r *memUserRepo) AssignRoleByName(ctx context.Context, userID, roleName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.roles[userID] {
		if name == roleName {
			return nil
		}
	}
	r.roles[userID] = append(r.roles[userID], roleName)
	return nil
}

func (r *memUserRepo) ReplaceRoles(ctx context.Context, userID string, roleIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[userID] = append([]string(nil), roleIDs...)
	return nil
}

type memCatalogRepo struct {
	mu          sync.RWMutex
	whitelist   map[string]bool
	permissions map[string][]string // userID -> "route method" grants
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{
		whitelist:   make(map[string]bool),
		permissions: make(map[string][]string),
	}
}

func (r *memCatalogRepo) grant(userID, route, method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permissions[userID] = append(r.permissions[userID], route+" "+strings.ToLower(method))
}

func (r *memCatalogRepo) allow(route, method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whitelist[route+" "+strings.ToLower(method)] = true
}

func (r *memCatalogRepo) IsWhitelisted(ctx context.Context, route, method string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.whitelist[route+" "+strings.ToLower(method)], nil
}

func (r *memCatalogRepo) HasPermission(ctx context.Context, userID, route, method string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := route + " " + strings.ToLower(method)
	for _, grant := range r.permissions[userID] {
		if grant == want {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCatalogRepo) PermissionMap(ctx context.Context, userID string, all bool) (map[string][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string][]string)
	grants := r.permissions[userID]
	if all {
		for _, userGrants := range r.permissions {
			grants = append(grants, userGrants...)
		}
	}
	for _, grant := range grants {
		parts := strings.SplitN(grant, " ", 2)
		result[parts[0]] = append(result[parts[0]], parts[1])
	}
	return result, nil
}

func (r *memCatalogRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	return []model.Role{
		{ID: "r-0", Name: model.RoleNameReader},
		{ID: "r-1", Name: model.RoleNameLibrarian},
		{ID: "r-2", Name: model.RoleNameAdmin},
	}, nil
}

type memBookRepo struct {
	mu    sync.RWMutex
	books map[string]model.Book
}

func newMemBookRepo() *memBookRepo {
	return &memBookRepo{books: make(map[string]model.Book)}
}

func (r *memBookRepo) Create(ctx context.Context, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.books {
		if existing.Slug == b.Slug {
			return common.ErrConflict
		}
	}
	r.books[b.ID] = *b
	return nil
}

func (r *memBookRepo) Update(ctx context.Context, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.books[b.ID]
	if !ok {
		return common.ErrNotFound
	}
	b.IsAvailable = existing.IsAvailable // availability owned by the lifecycle
	r.books[b.ID] = *b
	return nil
}

func (r *memBookRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *memBookRepo) FindByID(ctx context.Context, id string) (*model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &b, nil
}

func (r *memBookRepo) FindBySlug(ctx context.Context, slug string) (*model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.books {
		if b.Slug == slug {
			b := b
			return &b, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memBookRepo) List(ctx context.Context, f repository.BookFilter) ([]model.Book, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var books []model.Book
	for _, b := range r.books {
		if f.Available != nil && b.IsAvailable != *f.Available {
			continue
		}
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, len(books), nil
}

type memBorrowRepo struct {
	mu      sync.Mutex
	records map[string]model.BorrowRecord
	books   *memBookRepo
}

func newMemBorrowRepo(books *memBookRepo) *memBorrowRepo {
	return &memBorrowRepo{records: make(map[string]model.BorrowRecord), books: books}
}

func (r *memBorrowRepo) Create(ctx context.Context, rec *model.BorrowRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = *rec
	return nil
}

func (r *memBorrowRepo) FindByID(ctx context.Context, id string) (*model.BorrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &rec, nil
}

func (r *memBorrowRepo) LatestForUserBook(ctx context.Context, userID, bookID string) (*model.BorrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.BorrowRecord
	for _, rec := range r.records {
		if rec.UserID != userID || rec.BookID != bookID {
			continue
		}
		if latest == nil || rec.BorrowDate.After(latest.BorrowDate) {
			rec := rec
			latest = &rec
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	return latest, nil
}

func (r *memBorrowRepo) List(ctx context.Context, f repository.BorrowFilter) ([]model.BorrowRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []model.BorrowRecord
	for _, rec := range r.records {
		if f.UserID != "" && rec.UserID != f.UserID {
			continue
		}
		if f.BookID != "" && rec.BookID != f.BookID {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].BorrowDate.After(records[j].BorrowDate) })
	return records, len(records), nil
}

func (r *memBorrowRepo) CountBorrowsPerBook(ctx context.Context, limit int) ([]model.PopularBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, rec := range r.records {
		switch rec.Status {
		case model.StatusBorrowed, model.StatusReturnPending, model.StatusReturned:
			counts[rec.BookID]++
		}
	}
	var result []model.PopularBook
	for bookID, n := range counts {
		pb := model.PopularBook{BookID: bookID, BorrowCount: n}
		if r.books != nil {
			if b, err := r.books.FindByID(ctx, bookID); err == nil {
				pb.Title = b.Title
			}
		}
		result = append(result, pb)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].BorrowCount != result[j].BorrowCount {
			return result[i].BorrowCount > result[j].BorrowCount
		}
		return result[i].Title < result[j].Title
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Transition mimics the Postgres CAS: the status swap and the paired book
// write happen under one lock, and a stale `from` loses.
func (r *memBorrowRepo) Transition(ctx context.Context, recordID string, from model.BorrowStatus, tr model.BorrowTransition, returnDate *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[recordID]
	if !ok || rec.Status != from {
		return fmt.Errorf("record %s is not in status %s: %w", recordID, from, common.ErrInvalidTransition)
	}
	rec.Status = tr.To
	if tr.SetReturnDate {
		rec.ReturnDate = returnDate
	}
	r.records[recordID] = rec

	if tr.SetAvailability != nil && r.books != nil {
		r.books.mu.Lock()
		if b, ok := r.books.books[rec.BookID]; ok {
			b.IsAvailable = *tr.SetAvailability
			r.books.books[rec.BookID] = b
		}
		r.books.mu.Unlock()
	}
	return nil
}

type memRatingRepo struct {
	mu      sync.RWMutex
	ratings map[string]model.Rating
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{ratings: make(map[string]model.Rating)}
}

func (r *memRatingRepo) Create(ctx context.Context, rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.UserID == rating.UserID && existing.BookID == rating.BookID {
			return common.ErrConflict
		}
	}
	r.ratings[rating.ID] = *rating
	return nil
}

func (r *memRatingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ratings[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.ratings, id)
	return nil
}

func (r *memRatingRepo) FindByID(ctx context.Context, id string) (*model.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rating, ok := r.ratings[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &rating, nil
}

func (r *memRatingRepo) ListByBook(ctx context.Context, bookID string) ([]model.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []model.Rating
	for _, rating := range r.ratings {
		if rating.BookID == bookID {
			result = append(result, rating)
		}
	}
	return result, nil
}

func (r *memRatingRepo) ListAll(ctx context.Context) ([]model.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []model.Rating
	for _, rating := range r.ratings {
		result = append(result, rating)
	}
	return result, nil
}

func (r *memRatingRepo) TopRated(ctx context.Context, limit int) ([]model.ScoredBook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rating := range r.ratings {
		sums[rating.BookID] += float64(rating.Score)
		counts[rating.BookID]++
	}
	var result []model.ScoredBook
	for bookID, sum := range sums {
		result = append(result, model.ScoredBook{BookID: bookID, Score: sum / float64(counts[bookID])})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type memRoleCache struct {
	mu      sync.Mutex
	entries map[string]*cache.RoleEntry
	sets    int
	hits    int
}

func newMemRoleCache() *memRoleCache {
	return &memRoleCache{entries: make(map[string]*cache.RoleEntry)}
}

func (c *memRoleCache) Get(ctx context.Context, userID string) (*cache.RoleEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	if ok {
		c.hits++
	}
	return entry, ok
}

func (c *memRoleCache) Set(ctx context.Context, userID string, entry *cache.RoleEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = entry
	c.sets++
}

func (c *memRoleCache) Invalidate(ctx context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
