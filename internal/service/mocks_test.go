package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/mq"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// fakeTx 直接执行回调，mock 仓储的 WithTx 返回自身
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	f.calls++
	return fn(nil)
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt mq.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// Mock UserRepository：模拟唯一键约束
type mockUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
	gets   int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *mockUserRepository) conflict(u *domain.User) error {
	for _, other := range m.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return repo.ErrDuplicateUsername
		}
		if other.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	return nil
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(user); err != nil {
		return err
	}
	user.ID = m.nextID
	m.nextID++
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) find(match func(*domain.User) bool) *domain.User {
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	return m.find(func(u *domain.User) bool { return u.ID == id }), nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *domain.User) bool { return u.Username == username }), nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *domain.User) bool { return u.Email == email }), nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(user); err != nil {
		return err
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepository) UpdateProfilePicture(ctx context.Context, id int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.ProfilePicture = &path
	}
	return nil
}

func (m *mockUserRepository) Deactivate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

// Mock BlogRepository
type mockBlogRepository struct {
	blogs  map[int64]*domain.Blog
	nextID int64
}

func newMockBlogRepository() *mockBlogRepository {
	return &mockBlogRepository{blogs: make(map[int64]*domain.Blog), nextID: 1}
}

func (m *mockBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	blog.ID = m.nextID
	m.nextID++
	cp := *blog
	m.blogs[blog.ID] = &cp
	return nil
}

func (m *mockBlogRepository) GetByID(ctx context.Context, id int64) (*domain.Blog, error) {
	b, ok := m.blogs[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockBlogRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Blog, error) {
	return m.GetByID(ctx, id)
}

func (m *mockBlogRepository) List(ctx context.Context, page domain.PageRequest) ([]*domain.Blog, int64, error) {
	ids := make([]int64, 0, len(m.blogs))
	for id := range m.blogs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var out []*domain.Blog
	for i := page.Offset(); i < len(ids) && len(out) < page.PageSize; i++ {
		out = append(out, m.blogs[ids[i]])
	}
	return out, int64(len(ids)), nil
}

func (m *mockBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	cp := *blog
	m.blogs[blog.ID] = &cp
	return nil
}

func (m *mockBlogRepository) Delete(ctx context.Context, id int64) error {
	delete(m.blogs, id)
	return nil
}

func (m *mockBlogRepository) WithTx(tx *sql.Tx) repo.BlogRepository { return m }

// Mock ProductRepository
type mockProductRepository struct {
	products map[int64]*domain.Product
	nextID   int64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]*domain.Product), nextID: 1}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = m.nextID
	m.nextID++
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return m.GetByID(ctx, id)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	var result []*domain.Product
	for _, p := range m.products {
		result = append(result, p)
	}
	return result, int64(len(result)), nil
}

func (m *mockProductRepository) WithTx(tx *sql.Tx) repo.ProductRepository { return m }

// Mock OrderRepository
type mockOrderRepository struct {
	orders map[int64]*domain.Order
	nextID int64
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[int64]*domain.Order), nextID: 1}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	order.ID = m.nextID
	m.nextID++
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *mockOrderRepository) ListByOwner(ctx context.Context, ownerID int64, page domain.PageRequest) ([]*domain.Order, int64, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.OwnerID == ownerID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id int64) error {
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) WithTx(tx *sql.Tx) repo.OrderRepository { return m }

// Mock NotificationRepository
type mockNotificationRepository struct {
	items  map[int64]*domain.Notification
	nextID int64
}

func newMockNotificationRepository() *mockNotificationRepository {
	return &mockNotificationRepository{items: make(map[int64]*domain.Notification), nextID: 1}
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	n.ID = m.nextID
	m.nextID++
	cp := *n
	m.items[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Notification, error) {
	n, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (m *mockNotificationRepository) ListByRecipient(ctx context.Context, userID int64, req domain.NotificationListRequest) ([]*domain.Notification, int64, error) {
	var out []*domain.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!req.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id int64) error {
	if n, ok := m.items[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (m *mockNotificationRepository) WithTx(tx *sql.Tx) repo.NotificationRepository { return m }

// 测试辅助

const testSecret = "test-secret-key-with-enough-bytes!!"

func newTestTokenService(now func() time.Time) TokenService {
	opts := []TokenOption{}
	if now != nil {
		opts = append(opts, WithClock(now))
	}
	tokens, err := NewTokenService(JWTConfig{
		Secret:         testSecret,
		Algorithm:      "HS256",
		AccessTokenTTL: 30 * time.Minute,
		Issuer:         "test-service",
	}, zap.NewNop(), opts...)
	if err != nil {
		panic(err)
	}
	return tokens
}

func newTestHasher() PasswordHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}
