package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"studentmarket/internal/model"
	"studentmarket/internal/repository"
)

type mockRepo struct {
	users      map[int]*model.User
	items      map[string]*model.Item
	orders     []model.Order
	ratings    map[int][]int
	lastUserID int

	// creditFailFor makes CreditUserBalance fail for that seller id, to
	// exercise the rollback path of a settlement.
	creditFailFor int

	// staleUsernameCheck makes UsernameExists report false regardless,
	// simulating a registration racing past the existence check and into
	// the unique constraint.
	staleUsernameCheck bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:   make(map[int]*model.User),
		items:   make(map[string]*model.Item),
		ratings: make(map[int][]int),
	}
}

// RunAtomic snapshots the mock state and restores it when fn fails, so the
// all-or-nothing behavior of a real transaction holds in tests too.
func (m *mockRepo) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	users := make(map[int]*model.User, len(m.users))
	for id, u := range m.users {
		copied := *u
		users[id] = &copied
	}
	items := make(map[string]*model.Item, len(m.items))
	for id, it := range m.items {
		copied := *it
		items[id] = &copied
	}
	orders := make([]model.Order, len(m.orders))
	copy(orders, m.orders)

	if err := fn(ctx); err != nil {
		m.users = users
		m.items = items
		m.orders = orders
		return err
	}
	return nil
}

func (m *mockRepo) CreateUser(ctx context.Context, username, usermail, passwordHash string) (int, error) {
	for _, u := range m.users {
		if u.Username == username {
			return 0, repository.ErrUniqueViolation
		}
	}
	m.lastUserID++
	m.users[m.lastUserID] = &model.User{
		ID:           m.lastUserID,
		Username:     username,
		Usermail:     usermail,
		PasswordHash: passwordHash,
		Balance:      100,
	}
	return m.lastUserID, nil
}

func (m *mockRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	if m.staleUsernameCheck {
		return false, nil
	}
	u, _ := m.GetUserByUsername(ctx, username)
	return u != nil, nil
}

func (m *mockRepo) GetUserBalanceForUpdate(ctx context.Context, userID int) (float64, error) {
	u, ok := m.users[userID]
	if !ok {
		return 0, repository.ErrNoRows
	}
	return u.Balance, nil
}

func (m *mockRepo) AddUserBalance(ctx context.Context, userID int, amount float64) (float64, error) {
	u, ok := m.users[userID]
	if !ok {
		return 0, repository.ErrNoRows
	}
	u.Balance += amount
	return u.Balance, nil
}

func (m *mockRepo) DebitUserBalance(ctx context.Context, userID int, amount float64) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNoRows
	}
	if u.Balance < amount {
		return repository.ErrInsufficientFunds
	}
	u.Balance -= amount
	return nil
}

func (m *mockRepo) CreditUserBalance(ctx context.Context, userID int, amount float64) error {
	if userID == m.creditFailFor {
		return fmt.Errorf("credit failed")
	}
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNoRows
	}
	u.Balance += amount
	return nil
}

func (m *mockRepo) UpdateUserProfile(ctx context.Context, userID int, usermail, passwordHash string, about *string) (*model.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	u.Usermail = usermail
	u.PasswordHash = passwordHash
	if about != nil {
		u.About = *about
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepo) EmailsByUserIDs(ctx context.Context, userIDs []int) ([]string, error) {
	var emails []string
	for _, id := range userIDs {
		if u, ok := m.users[id]; ok {
			emails = append(emails, u.Usermail)
		}
	}
	return emails, nil
}

func (m *mockRepo) CreateItem(ctx context.Context, item *model.Item) error {
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *mockRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	for _, it := range m.items {
		items = append(items, *it)
	}
	return items, nil
}

func (m *mockRepo) GetItemByID(ctx context.Context, id string) (*model.Item, error) {
	if it, ok := m.items[id]; ok {
		copied := *it
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) GetItemForUpdate(ctx context.Context, id string) (*model.Item, error) {
	return m.GetItemByID(ctx, id)
}

func (m *mockRepo) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Category != nil {
		it.Category = *patch.Category
	}
	if patch.Condition != nil {
		it.Condition = *patch.Condition
	}
	if patch.Grade != nil {
		it.Grade = *patch.Grade
	}
	if patch.Subject != nil {
		it.Subject = *patch.Subject
	}
	if patch.Price != nil {
		it.Price = *patch.Price
	}
	if patch.Images != nil {
		it.Images = patch.Images
	}
	copied := *it
	return &copied, nil
}

func (m *mockRepo) MarkItemsUnavailable(ctx context.Context, ids []string) (int, error) {
	marked := 0
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			it.Available = false
			marked++
		}
	}
	return marked, nil
}

func (m *mockRepo) AppendItemReview(ctx context.Context, id string, review string) error {
	it, ok := m.items[id]
	if !ok {
		return repository.ErrNoRows
	}
	it.Reviews = append(it.Reviews, review)
	return nil
}

func (m *mockRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	m.orders = append(m.orders, *order)
	return nil
}

func (m *mockRepo) ListOrdersByUser(ctx context.Context, userID int) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockRepo) CreateRating(ctx context.Context, sellerID, points int) error {
	m.ratings[sellerID] = append(m.ratings[sellerID], points)
	return nil
}

func (m *mockRepo) RatingAverage(ctx context.Context, sellerID int) (float64, int, error) {
	points := m.ratings[sellerID]
	if len(points) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, p := range points {
		sum += p
	}
	return float64(sum) / float64(len(points)), len(points), nil
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	u, err := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	assert.NoError(t, err)
	assert.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, 100.0, u.Balance, "starting balance is 100")
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))

	_, err = svc.Register(ctx, "alice", "other@uni.edu", "whatever")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	logged, err := svc.Login(ctx, "alice", "secret123")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = svc.Login(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RegisterRacingDuplicate(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	_, err := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	assert.NoError(t, err)

	// The existence check misses the winner; the unique constraint still
	// reports the username as taken.
	mock.staleUsernameCheck = true
	_, err = svc.Register(ctx, "alice", "other@uni.edu", "whatever")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestService_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 30)

	var validationErr *ValidationError

	zero := 0.0
	_, err := svc.EditItem(ctx, item.ID, model.ItemPatch{Price: &zero})
	assert.True(t, errors.As(err, &validationErr), "zero price is rejected as input, not an internal failure")

	_, err = svc.AddBalance(ctx, seller.ID, -1)
	assert.True(t, errors.As(err, &validationErr))

	_, err = svc.PlaceOrder(ctx, seller.ID, OrderRequest{
		DeliveryAddress: "Dorm 4",
		Lines:           []OrderLineRequest{{ItemID: item.ID, Quantity: 0}},
	})
	assert.True(t, errors.As(err, &validationErr))

	err = svc.AddRating(ctx, seller.ID, 6)
	assert.True(t, errors.As(err, &validationErr))
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	u, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")

	about := "selling my old textbooks"
	updated, err := svc.UpdateProfile(ctx, u.ID, "new@uni.edu", "newpass456", &about)
	assert.NoError(t, err)
	assert.Equal(t, "new@uni.edu", updated.Usermail)
	assert.Equal(t, about, updated.About)

	// About is untouched when not supplied.
	updated, err = svc.UpdateProfile(ctx, u.ID, "new@uni.edu", "newpass456", nil)
	assert.NoError(t, err)
	assert.Equal(t, about, updated.About)

	_, err = svc.UpdateProfile(ctx, 999, "x@uni.edu", "pass", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_AddBalance(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	u, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")

	balance, err := svc.AddBalance(ctx, u.ID, 50)
	assert.NoError(t, err)
	assert.Equal(t, 150.0, balance)

	_, err = svc.AddBalance(ctx, u.ID, -5)
	assert.Error(t, err)

	_, err = svc.AddBalance(ctx, 999, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func seedItem(t *testing.T, svc *Service, sellerID int, name string, price float64) *model.Item {
	t.Helper()
	item, err := svc.AddItem(context.Background(), NewItem{
		Name:      name,
		Category:  "books",
		Condition: "used",
		Grade:     "2nd year",
		Subject:   "algorithms",
		OwnerID:   sellerID,
		Price:     price,
		Images:    []string{"https://img.example/1.jpg"},
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestService_AddAndEditItem(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 30)

	assert.NotEmpty(t, item.ID)
	assert.True(t, item.Available)
	assert.Equal(t, []string{}, item.Reviews, "reviews default to an empty array")

	fetched, err := svc.GetItem(ctx, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, item.Images, fetched.Images)

	newPrice := 25.0
	edited, err := svc.EditItem(ctx, item.ID, model.ItemPatch{Price: &newPrice})
	assert.NoError(t, err)
	assert.Equal(t, 25.0, edited.Price)
	assert.Equal(t, "CLRS", edited.Name, "untouched fields survive a partial edit")

	_, err = svc.EditItem(ctx, "no-such-id", model.ItemPatch{Price: &newPrice})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, NewItem{Name: "x", OwnerID: 999, Price: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_AddComments(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 30)

	err := svc.AddComments(ctx, []ItemComment{{ItemID: item.ID, Comment: "great book"}})
	assert.NoError(t, err)

	fetched, _ := svc.GetItem(ctx, item.ID)
	assert.Equal(t, []string{"great book"}, fetched.Reviews)

	err = svc.AddComments(ctx, []ItemComment{{ItemID: "missing", Comment: "hm"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_PlaceOrder_Settlement(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	buyer, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 30)

	order, err := svc.PlaceOrder(ctx, buyer.ID, OrderRequest{
		DeliveryAddress: "Dorm 4, room 12",
		Lines:           []OrderLineRequest{{ItemID: item.ID, Quantity: 2}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 60.0, order.TotalPrice)
	assert.Len(t, order.Lines, 1)
	assert.Equal(t, seller.ID, order.Lines[0].SellerID)

	buyerAfter, _ := mock.GetUserByID(ctx, buyer.ID)
	sellerAfter, _ := mock.GetUserByID(ctx, seller.ID)
	assert.Equal(t, 40.0, buyerAfter.Balance, "100 - 60")
	assert.Equal(t, 160.0, sellerAfter.Balance, "100 + 60")

	itemAfter, _ := mock.GetItemByID(ctx, item.ID)
	assert.False(t, itemAfter.Available, "purchased item is off the market")

	orders, err := svc.OrdersByUser(ctx, buyer.ID)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestService_PlaceOrder_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	buyer, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 150)

	_, err := svc.PlaceOrder(ctx, buyer.ID, OrderRequest{
		DeliveryAddress: "Dorm 4",
		Lines:           []OrderLineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing moved.
	buyerAfter, _ := mock.GetUserByID(ctx, buyer.ID)
	sellerAfter, _ := mock.GetUserByID(ctx, seller.ID)
	assert.Equal(t, 100.0, buyerAfter.Balance)
	assert.Equal(t, 100.0, sellerAfter.Balance)

	itemAfter, _ := mock.GetItemByID(ctx, item.ID)
	assert.True(t, itemAfter.Available)

	orders, _ := svc.OrdersByUser(ctx, buyer.ID)
	assert.Len(t, orders, 0, "no order record is created")
}

func TestService_PlaceOrder_RollbackOnCreditFailure(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	buyer, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 30)

	mock.creditFailFor = seller.ID

	_, err := svc.PlaceOrder(ctx, buyer.ID, OrderRequest{
		DeliveryAddress: "Dorm 4",
		Lines:           []OrderLineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	assert.Error(t, err)

	// The failed credit rolls back the debit, the order and the
	// availability flip. No partial settlement is ever visible.
	buyerAfter, _ := mock.GetUserByID(ctx, buyer.ID)
	assert.Equal(t, 100.0, buyerAfter.Balance, "debit is rolled back")

	itemAfter, _ := mock.GetItemByID(ctx, item.ID)
	assert.True(t, itemAfter.Available)

	orders, _ := svc.OrdersByUser(ctx, buyer.ID)
	assert.Len(t, orders, 0)
}

func TestService_PlaceOrder_UnavailableItem(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	buyer, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	item := seedItem(t, svc, seller.ID, "CLRS", 30)

	assert.NoError(t, svc.MarkUnavailable(ctx, []string{item.ID}))

	_, err := svc.PlaceOrder(ctx, buyer.ID, OrderRequest{
		DeliveryAddress: "Dorm 4",
		Lines:           []OrderLineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestService_PlaceOrder_MultipleSellers(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	buyer, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	seller1, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")
	seller2, _ := svc.Register(ctx, "carol", "carol@uni.edu", "secret123")

	item1 := seedItem(t, svc, seller1.ID, "CLRS", 30)
	item2 := seedItem(t, svc, seller2.ID, "SICP", 20)

	order, err := svc.PlaceOrder(ctx, buyer.ID, OrderRequest{
		DeliveryAddress: "Dorm 4",
		Lines: []OrderLineRequest{
			{ItemID: item1.ID, Quantity: 1},
			{ItemID: item2.ID, Quantity: 2},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 70.0, order.TotalPrice)

	buyerAfter, _ := mock.GetUserByID(ctx, buyer.ID)
	s1After, _ := mock.GetUserByID(ctx, seller1.ID)
	s2After, _ := mock.GetUserByID(ctx, seller2.ID)
	assert.Equal(t, 30.0, buyerAfter.Balance)
	assert.Equal(t, 130.0, s1After.Balance, "each seller gets exactly their subtotal")
	assert.Equal(t, 140.0, s2After.Balance)
}

func TestService_Ratings(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	seller, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")

	rating, err := svc.SellerAverage(ctx, seller.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, rating.Average)
	assert.Equal(t, 0, rating.Count)

	assert.NoError(t, svc.AddRating(ctx, seller.ID, 5))
	assert.NoError(t, svc.AddRating(ctx, seller.ID, 4))

	rating, err = svc.SellerAverage(ctx, seller.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, rating.Average)
	assert.Equal(t, 2, rating.Count)

	assert.Error(t, svc.AddRating(ctx, seller.ID, 0))
	assert.Error(t, svc.AddRating(ctx, seller.ID, 6))
	assert.ErrorIs(t, svc.AddRating(ctx, 999, 3), ErrNotFound)
}

func TestService_EmailsByUserIDs(t *testing.T) {
	ctx := context.Background()
	mock := newMockRepo()
	svc := NewService(mock)

	u1, _ := svc.Register(ctx, "alice", "alice@uni.edu", "secret123")
	u2, _ := svc.Register(ctx, "bob", "bob@uni.edu", "secret123")

	emails, err := svc.EmailsByUserIDs(ctx, []int{u1.ID, u2.ID})
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice@uni.edu", "bob@uni.edu"}, emails)

	_, err = svc.EmailsByUserIDs(ctx, nil)
	assert.Error(t, err)

	tooMany := make([]int, 11)
	_, err = svc.EmailsByUserIDs(ctx, tooMany)
	assert.Error(t, err)

	_, err = svc.EmailsByUserIDs(ctx, []int{999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMapNoRows(t *testing.T) {
	assert.ErrorIs(t, mapNoRows(repository.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapNoRows(repository.ErrInsufficientFunds), ErrInsufficientBalance)

	other := errors.New("boom")
	assert.Equal(t, other, mapNoRows(other))
}
