package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/mail"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/storage"
)

// ── user store ───────────────────────────────────────────────────────────────

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User // hex id → user
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		s.users[u.ID.Hex()] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("User not found.")
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("User not found.")
}

func (s *fakeUserStore) Insert(_ context.Context, user *models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return "", apperr.AlreadyExists("An account with this email already exists.")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, taken := s.users[user.ID.Hex()]; taken {
		return "", apperr.AlreadyExists("An account with this email already exists.")
	}
	s.users[user.ID.Hex()] = *user
	return user.ID.Hex(), nil
}

func (s *fakeUserStore) All(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *fakeUserStore) AllPushTokens(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokens []string
	for _, u := range s.users {
		tokens = append(tokens, u.FcmTokens...)
	}
	return tokens, nil
}

func (s *fakeUserStore) UpdateUsername(_ context.Context, id, username string) error {
	return s.mutate(id, func(u *models.User) { u.Username = username })
}

func (s *fakeUserStore) AddPushToken(_ context.Context, id, token string) error {
	return s.mutate(id, func(u *models.User) {
		for _, t := range u.FcmTokens {
			if t == token {
				return
			}
		}
		u.FcmTokens = append(u.FcmTokens, token)
	})
}

func (s *fakeUserStore) AppendSubAccount(_ context.Context, id, name string) error {
	return s.mutate(id, func(u *models.User) {
		for _, n := range u.SubAccounts {
			if n == name {
				return
			}
		}
		u.SubAccounts = append(u.SubAccounts, name)
	})
}

func (s *fakeUserStore) SetTruckNumber(_ context.Context, id, truckNumber string) error {
	return s.mutate(id, func(u *models.User) { u.TruckNumber = truckNumber })
}

func (s *fakeUserStore) SetRoleByEmail(_ context.Context, email, role string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.Email != email {
			continue
		}
		switch role {
		case "admin":
			u.Admin = enabled
		case "isSuperUser":
			u.IsSuperUser = enabled
		}
		s.users[id] = u
		return nil
	}
	return apperr.NotFound("User not found.")
}

func (s *fakeUserStore) mutate(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("User not found.")
	}
	fn(&u)
	s.users[id] = u
	return nil
}

// ── order store ──────────────────────────────────────────────────────────────

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newFakeOrderStore(orders ...models.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[string]models.Order{}}
	for _, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		s.orders[o.ID.Hex()] = o
	}
	return s
}

func (s *fakeOrderStore) Insert(_ context.Context, order *models.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders[order.ID.Hex()] = *order
	return order.ID.Hex(), nil
}

func (s *fakeOrderStore) FindByID(_ context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	return o, nil
}

func (s *fakeOrderStore) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	out := s.filter(func(o models.Order) bool { return o.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeOrderStore) FindByUserAndStatus(_ context.Context, userID, status string) ([]models.Order, error) {
	out := s.filter(func(o models.Order) bool { return o.UserID == userID && o.Status == status })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeOrderStore) FindPendingBySubAccountNames(_ context.Context, names []string) ([]models.Order, error) {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return s.filter(func(o models.Order) bool {
		return o.Status == models.StatusPending && set[o.SubAccountName]
	}), nil
}

func (s *fakeOrderStore) FindByUserCreatedAfter(_ context.Context, userID string, t time.Time) ([]models.Order, error) {
	return s.filter(func(o models.Order) bool {
		return o.UserID == userID && o.CreatedAt.After(t)
	}), nil
}

func (s *fakeOrderStore) ReplaceItems(_ context.Context, id string, items []models.OrderItem, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	o.Items = items
	o.Notes = notes
	s.orders[id] = o
	return nil
}

func (s *fakeOrderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return apperr.NotFound(fmt.Sprintf("Order %s not found.", id))
	}
	delete(s.orders, id)
	return nil
}

// MarkSubmitted mirrors the transactional contract: either every id flips or
// none do.
func (s *fakeOrderStore) MarkSubmitted(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		o, ok := s.orders[id]
		if !ok || o.Status != models.StatusUnsubmitted {
			return errors.New("orders: mark submitted: matched fewer orders than requested")
		}
	}
	for _, id := range ids {
		o := s.orders[id]
		o.Status = models.StatusPending
		s.orders[id] = o
	}
	return nil
}

func (s *fakeOrderStore) DeleteCreatedBefore(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, o := range s.orders {
		if o.CreatedAt.Before(t) {
			delete(s.orders, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeOrderStore) filter(fn func(models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if fn(o) {
			out = append(out, o)
		}
	}
	return out
}

func (s *fakeOrderStore) get(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// ── sub-account store ────────────────────────────────────────────────────────

type fakeSubAccountStore struct {
	mu   sync.Mutex
	subs map[string]models.SubAccount
}

func newFakeSubAccountStore(subs ...models.SubAccount) *fakeSubAccountStore {
	s := &fakeSubAccountStore{subs: map[string]models.SubAccount{}}
	for _, sa := range subs {
		if sa.ID.IsZero() {
			sa.ID = primitive.NewObjectID()
		}
		s.subs[sa.ID.Hex()] = sa
	}
	return s
}

func (s *fakeSubAccountStore) Insert(_ context.Context, sub *models.SubAccount) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sa := range s.subs {
		if sa.ParentID == sub.ParentID && sa.Name == sub.Name {
			return "", apperr.AlreadyExists(fmt.Sprintf("A customer named %q already exists.", sub.Name))
		}
	}
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	s.subs[sub.ID.Hex()] = *sub
	return sub.ID.Hex(), nil
}

func (s *fakeSubAccountStore) FindByID(_ context.Context, id string) (models.SubAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sa, ok := s.subs[id]
	if !ok {
		return models.SubAccount{}, apperr.NotFound("Sub-account not found.")
	}
	return sa, nil
}

func (s *fakeSubAccountStore) FindByParent(_ context.Context, parentID string) ([]models.SubAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SubAccount
	for _, sa := range s.subs {
		if sa.ParentID == parentID {
			out = append(out, sa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeSubAccountStore) UpdateDetails(_ context.Context, id string, restrictedProductIDs []string, truckNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sa, ok := s.subs[id]
	if !ok {
		return apperr.NotFound("Sub-account not found.")
	}
	sa.RestrictedProductIDs = restrictedProductIDs
	sa.TruckNumber = truckNumber
	s.subs[id] = sa
	return nil
}

// ── product / settings stores ────────────────────────────────────────────────

type fakeProductStore struct {
	products []models.Product
}

func (s *fakeProductStore) All(_ context.Context) ([]models.Product, error) {
	return s.products, nil
}

type fakeSettingsStore struct {
	mu       sync.Mutex
	settings models.GlobalSettings
	getErr   error
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{settings: models.DefaultSettings()}
}

func (s *fakeSettingsStore) Get(_ context.Context) (models.GlobalSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return models.GlobalSettings{}, s.getErr
	}
	return s.settings, nil
}

func (s *fakeSettingsStore) Update(_ context.Context, settings models.GlobalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.ApplyDefaults()
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func identityOf(u models.User) middleware.Identity {
	return middleware.Identity{
		UserID:    u.ID.Hex(),
		Email:     u.Email,
		Admin:     u.Admin,
		SuperUser: u.IsSuperUser,
	}
}

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

// captureMail swaps the SMTP sender for an in-memory recorder for the test.
func captureMail(t *testing.T) *[]sentMail {
	t.Helper()
	var sent []sentMail
	prev := mail.SetSender(func(m *mail.Message) error {
		sent = append(sent, sentMail{To: m.Recipients(), Subject: m.SubjectLine(), Body: m.HTMLBody()})
		return nil
	})
	t.Cleanup(func() { mail.SetSender(prev) })
	return &sent
}

// failMail makes every send fail for the test.
func failMail(t *testing.T) {
	t.Helper()
	prev := mail.SetSender(func(*mail.Message) error { return errors.New("smtp unreachable") })
	t.Cleanup(func() { mail.SetSender(prev) })
}

// ── in-memory storage disk ───────────────────────────────────────────────────

type memDisk struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (d *memDisk) Put(path string, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		d.files = map[string][]byte{}
	}
	d.files[path] = content
	return nil
}

func (d *memDisk) PutStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.Put(path, data)
}

func (d *memDisk) Get(path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[path]
	if !ok {
		return nil, fmt.Errorf("memdisk: %s not found", path)
	}
	return data, nil
}

func (d *memDisk) GetStream(path string) (io.ReadCloser, error) {
	return nil, errors.New("memdisk: streams not supported")
}

func (d *memDisk) Exists(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[path]
	return ok
}

func (d *memDisk) Size(path string) (int64, error) {
	data, err := d.Get(path)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (d *memDisk) LastModified(string) (time.Time, error) { return time.Time{}, nil }
func (d *memDisk) URL(path string) string                 { return "mem://" + path }

func (d *memDisk) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

func (d *memDisk) Files(string) ([]string, error) { return nil, nil }

var registerDiskOnce sync.Once

// useMemDisk makes storage.Put land in memory instead of the filesystem.
func useMemDisk() {
	registerDiskOnce.Do(func() {
		storage.RegisterDisk("local", &memDisk{})
	})
}
