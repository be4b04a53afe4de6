package account

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/hash"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
	"github.com/Skotchmaster/hg_store/internal/models"
	"github.com/Skotchmaster/hg_store/internal/mykafka"
)

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeTerms      bool   `json:"agreeTerms"`
}

// Accounts keeps registered users in the durable store. The current-user
// pointer lives in Durable when remembered and in Tab otherwise.
type Accounts struct {
	Durable kvstore.Store
	Tab     kvstore.Store
	Events  mykafka.Publisher
	Now     func() time.Time

	mu sync.Mutex
}

func NewAccounts(durable, tab kvstore.Store, events mykafka.Publisher) *Accounts {
	return &Accounts{Durable: durable, Tab: tab, Events: events, Now: time.Now}
}

// Locker guards the keys this service owns, for writers that bypass it.
func (a *Accounts) Locker() sync.Locker {
	return &a.mu
}

func (a *Accounts) users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := kvstore.GetJSON(ctx, a.Durable, kvstore.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func findByEmail(users []models.User, email string) (models.User, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func validateRegister(name, email string, req RegisterRequest) error {
	switch {
	case len([]rune(name)) < 2:
		return domain.NewValidationError("name", "Name must be at least 2 characters")
	case !domain.IsValidEmail(email):
		return domain.NewValidationError("email", "Please enter a valid email address")
	case len(req.Password) < 6:
		return domain.NewValidationError("password", "Password must be at least 6 characters")
	case req.Password != req.ConfirmPassword:
		return domain.NewValidationError("confirmPassword", "Passwords do not match")
	case !req.AgreeTerms:
		return domain.NewValidationError("agreeTerms", "You must agree to the terms and conditions")
	}
	return nil
}

// Register creates the user and signs them in with a remembered session.
func (a *Accounts) Register(ctx context.Context, req RegisterRequest) (models.Session, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if err := validateRegister(name, email, req); err != nil {
		l.Info("register_rejected", "field", domain.FieldOf(err))
		return models.Session{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.users(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if _, exists := findByEmail(users, email); exists {
		l.Info("register_rejected", "reason", "duplicate email")
		return models.Session{}, fmt.Errorf("register %s: %w", email, domain.ErrDuplicateEmail)
	}

	pw, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("hash_password_error", "error", err)
		return models.Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := a.Now()
	id := now.UnixMilli()
	for _, u := range users {
		if u.ID >= id {
			id = u.ID + 1
		}
	}

	u := models.User{ID: id, Name: name, Email: email, PasswordHash: pw, CreatedAt: now.UTC()}
	if err := kvstore.SetJSON(ctx, a.Durable, kvstore.KeyUsers, append(users, u)); err != nil {
		l.Error("register_save_error", "error", err)
		return models.Session{}, err
	}

	s := u.Session()
	if err := a.setCurrent(ctx, s, true); err != nil {
		return models.Session{}, err
	}

	l.Info("user_registered", "user_id", id)
	mykafka.Emit(ctx, a.Events, mykafka.TopicUser, fmt.Sprint(id), mykafka.NewEvent("user_registered", s))
	return s, nil
}

func (a *Accounts) Login(ctx context.Context, email, password string, remember bool) (models.Session, error) {
	l := logging.FromContext(ctx).With("svc", "account.login")

	email = strings.TrimSpace(email)
	if !domain.IsValidEmail(email) {
		return models.Session{}, domain.NewValidationError("email", "Please enter a valid email address")
	}
	if len(password) < 6 {
		return models.Session{}, domain.NewValidationError("password", "Password must be at least 6 characters")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.users(ctx)
	if err != nil {
		return models.Session{}, err
	}
	u, ok := findByEmail(users, email)
	if !ok {
		l.Info("login_failed", "reason", "unknown email")
		return models.Session{}, fmt.Errorf("login %s: %w", email, domain.ErrUserNotFound)
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Info("login_failed", "reason", "bad password", "user_id", u.ID)
		return models.Session{}, fmt.Errorf("login %s: %w", email, domain.ErrInvalidCredentials)
	}

	s := u.Session()
	if err := a.setCurrent(ctx, s, remember); err != nil {
		return models.Session{}, err
	}

	l.Info("user_logged_in", "user_id", u.ID, "remember", remember)
	mykafka.Emit(ctx, a.Events, mykafka.TopicUser, fmt.Sprint(u.ID), mykafka.NewEvent("user_logged_in", s))
	return s, nil
}

func (a *Accounts) setCurrent(ctx context.Context, s models.Session, remember bool) error {
	target, other := a.Tab, a.Durable
	if remember {
		target, other = a.Durable, a.Tab
	}
	if err := other.Remove(ctx, kvstore.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return kvstore.SetJSON(ctx, target, kvstore.KeyCurrentUser, s)
}

func (a *Accounts) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.current(ctx)
	if err != nil {
		return err
	}
	for _, s := range []kvstore.Store{a.Durable, a.Tab} {
		if err := s.Remove(ctx, kvstore.KeyCurrentUser); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	if current != nil {
		logging.FromContext(ctx).Info("user_logged_out", "svc", "account.logout", "user_id", current.ID)
		mykafka.Emit(ctx, a.Events, mykafka.TopicUser, fmt.Sprint(current.ID), mykafka.NewEvent("user_logged_out", current))
	}
	return nil
}

// CurrentUser returns nil when nobody is signed in. The durable session wins.
func (a *Accounts) CurrentUser(ctx context.Context) (*models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current(ctx)
}

func (a *Accounts) current(ctx context.Context) (*models.Session, error) {
	for _, store := range []kvstore.Store{a.Durable, a.Tab} {
		var s models.Session
		found, err := kvstore.GetJSON(ctx, store, kvstore.KeyCurrentUser, &s)
		if err != nil {
			return nil, err
		}
		if found && s.Email != "" {
			return &s, nil
		}
	}
	return nil, nil
}
