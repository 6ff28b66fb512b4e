// Package accounts keeps the demo user registry and the current login state.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/echonotes/internal/apperr"
	"github.com/starford/echonotes/internal/models"
	"github.com/starford/echonotes/internal/storage"
)

// Registration is the input of Register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

// Credentials is the input of Login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// Registry stores users under storage.UsersKey and the logged-in profile
// under storage.CurrentUserKey.
type Registry struct {
	kv   storage.KV
	cost int

	mu sync.Mutex
}

// NewRegistry returns a Registry persisting into kv.
func NewRegistry(kv storage.KV) *Registry {
	return &Registry{kv: kv, cost: bcrypt.DefaultCost}
}

// NewRegistryWithCost is NewRegistry with an explicit bcrypt cost.
func NewRegistryWithCost(kv storage.KV, cost int) *Registry {
	return &Registry{kv: kv, cost: cost}
}

// Register adds a user and logs them in. Emails are unique, compared case-insensitively.
func (r *Registry) Register(in Registration) (models.Profile, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return models.Profile{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.loadUsers()
	if err != nil {
		return models.Profile{}, err
	}
	if _, ok := find(users, in.Email); ok {
		return models.Profile{}, fmt.Errorf("accounts: %s: %w", in.Email, apperr.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.cost)
	if err != nil {
		return models.Profile{}, fmt.Errorf("accounts: hash password: %w", err)
	}
	u := models.User{Name: in.Name, Email: in.Email, PasswordHash: string(hash)}
	if err := r.saveJSON(storage.UsersKey, append(users, u)); err != nil {
		return models.Profile{}, err
	}
	return r.setCurrent(u.Profile())
}

// Login checks the credentials and makes the user current.
func (r *Registry) Login(in Credentials) (models.Profile, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return models.Profile{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.loadUsers()
	if err != nil {
		return models.Profile{}, err
	}
	u, ok := find(users, in.Email)
	if !ok {
		return models.Profile{}, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return models.Profile{}, apperr.ErrInvalidCredentials
	}
	return r.setCurrent(u.Profile())
}

// Logout clears the current user. Logging out twice is fine.
func (r *Registry) Logout() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.kv.Delete(storage.CurrentUserKey); err != nil {
		return fmt.Errorf("accounts: logout: %w", err)
	}
	return nil
}

// Current returns the logged-in profile or apperr.ErrNotLoggedIn.
func (r *Registry) Current() (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.kv.Get(storage.CurrentUserKey)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Profile{}, apperr.ErrNotLoggedIn
		}
		return models.Profile{}, fmt.Errorf("accounts: load current user: %w", err)
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Profile{}, fmt.Errorf("accounts: decode current user: %w", err)
	}
	return p, nil
}

func (r *Registry) setCurrent(p models.Profile) (models.Profile, error) {
	if err := r.saveJSON(storage.CurrentUserKey, p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (r *Registry) loadUsers() ([]models.User, error) {
	data, err := r.kv.Get(storage.UsersKey)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("accounts: load users: %w", err)
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("accounts: decode users: %w", err)
	}
	return users, nil
}

func (r *Registry) saveJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("accounts: encode %s: %w", key, err)
	}
	if err := r.kv.Set(key, data); err != nil {
		return fmt.Errorf("accounts: save %s: %w", key, err)
	}
	return nil
}

func find(users []models.User, email string) (models.User, bool) {
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}
