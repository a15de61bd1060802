package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parking_console/internal/domain"
	"parking_console/internal/repository"
)

type userRepository struct {
	db  *database
	now func() time.Time
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	defer r.db.write()()
	t := r.db.t
	for _, u := range t.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: %w: '%s'", repository.ErrDuplicateEntry, domain.ErrDuplicateUsername, user.Username)
		}
		if u.Phone == user.Phone {
			return nil, fmt.Errorf("%w: %w: '%s'", repository.ErrDuplicateEntry, domain.ErrDuplicatePhone, user.Phone)
		}
	}
	t.nextUserID++
	created := *user
	created.ID = t.nextUserID
	created.CreatedAt = r.now().UTC()
	created.UpdatedAt = created.CreatedAt
	t.users[created.ID] = created
	return &created, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	defer r.db.read()()
	u, ok := r.db.t.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) findOne(match func(u *domain.User) bool) (*domain.User, error) {
	defer r.db.read()()
	for _, u := range r.db.t.users {
		if match(&u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

// FindByIDForUpdate needs no row lock; memory transactions are serialized.
func (r *userRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.User, error) {
	return r.FindByID(ctx, id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.Username == username })
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.Phone == phone })
}

func (r *userRepository) FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	defer r.db.read()()
	users := make([]domain.User, 0)
	for _, u := range r.db.t.users {
		if role == "" || u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	users, err := r.FindByRole(ctx, role)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	defer r.db.write()()
	u, ok := r.db.t.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	u.UpdatedAt = r.now().UTC()
	r.db.t.users[id] = u
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int) error {
	defer r.db.write()()
	if _, ok := r.db.t.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.t.users, id)
	return nil
}
