package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gotodo/internal/models"
	"gotodo/internal/password"
)

// MemoryStore keeps users and todos in process memory behind one mutex. It
// implements both Users and Todos and exists for tests and local runs
// without a database.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	todos map[uuid.UUID]models.Todo
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]models.User),
		todos: make(map[uuid.UUID]models.Todo),
	}
}

// Users returns the Users view of the store.
func (s *MemoryStore) Users() Users { return memoryUsers{s} }

// Todos returns the Todos view of the store.
func (s *MemoryStore) Todos() Todos { return memoryTodos{s} }

type memoryUsers struct{ s *MemoryStore }

func (v memoryUsers) Create(ctx context.Context, user *models.User, plain string) error {
	return v.s.Create(ctx, user, plain)
}
func (v memoryUsers) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return v.s.ByID(ctx, id)
}
func (v memoryUsers) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return v.s.ByIdentifier(ctx, identifier)
}
func (v memoryUsers) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) (*models.User, error) {
	return v.s.UpdateProfile(ctx, id, username, email)
}
func (v memoryUsers) UpdatePassword(ctx context.Context, id uuid.UUID, plain string) error {
	return v.s.UpdatePassword(ctx, id, plain)
}
func (v memoryUsers) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return v.s.SetRefreshToken(ctx, id, token)
}
func (v memoryUsers) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return v.s.ClearRefreshToken(ctx, id)
}
func (v memoryUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return v.s.Delete(ctx, id)
}

type memoryTodos struct{ s *MemoryStore }

func (v memoryTodos) Create(ctx context.Context, todo *models.Todo) error {
	return v.s.CreateTodo(ctx, todo)
}
func (v memoryTodos) ByOwner(ctx context.Context, userID uuid.UUID) ([]models.Todo, error) {
	return v.s.ByOwner(ctx, userID)
}
func (v memoryTodos) ByID(ctx context.Context, id, userID uuid.UUID) (*models.Todo, error) {
	return v.s.TodoByID(ctx, id, userID)
}
func (v memoryTodos) Update(ctx context.Context, todo *models.Todo) error {
	return v.s.UpdateTodo(ctx, todo)
}
func (v memoryTodos) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return v.s.DeleteTodo(ctx, id, userID)
}

func (s *MemoryStore) Create(_ context.Context, user *models.User, plain string) error {
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrDuplicate
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.PasswordHash = hash
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) ByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, username, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if (username != "" && other.Username == username) || (email != "" && other.Email == email) {
			return nil, ErrDuplicate
		}
	}
	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return &user, nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id uuid.UUID, plain string) error {
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return nil
}

func (s *MemoryStore) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func (s *MemoryStore) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return s.SetRefreshToken(ctx, id, "")
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for todoID, todo := range s.todos {
		if todo.UserID == id {
			delete(s.todos, todoID)
		}
	}
	return nil
}

func (s *MemoryStore) CreateTodo(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	s.todos[todo.ID] = *todo
	return nil
}

func (s *MemoryStore) ByOwner(_ context.Context, userID uuid.UUID) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var todos []models.Todo
	for _, todo := range s.todos {
		if todo.UserID == userID {
			todos = append(todos, todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.Before(todos[j].CreatedAt)
	})
	return todos, nil
}

func (s *MemoryStore) TodoByID(_ context.Context, id, userID uuid.UUID) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return nil, ErrNotFound
	}
	return &todo, nil
}

func (s *MemoryStore) UpdateTodo(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[todo.ID]
	if !ok || existing.UserID != todo.UserID {
		return ErrNotFound
	}
	existing.Title = todo.Title
	existing.Description = todo.Description
	existing.Completed = todo.Completed
	existing.UpdatedAt = time.Now()
	s.todos[todo.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteTodo(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return ErrNotFound
	}
	delete(s.todos, id)
	return nil
}
