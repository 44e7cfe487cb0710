package usecase_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
)

// memStore backs the fake repositories. WithinTx snapshots it and restores
// the snapshot when fn fails, like a real rollback.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]domain.User
	tokens   map[string]domain.Token
	projects map[string]domain.Project
	tasks    map[string]domain.Task
	notes    map[string]domain.Note

	// failTokens makes every token repository call fail with this error.
	failTokens error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]domain.User{},
		tokens:   map[string]domain.Token{},
		projects: map[string]domain.Project{},
		tasks:    map[string]domain.Task{},
		notes:    map[string]domain.Note{},
	}
}

func (s *memStore) id(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	users, tokens := maps.Clone(s.users), maps.Clone(s.tokens)
	projects, tasks, notes := maps.Clone(s.projects), maps.Clone(s.tasks), maps.Clone(s.notes)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.users, s.tokens = users, tokens
		s.projects, s.tasks, s.notes = projects, tasks, notes
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) tokensOf(userID string, t domain.TokenType) []domain.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Token
	for _, tok := range s.tokens {
		if tok.UserID == userID && tok.Type == t {
			out = append(out, tok)
		}
	}
	return out
}

func (s *memStore) user(id string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// ---- users ----

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Name == u.Name {
			return domain.ErrUserAlreadyExists
		}
	}
	u.ID = r.id("user")
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) modify(id string, fn func(u *domain.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	r.users[id] = u
	return nil
}

func (r memUsers) SetConfirmed(_ context.Context, id string) error {
	return r.modify(id, func(u *domain.User) error { u.Confirmed = true; return nil })
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return r.modify(id, func(u *domain.User) error { u.PasswordHash = hash; return nil })
}

func (r memUsers) UpdateName(_ context.Context, id, name string) error {
	return r.modify(id, func(u *domain.User) error {
		for _, other := range r.users {
			if other.ID != id && other.Name == name {
				return domain.ErrUserAlreadyExists
			}
		}
		u.Name = name
		return nil
	})
}

func (r memUsers) UpdateEmail(_ context.Context, id, email string) error {
	return r.modify(id, func(u *domain.User) error {
		for _, other := range r.users {
			if other.ID != id && other.Email == email {
				return domain.ErrUserAlreadyExists
			}
		}
		u.Email = email
		return nil
	})
}

// setCode rewrites the code of every token of type t the user holds.
func (s *memStore) setCode(userID string, t domain.TokenType, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, tok := range s.tokens {
		if tok.UserID == userID && tok.Type == t {
			tok.Code = code
			s.tokens[id] = tok
		}
	}
}

// ---- tokens ----

type memTokens struct{ *memStore }

func (r memTokens) Create(_ context.Context, t *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTokens != nil {
		return r.failTokens
	}
	t.ID = r.id("token")
	t.CreatedAt = time.Now()
	r.tokens[t.ID] = *t
	return nil
}

func expired(t domain.Token, now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (r memTokens) find(userID, code string, tt domain.TokenType, now time.Time) (domain.Token, bool) {
	for _, t := range r.tokens {
		if userID != "" && t.UserID != userID {
			continue
		}
		if t.Code == code && t.Type == tt && !expired(t, now) {
			return t, true
		}
	}
	return domain.Token{}, false
}

func (r memTokens) Consume(ctx context.Context, code string, tt domain.TokenType, now time.Time) (*domain.Token, error) {
	return r.ConsumeForUser(ctx, "", code, tt, now)
}

func (r memTokens) ConsumeForUser(_ context.Context, userID, code string, tt domain.TokenType, now time.Time) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTokens != nil {
		return nil, r.failTokens
	}
	t, ok := r.find(userID, code, tt, now)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	delete(r.tokens, t.ID)
	return &t, nil
}

func (r memTokens) FindActive(_ context.Context, code string, tt domain.TokenType, now time.Time) (*domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTokens != nil {
		return nil, r.failTokens
	}
	t, ok := r.find("", code, tt, now)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &t, nil
}

func (r memTokens) DeleteByUserAndType(_ context.Context, userID string, tt domain.TokenType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTokens != nil {
		return r.failTokens
	}
	maps.DeleteFunc(r.tokens, func(_ string, t domain.Token) bool {
		return t.UserID == userID && t.Type == tt
	})
	return nil
}

func (r memTokens) DeleteExpired(_ context.Context, now time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.tokens {
		if n == limit {
			break
		}
		if expired(t, now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// ---- projects ----

type memProjects struct{ *memStore }

func (r memProjects) Create(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id("project")
	p.Team = []string{}
	r.projects[p.ID] = *p
	return nil
}

func (r memProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	p.Team = slices.Clone(p.Team)
	return &p, nil
}

func (r memProjects) ListForUser(_ context.Context, userID string) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Project{}
	for _, p := range r.projects {
		if p.CanView(userID) {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r memProjects) Update(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; !ok {
		return domain.ErrProjectNotFound
	}
	r.projects[p.ID] = *p
	return nil
}

func (r memProjects) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	for tid, t := range r.tasks {
		if t.ProjectID != id {
			continue
		}
		maps.DeleteFunc(r.notes, func(_ string, n domain.Note) bool { return n.TaskID == tid })
		delete(r.tasks, tid)
	}
	delete(r.projects, id)
	return nil
}

func (r memProjects) AddMember(_ context.Context, projectID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.projects[projectID]
	if slices.Contains(p.Team, userID) {
		return domain.ErrUserAlreadyInTeam
	}
	p.Team = append(slices.Clone(p.Team), userID)
	r.projects[projectID] = p
	return nil
}

func (r memProjects) RemoveMember(_ context.Context, projectID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.projects[projectID]
	i := slices.Index(p.Team, userID)
	if i < 0 {
		return domain.ErrUserNotInTeam
	}
	p.Team = slices.Delete(slices.Clone(p.Team), i, i+1)
	r.projects[projectID] = p
	return nil
}

func (r memProjects) ListMembers(_ context.Context, projectID string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.User{}
	for _, id := range r.projects[projectID].Team {
		u := r.users[id]
		out = append(out, &u)
	}
	return out, nil
}

// ---- tasks ----

type memTasks struct{ *memStore }

func (r memTasks) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id("task")
	t.Changes = []domain.StatusChange{}
	r.tasks[t.ID] = *t
	return nil
}

func (r memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (r memTasks) ListByProject(_ context.Context, projectID string) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range r.tasks {
		if t.ProjectID == projectID {
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r memTasks) Update(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r memTasks) UpdateStatus(_ context.Context, id string, c domain.StatusChange) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t.Status = c.Status
	t.Changes = append(slices.Clone(t.Changes), c)
	if n := len(t.Changes); n > domain.MaxStatusChanges {
		t.Changes = t.Changes[n-domain.MaxStatusChanges:]
	}
	r.tasks[id] = t
	return &t, nil
}

func (r memTasks) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// ---- notes ----

type memNotes struct{ *memStore }

func (r memNotes) Create(_ context.Context, n *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.id("note")
	r.notes[n.ID] = *n
	return nil
}

func (r memNotes) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return &n, nil
}

func (r memNotes) ListByTask(_ context.Context, taskID string) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Note{}
	for _, n := range r.notes {
		if n.TaskID == taskID {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r memNotes) UpdateContent(_ context.Context, id, content string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	n.Content = content
	r.notes[id] = n
	return &n, nil
}

func (r memNotes) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return domain.ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}
