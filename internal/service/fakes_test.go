package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*models.User)}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (m *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *fakeUserRepo) ExistsByEmailOrPRN(_ context.Context, email, prn, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != excludeID && (u.Email == email || u.PRN == prn) {
			return true, nil
		}
	}
	return false, nil
}

func (m *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.RegisteredEvents = []string{}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *fakeUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

// fakeEventRepo keeps events in memory and applies the same registration rules as Postgres.
type fakeEventRepo struct {
	mu        sync.Mutex
	events    map[string]*models.Event
	users     map[string]models.User
	listCalls int
}

func newFakeEventRepo(events ...models.Event) *fakeEventRepo {
	repo := &fakeEventRepo{events: make(map[string]*models.Event), users: make(map[string]models.User)}
	for i := range events {
		e := events[i]
		repo.events[e.ID] = &e
	}
	return repo
}

func (m *fakeEventRepo) List(_ context.Context, filter models.EventFilter) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	out := []models.Event{}
	for _, e := range m.events {
		if filter.HasCategory() && string(e.Category) != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *fakeEventRepo) FindByID(_ context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	copy := *e
	copy.RegisteredStudents = append([]models.StudentRegistration{}, e.RegisteredStudents...)
	return &copy, nil
}

func (m *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uuid.NewString()
	event.RegisteredStudents = []models.StudentRegistration{}
	copy := *event
	m.events[event.ID] = &copy
	return nil
}

func (m *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.events[event.ID]
	if !ok {
		return models.ErrEventNotFound
	}
	if event.Capacity < len(current.RegisteredStudents) {
		return models.ErrCapacityBelowRoster
	}
	copy := *event
	copy.RegisteredStudents = current.RegisteredStudents
	m.events[event.ID] = &copy
	return nil
}

func (m *fakeEventRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return models.ErrEventNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *fakeEventRepo) Register(_ context.Context, eventID, userID string, now time.Time) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	user, ok := m.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	already := false
	for _, reg := range event.RegisteredStudents {
		if reg.Email == user.Email {
			already = true
		}
	}
	if err := models.CheckRegistration(event, len(event.RegisteredStudents), already, now); err != nil {
		return nil, err
	}
	id := user.ID
	event.RegisteredStudents = append(event.RegisteredStudents, models.StudentRegistration{
		ID:               uuid.NewString(),
		EventID:          event.ID,
		UserID:           &id,
		Name:             user.Name,
		Email:            user.Email,
		PRN:              user.PRN,
		Class:            user.Class,
		Division:         user.Division,
		RegistrationDate: now,
	})
	copy := *event
	copy.RegisteredStudents = append([]models.StudentRegistration{}, event.RegisteredStudents...)
	return &copy, nil
}

type fakeCacheRepo struct {
	mu       sync.Mutex
	values   map[string][]byte
	versions map[string]int64
	versErr  error
	deleted  []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: make(map[string][]byte), versions: make(map[string]int64)}
}

func (m *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = raw
	return nil
}

func (m *fakeCacheRepo) Version(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versErr != nil {
		return 0, m.versErr
	}
	return m.versions[key], nil
}

func (m *fakeCacheRepo) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versErr != nil {
		return 0, m.versErr
	}
	m.versions[key]++
	return m.versions[key], nil
}

func (m *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []models.StudentRegistration
	err   error
}

func (n *fakeNotifier) NotifyRegistration(_ context.Context, _ *models.Event, reg models.StudentRegistration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, reg)
	return n.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
	closed   bool
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = make(map[string][][]byte)
	}
	p.messages[routingKey] = append(p.messages[routingKey], body)
	return nil
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[routingKey])
}

func sampleEvent(id string, capacity int, deadline time.Time) models.Event {
	return models.Event{
		ID:                   id,
		Title:                "Hackathon",
		Description:          "24 hour build",
		Date:                 deadline.Add(48 * time.Hour),
		Time:                 "10:00",
		Location:             "Main Hall",
		Category:             models.CategoryTechnical,
		Image:                models.DefaultEventImage,
		Organizer:            "CSI",
		RegistrationDeadline: deadline,
		Capacity:             capacity,
		RegisteredStudents:   []models.StudentRegistration{},
	}
}

func sampleStudent(id, email string) models.User {
	return models.User{
		ID:       id,
		Name:     "Student " + id,
		Email:    email,
		PRN:      "PRN-" + id,
		Class:    "TE",
		Division: "A",
		Role:     models.RoleStudent,
	}
}
