package conversation

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evcraddock/estate-bot/internal/fields"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
	"github.com/evcraddock/estate-bot/internal/transcribe"
)

const testUser int64 = 42

// fakeExtractor returns canned output keyed by the exact input text.
type fakeExtractor struct {
	property map[string]map[string]any
	criteria map[string]map[string]any
	err      error
	calls    int
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		property: make(map[string]map[string]any),
		criteria: make(map[string]map[string]any),
	}
}

func (f *fakeExtractor) ExtractProperty(_ context.Context, text string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if raw, ok := f.property[text]; ok {
		return raw, nil
	}
	return map[string]any{}, nil
}

func (f *fakeExtractor) ExtractCriteria(_ context.Context, text string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if raw, ok := f.criteria[text]; ok {
		return raw, nil
	}
	return map[string]any{}, nil
}

// fakeRepo is an owner-scoped in-memory repository with failure injection.
type fakeRepo struct {
	mu     sync.Mutex
	props  map[int64]*property.Property
	nextID int64
	writes int

	createErr error
	updateErr error
	listErr   error
	deleteErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{props: make(map[int64]*property.Property)}
}

func (r *fakeRepo) Create(_ context.Context, p *property.Property) (*property.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.writes++
	r.nextID++
	saved := *p
	saved.ID = r.nextID
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	r.props[saved.ID] = &saved
	out := saved
	return &out, nil
}

func (r *fakeRepo) Get(_ context.Context, id, owner int64) (*property.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.props[id]
	if !ok || p.OwnerID != owner {
		return nil, property.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *fakeRepo) ListByOwner(_ context.Context, owner int64) ([]*property.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*property.Property
	for _, p := range r.props {
		if p.OwnerID == owner {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id, owner int64, changes fields.Partial) (*property.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	p, ok := r.props[id]
	if !ok || p.OwnerID != owner {
		return nil, property.ErrNotFound
	}
	updated, err := p.Apply(changes)
	if err != nil {
		return nil, err
	}
	r.writes++
	r.props[id] = updated
	out := *updated
	return &out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id, owner int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	p, ok := r.props[id]
	if !ok || p.OwnerID != owner {
		return property.ErrNotFound
	}
	r.writes++
	delete(r.props, id)
	return nil
}

func (r *fakeRepo) get(id int64) *property.Property {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.props[id]
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.props)
}

// seed stores a complete property for owner and returns its id.
func (r *fakeRepo) seed(owner int64, title string, kind property.Type, city string, area, price float64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.props[r.nextID] = &property.Property{
		ID:        r.nextID,
		OwnerID:   owner,
		Title:     title,
		Type:      kind,
		City:      city,
		Area:      area,
		Price:     price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return r.nextID
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, transcribe.Audio) (string, error) {
	return f.text, f.err
}

type testEnv struct {
	engine    *Engine
	sessions  *session.Store
	extractor *fakeExtractor
	repo      *fakeRepo
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{
		sessions:  session.NewStore(),
		extractor: newFakeExtractor(),
		repo:      newFakeRepo(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger)}, opts...)
	env.engine = New(env.sessions, env.extractor, env.repo, opts...)
	return env
}

func (env *testEnv) send(t *testing.T, text string) Reply {
	t.Helper()
	r, err := env.engine.HandleText(context.Background(), testUser, text)
	require.NoError(t, err)
	return r
}

func (env *testEnv) press(t *testing.T, data string) Reply {
	t.Helper()
	r, err := env.engine.HandleAction(context.Background(), testUser, data)
	require.NoError(t, err)
	return r
}

func (env *testEnv) session(t *testing.T) session.Session {
	t.Helper()
	s, err := env.sessions.GetOrCreate(context.Background(), testUser)
	require.NoError(t, err)
	return s
}

// confirming drives the register flow to Confirming with a full draft.
func (env *testEnv) confirming(t *testing.T) {
	t.Helper()
	env.extractor.property["Modern Apartment, apartment in New York, 120 sq m, $450,000"] = map[string]any{
		"title":         "Modern Apartment",
		"property_type": "apartment",
		"city":          "New York",
		"area":          "120 sq m",
		"price":         "$450,000",
	}
	env.press(t, "goal:register")
	r := env.send(t, "Modern Apartment, apartment in New York, 120 sq m, $450,000")
	require.Equal(t, session.Confirming, r.State)
}

// editing drives the edit flow to EditingTarget for id.
func (env *testEnv) editing(t *testing.T, id int64) {
	t.Helper()
	env.press(t, "goal:edit")
	env.send(t, "show all properties")
	r := env.press(t, actionData(ActionEdit, id))
	require.Equal(t, session.EditingTarget, r.State)
}

func hasButton(r Reply, data string) bool {
	for _, m := range r.Messages {
		for _, row := range m.Buttons {
			for _, b := range row {
				if b.Data == data {
					return true
				}
			}
		}
	}
	return false
}

func containsText(r Reply, sub string) bool {
	return strings.Contains(r.Text(), sub)
}
