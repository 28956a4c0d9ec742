package form

import (
	"context"
	"errors"
	"testing"

	domain "github.com/jobs/eventhub/internal/biz/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	defs map[uint64]*domain.Definition
	err  error
}

func (r *fakeRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeRepo) Create(_ context.Context, d *domain.Definition) error {
	r.defs[d.ID] = d
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uint64) (*domain.Definition, error) {
	if r.err != nil {
		return nil, r.err
	}
	if d, ok := r.defs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) Update(context.Context, uint64, *domain.DefinitionPatch) error { return nil }

func (r *fakeRepo) Delete(_ context.Context, id uint64) error {
	delete(r.defs, id)
	return nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*domain.Definition, error) {
	return r.ListEnabled(ctx)
}

func (r *fakeRepo) ListEnabled(context.Context) ([]*domain.Definition, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Definition
	for _, d := range r.defs {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func newRepo() *fakeRepo {
	return &fakeRepo{defs: map[uint64]*domain.Definition{
		1: {ID: 1, Name: "signup", Title: "Sign up", Enabled: true},
		2: {ID: 2, Name: "contact", Title: "Contact", Enabled: true},
		3: {ID: 3, Name: "legacy", Enabled: false},
	}}
}

func TestLoadAll(t *testing.T) {
	c := NewCache(newRepo(), zap.NewNop())

	n, err := c.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, uint64(1), all[0].ID)

	def, ok := c.GetByName("contact")
	require.True(t, ok)
	assert.Equal(t, uint64(2), def.ID)
}

func TestReloadIdempotent(t *testing.T) {
	repo := newRepo()
	c := NewCache(repo, zap.NewNop())

	require.NoError(t, c.Reload(context.Background(), 1))
	require.NoError(t, c.Reload(context.Background(), 1))
	assert.Len(t, c.All(), 1)

	repo.defs[1].Name = "register"
	require.NoError(t, c.Reload(context.Background(), 1))
	_, ok := c.GetByName("signup")
	assert.False(t, ok)
	def, ok := c.GetByName("register")
	require.True(t, ok)
	assert.Equal(t, uint64(1), def.ID)
}

func TestReloadRemovesDeletedAndDisabled(t *testing.T) {
	repo := newRepo()
	c := NewCache(repo, zap.NewNop())
	_, err := c.LoadAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), 1))
	repo.defs[2].Enabled = false
	require.NoError(t, c.Reload(context.Background(), 1))
	require.NoError(t, c.Reload(context.Background(), 2))
	assert.Empty(t, c.All())
}

func TestReloadErrorKeepsCache(t *testing.T) {
	repo := newRepo()
	c := NewCache(repo, zap.NewNop())
	require.NoError(t, c.Reload(context.Background(), 1))

	repo.err = errors.New("db down")
	assert.Error(t, c.Reload(context.Background(), 1))
	_, ok := c.Get(1)
	assert.True(t, ok)
}

func TestRemove(t *testing.T) {
	c := NewCache(newRepo(), zap.NewNop())
	require.NoError(t, c.Reload(context.Background(), 1))

	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
	_, ok := c.GetByName("signup")
	assert.False(t, ok)
}
