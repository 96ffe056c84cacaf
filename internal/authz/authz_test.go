package authz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/policy"
	"github.com/mmynk/claimflow/internal/storage"
)

type fakeStore struct {
	accounts map[string]*models.Account
	claims   map[string]*models.Claim
	err      error
}

func (f *fakeStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	return a, nil
}

func (f *fakeStore) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	c, ok := f.claims[id]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func newFake() *fakeStore {
	return &fakeStore{
		accounts: map[string]*models.Account{
			"emp":   {ID: "emp", Roles: models.NewRoleSet(models.RoleEmployee)},
			"eng":   {ID: "eng", Roles: models.NewRoleSet(models.RoleEngineer)},
			"eng2":  {ID: "eng2", Roles: models.NewRoleSet(models.RoleEngineer)},
			"admin": {ID: "admin", Roles: models.NewRoleSet(models.RoleAdmin)},
		},
		claims: map[string]*models.Claim{
			"c-sub":      {ID: "c-sub", OwnerID: "emp", Status: models.StatusSubmitted, ReviewerID: "eng"},
			"c-ver":      {ID: "c-ver", OwnerID: "emp", Status: models.StatusVerified, ReviewerID: "eng"},
			"c-own-eng":  {ID: "c-own-eng", OwnerID: "eng", Status: models.StatusSubmitted},
			"c-assigned": {ID: "c-assigned", OwnerID: "eng", Status: models.StatusSubmitted, ReviewerID: "eng2"},
		},
	}
}

func TestHasRole(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(newFake())

	tests := []struct {
		name string
		id   string
		role models.Role
		want bool
	}{
		{"holder", "eng", models.RoleEngineer, true},
		{"non holder", "emp", models.RoleEngineer, false},
		{"blank id", "", models.RoleAdmin, false},
		{"whitespace id", "   ", models.RoleAdmin, false},
		{"unknown id", "ghost", models.RoleAdmin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.HasRole(ctx, tt.id, tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("store failure is a dependency error", func(t *testing.T) {
		f := newFake()
		f.err = errors.New("db down")
		_, err := NewResolver(f).HasRole(ctx, "eng", models.RoleEngineer)
		assert.True(t, apperr.Is(err, apperr.KindDependency))
	})
}

func TestCanActorMutate(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	g := NewGate(f, f)

	tests := []struct {
		claim, actor string
		want         bool
	}{
		{"c-sub", "emp", true},
		{"c-ver", "emp", false},
		{"c-ver", "admin", true},
		{"c-sub", "eng", false},
		{"c-sub", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.claim+"/"+tt.actor, func(t *testing.T) {
			got, err := g.CanActorMutate(ctx, tt.claim, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := g.CanActorMutate(ctx, "missing", "admin")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCanReviewerAct(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	g := NewGate(f, f)

	tests := []struct {
		name, claim, actor string
		want               bool
	}{
		{"assigned reviewer", "c-sub", "eng", true},
		{"other engineer", "c-sub", "eng2", false},
		{"admin is not the reviewer", "c-sub", "admin", false},
		{"engineer owner of unassigned claim", "c-own-eng", "eng", true},
		{"engineer owner loses review once assigned", "c-assigned", "eng", false},
		{"blank reviewer", "c-sub", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.CanReviewerAct(ctx, tt.claim, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapabilities(t *testing.T) {
	claim := &models.Claim{OwnerID: "eng", Status: models.StatusSubmitted}

	caps := Capabilities(Principal{ID: "eng", Roles: models.NewRoleSet(models.RoleEngineer)}, claim)
	assert.True(t, caps.Has(policy.CapOwner))
	assert.True(t, caps.Has(policy.CapEngineer))
	assert.True(t, caps.Has(policy.CapReviewer))
	assert.False(t, caps.Has(policy.CapAdmin))

	caps = Capabilities(Principal{ID: "boss", Roles: models.NewRoleSet(models.RoleAdmin)}, claim)
	assert.Equal(t, policy.Capabilities(0).With(policy.CapAdmin), caps)

	assert.Equal(t, policy.Capabilities(0), Capabilities(Principal{}, claim))
}
