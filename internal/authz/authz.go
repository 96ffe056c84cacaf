// Package authz decides who may act on a claim.
package authz

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/policy"
	"github.com/mmynk/claimflow/internal/storage"
)

// AccountReader loads accounts.
type AccountReader interface {
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
}

// ClaimReader loads claims.
type ClaimReader interface {
	GetClaim(ctx context.Context, claimID string) (*models.Claim, error)
}

// Principal is a resolved actor.
type Principal struct {
	ID    string
	Roles models.RoleSet
}

// Has reports whether the principal holds role.
func (p Principal) Has(role models.Role) bool {
	return p.Roles.Has(role)
}

// StoreResolver resolves role sets from stored accounts.
type StoreResolver struct {
	accounts AccountReader
}

// NewResolver creates a StoreResolver.
func NewResolver(accounts AccountReader) *StoreResolver {
	return &StoreResolver{accounts: accounts}
}

// Roles returns the roles of accountID. Blank and unknown ids hold no role
// and are not an error.
func (r *StoreResolver) Roles(ctx context.Context, accountID string) (models.RoleSet, error) {
	if strings.TrimSpace(accountID) == "" {
		return 0, nil
	}
	account, err := r.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Dependency("resolve roles", err)
	}
	return account.Roles, nil
}

// HasRole reports whether accountID holds role.
func (r *StoreResolver) HasRole(ctx context.Context, accountID string, role models.Role) (bool, error) {
	roles, err := r.Roles(ctx, accountID)
	if err != nil {
		return false, err
	}
	return roles.Has(role), nil
}

// Gate answers authorization questions about claims.
type Gate struct {
	claims   ClaimReader
	resolver *StoreResolver
}

// NewGate creates a Gate.
func NewGate(claims ClaimReader, accounts AccountReader) *Gate {
	return &Gate{claims: claims, resolver: NewResolver(accounts)}
}

// Resolver exposes the gate's role resolver.
func (g *Gate) Resolver() *StoreResolver {
	return g.resolver
}

// Resolve returns the principal for actorID.
func (g *Gate) Resolve(ctx context.Context, actorID string) (Principal, error) {
	roles, err := g.resolver.Roles(ctx, actorID)
	if err != nil {
		return Principal{}, err
	}
	return Principal{ID: actorID, Roles: roles}, nil
}

// CanActorMutate reports whether actorID is an admin, or owns the claim
// while it is still submitted.
func (g *Gate) CanActorMutate(ctx context.Context, claimID, actorID string) (bool, error) {
	p, claim, err := g.load(ctx, claimID, actorID)
	if err != nil {
		return false, err
	}
	return MayMutate(p, claim), nil
}

// CanReviewerAct reports whether reviewerID may review the claim.
func (g *Gate) CanReviewerAct(ctx context.Context, claimID, reviewerID string) (bool, error) {
	p, claim, err := g.load(ctx, claimID, reviewerID)
	if err != nil {
		return false, err
	}
	return IsReviewer(p, claim), nil
}

func (g *Gate) load(ctx context.Context, claimID, actorID string) (Principal, *models.Claim, error) {
	claim, err := g.claims.GetClaim(ctx, claimID)
	if errors.Is(err, storage.ErrNotFound) {
		return Principal{}, nil, apperr.NotFound("authorize", "claim", claimID)
	}
	if err != nil {
		return Principal{}, nil, apperr.Dependency("authorize", err)
	}
	p, err := g.Resolve(ctx, actorID)
	if err != nil {
		return Principal{}, nil, err
	}
	return p, claim, nil
}

// MayMutate is CanActorMutate for already loaded values.
func MayMutate(p Principal, claim *models.Claim) bool {
	if p.ID == "" {
		return false
	}
	if p.Has(models.RoleAdmin) {
		return true
	}
	return claim.OwnerID == p.ID && claim.Status == models.StatusSubmitted
}

// IsReviewer reports whether p reviews the claim: p is the assigned
// reviewer, or p is an engineer owning a claim that sits unassigned in the
// admin pool (engineers review their own claims).
func IsReviewer(p Principal, claim *models.Claim) bool {
	if p.ID == "" {
		return false
	}
	if claim.HasReviewer() {
		return claim.ReviewerID == p.ID
	}
	return claim.OwnerID == p.ID && p.Has(models.RoleEngineer)
}

// Capabilities lists what p is to the claim, for transition lookup.
func Capabilities(p Principal, claim *models.Claim) policy.Capabilities {
	var caps policy.Capabilities
	if p.ID == "" {
		return caps
	}
	if claim.OwnerID == p.ID {
		caps = caps.With(policy.CapOwner)
	}
	if p.Has(models.RoleAdmin) {
		caps = caps.With(policy.CapAdmin)
	}
	if p.Has(models.RoleEngineer) {
		caps = caps.With(policy.CapEngineer)
		if IsReviewer(p, claim) {
			caps = caps.With(policy.CapReviewer)
		}
	}
	return caps
}
