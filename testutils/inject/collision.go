package inject

import (
	"context"

	"go.viam.com/primitives/collision"
)

// Oracle is an injected validity oracle.
type Oracle struct {
	collision.Oracle
	IsValidFunc func(ctx context.Context, c collision.Candidate, ignore collision.IgnoreSet) (bool, error)
}

// IsValid calls the injected IsValid or the real version.
func (o *Oracle) IsValid(ctx context.Context, c collision.Candidate, ignore collision.IgnoreSet) (bool, error) {
	if o.IsValidFunc == nil {
		return o.Oracle.IsValid(ctx, c, ignore)
	}
	return o.IsValidFunc(ctx, c, ignore)
}

// Proxy is an injected collision proxy.
type Proxy struct {
	collision.Proxy
	SaveFunc        func(ctx context.Context) (collision.ProxyState, error)
	MoveToFunc      func(ctx context.Context, c collision.Candidate) error
	InCollisionFunc func(ctx context.Context, ignore collision.IgnoreSet) (bool, error)
	RestoreFunc     func(ctx context.Context, state collision.ProxyState) error
}

// Save calls the injected Save or the real version.
func (p *Proxy) Save(ctx context.Context) (collision.ProxyState, error) {
	if p.SaveFunc == nil {
		return p.Proxy.Save(ctx)
	}
	return p.SaveFunc(ctx)
}

// MoveTo calls the injected MoveTo or the real version.
func (p *Proxy) MoveTo(ctx context.Context, c collision.Candidate) error {
	if p.MoveToFunc == nil {
		return p.Proxy.MoveTo(ctx, c)
	}
	return p.MoveToFunc(ctx, c)
}

// InCollision calls the injected InCollision or the real version.
func (p *Proxy) InCollision(ctx context.Context, ignore collision.IgnoreSet) (bool, error) {
	if p.InCollisionFunc == nil {
		return p.Proxy.InCollision(ctx, ignore)
	}
	return p.InCollisionFunc(ctx, ignore)
}

// Restore calls the injected Restore or the real version.
func (p *Proxy) Restore(ctx context.Context, state collision.ProxyState) error {
	if p.RestoreFunc == nil {
		return p.Proxy.Restore(ctx, state)
	}
	return p.RestoreFunc(ctx, state)
}
