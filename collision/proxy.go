package collision

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/primitives/logging"
)

// ProxyState is an opaque snapshot of a proxy's state returned by Save.
type ProxyState interface{}

// Proxy is a host side stand-in for the robot that can be moved to a candidate configuration and
// queried for collisions. Moving the proxy mutates shared simulator state, so every move must be
// undone with Restore.
type Proxy interface {
	Save(ctx context.Context) (ProxyState, error)
	MoveTo(ctx context.Context, c Candidate) error
	InCollision(ctx context.Context, ignore IgnoreSet) (bool, error)
	Restore(ctx context.Context, state ProxyState) error
}

// ProxyOracle checks candidates by moving a host proxy inside a save/restore transaction.
// It is not reentrant: a check requested while another is in flight fails with ErrReentrantCheck.
type ProxyOracle struct {
	proxy    Proxy
	logger   logging.Logger
	inFlight atomic.Bool
}

// NewProxyOracle returns an oracle backed by proxy.
func NewProxyOracle(proxy Proxy, logger logging.Logger) *ProxyOracle {
	return &ProxyOracle{proxy: proxy, logger: logger}
}

// IsValid saves the proxy state, moves the proxy to c, queries collisions and restores the saved
// state. The restore always runs, including when the move or query fails or panics.
func (o *ProxyOracle) IsValid(ctx context.Context, c Candidate, ignore IgnoreSet) (valid bool, err error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return false, ErrReentrantCheck
	}
	defer o.inFlight.Store(false)

	state, err := o.proxy.Save(ctx)
	if err != nil {
		return false, errors.Wrap(err, "saving proxy state")
	}
	defer func() {
		// restore even when ctx was cancelled mid check
		if restoreErr := o.proxy.Restore(context.WithoutCancel(ctx), state); restoreErr != nil {
			o.logger.Errorw("failed to restore collision proxy", "group", c.Group, "error", restoreErr)
			valid = false
			err = multierr.Combine(err, errors.Wrap(restoreErr, "restoring proxy state"))
		}
	}()

	if err := o.proxy.MoveTo(ctx, c); err != nil {
		return false, errors.Wrapf(err, "moving proxy for group %q", c.Group)
	}
	colliding, err := o.proxy.InCollision(ctx, ignore)
	if err != nil {
		return false, errors.Wrapf(err, "querying collisions for group %q", c.Group)
	}
	return !colliding, nil
}
