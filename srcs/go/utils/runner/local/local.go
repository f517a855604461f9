package local

import (
	"context"

	"github.com/alibaba/HybridBackend/srcs/go/log"
	"golang.org/x/sync/errgroup"
)

// Member is one unit of a fate-sharing group
type Member interface {
	Name() string

	// Run blocks until the member exits. It must return soon after ctx is done.
	Run(ctx context.Context) error
}

// RunAll runs all members in parallel and returns the first failure.
// The first failure cancels the context passed to every other member.
func RunAll(ctx context.Context, ms []Member) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range ms {
		g.Go(func() error {
			err := m.Run(ctx)
			switch {
			case err == nil:
				log.Debugf("#<%s> finished successfully", m.Name())
			case ctx.Err() != nil:
				log.Warnf("#<%s> terminated: %v", m.Name(), err)
			default:
				log.Errorf("#<%s> exited with error: %v", m.Name(), err)
			}
			return err
		})
	}
	return g.Wait()
}
