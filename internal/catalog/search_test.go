package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
)

func runOn(products func() int) func(context.Context, catalog.FacetState) (catalog.Result, error) {
	return func(_ context.Context, f catalog.FacetState) (catalog.Result, error) {
		return catalog.Result{TotalCount: products()}, nil
	}
}

func TestSearcher_NoWindow(t *testing.T) {
	s := catalog.NewSearcher(0, func(_ context.Context, f catalog.FacetState) (catalog.Result, error) {
		return catalog.Query(fixture(), f, 12), nil
	})
	f := base()
	f.Query = "nova"
	res, err := s.Search(context.Background(), "c1", f)
	require.NoError(t, err)
	assert.Equal(t, 8, res.TotalCount)
	assert.Equal(t, 0, s.Pending())
}

func TestSearcher_NewerRequestSupersedesWaitingOne(t *testing.T) {
	s := catalog.NewSearcher(200*time.Millisecond, runOn(func() int { return 1 }))

	first := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "c1", base())
		first <- err
	}()
	time.Sleep(20 * time.Millisecond)

	res, err := s.Search(context.Background(), "c1", base())
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
	assert.ErrorIs(t, <-first, catalog.ErrSuperseded)
}

func TestSearcher_StaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := catalog.NewSearcher(0, func(_ context.Context, f catalog.FacetState) (catalog.Result, error) {
		if f.Query == "slow" {
			close(started)
			<-release
		}
		return catalog.Result{TotalCount: len(f.Query)}, nil
	})

	slow := make(chan error, 1)
	go func() {
		f := base()
		f.Query = "slow"
		_, err := s.Search(context.Background(), "c1", f)
		slow <- err
	}()
	<-started

	f := base()
	f.Query = "fast!"
	res, err := s.Search(context.Background(), "c1", f)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)

	close(release)
	assert.ErrorIs(t, <-slow, catalog.ErrSuperseded)
	assert.Equal(t, 0, s.Pending())
}

func TestSearcher_ClientsAreIndependent(t *testing.T) {
	s := catalog.NewSearcher(30*time.Millisecond, runOn(func() int { return 2 }))
	errs := make(chan error, 2)
	for _, c := range []string{"a", "b"} {
		go func(client string) {
			_, err := s.Search(context.Background(), client, base())
			errs <- err
		}(c)
	}
	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
}

func TestSearcher_ContextCancelled(t *testing.T) {
	s := catalog.NewSearcher(time.Second, runOn(func() int { return 0 }))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Search(ctx, "c1", base())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, s.Pending())
}

func TestSearcher_RunErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	s := catalog.NewSearcher(0, func(context.Context, catalog.FacetState) (catalog.Result, error) {
		return catalog.Result{}, boom
	})
	_, err := s.Search(context.Background(), "c1", base())
	assert.ErrorIs(t, err, boom)
}
