package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestPacedNilLimiterIsPassthrough(t *testing.T) {
	p := newFakePanel()

	assert.Same(t, p, Paced(p, nil))
	assert.Nil(t, NewLimiter(0, 1))
}

func TestPacedWaitsBeforeLoadMore(t *testing.T) {
	inner := newFakePanel([][]Item{items(1)}, [][]Item{items(2)}, [][]Item{items(3)})
	p := Paced(inner, rate.NewLimiter(rate.Every(time.Hour), 1))

	more, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, more)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	more, err = p.LoadMore(ctx)
	assert.Error(t, err)
	assert.False(t, more)
	assert.Equal(t, 1, inner.loadMoreCalls)
}

func TestPacedKeepsBlocks(t *testing.T) {
	inner := newFakePanel([][]Item{items(1)})
	p := Paced(inner, NewLimiter(100, 0))

	blocks, err := p.Blocks(context.Background())
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}
