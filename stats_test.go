package framing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessorStats(t *testing.T) {
	p := newTestProcessor(t, lineRule(), Config{})
	var got []string

	require.NoError(t, p.Process([]byte("a\nbb\nccc"), collect(&got)))
	stats := p.Stats()
	require.Equal(t, uint64(8), stats.BytesIn)
	require.Equal(t, uint64(2), stats.Messages)
	require.Equal(t, int64(3), stats.Buffered)
	require.Equal(t, int64(3), stats.PeakBuffered, "measured once decoding is done")
	require.Equal(t, uint64(1), stats.Compactions)
	require.Equal(t, int64(DefaultInitialCapacity), stats.Capacity)

	require.NoError(t, p.Finish(true, collect(&got)))
	stats = p.Stats()
	require.Equal(t, int64(0), stats.Buffered)
	require.Equal(t, int64(0), stats.Capacity)
	require.Equal(t, int64(3), stats.PeakBuffered)
}

func TestProcessorStatsConcurrentSnapshots(t *testing.T) {
	p := newTestProcessor(t, lineRule(), Config{})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = p.Stats()
			}
		}
	}()

	for range 1000 {
		require.NoError(t, p.Process([]byte("line\n"), func(string) {}))
	}
	close(stop)
	wg.Wait()

	require.Equal(t, uint64(1000), p.Stats().Messages)
	require.Equal(t, uint64(5000), p.Stats().BytesIn)
}
