package managers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/types"
)

// ReadingDistributor receives readings from the stations and fans them out
// to every subscriber.
type ReadingDistributor struct {
	C chan types.Reading

	logger      *zap.SugaredLogger
	mu          sync.RWMutex
	subscribers []chan types.Reading
}

// NewReadingDistributor creates a distributor and starts its fan-out loop.
func NewReadingDistributor(ctx context.Context, wg *sync.WaitGroup, logger *zap.SugaredLogger) *ReadingDistributor {
	d := &ReadingDistributor{
		C:      make(chan types.Reading, 20),
		logger: logger,
	}

	wg.Add(1)
	go d.run(ctx, wg)

	return d
}

// Subscribe returns a channel that receives every subsequent reading. A
// subscriber that falls more than buffer readings behind misses readings
// rather than stalling the stations.
func (d *ReadingDistributor) Subscribe(buffer int) <-chan types.Reading {
	c := make(chan types.Reading, buffer)

	d.mu.Lock()
	d.subscribers = append(d.subscribers, c)
	d.mu.Unlock()

	return c
}

func (d *ReadingDistributor) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	readingCount := 0
	for {
		select {
		case r := <-d.C:
			readingCount++
			d.logger.Debugw("reading received",
				"station", r.StationName,
				"count", readingCount,
				"temp_f", r.OutTemp,
				"wind_mph", r.WindSpeed,
				"missing", r.Missing,
			)

			d.mu.RLock()
			for _, sub := range d.subscribers {
				select {
				case sub <- r:
				default:
					d.logger.Warnf("subscriber is full, dropping reading from [%s]", r.StationName)
				}
			}
			d.mu.RUnlock()
		case <-ctx.Done():
			return
		}
	}
}
