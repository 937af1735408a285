package fetchers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heliopulse/internal/logger"
	"heliopulse/internal/models"
)

// MergedSource completes a primary client's reading with fields from
// supplementary clients fetched alongside it. Only the primary decides the
// outcome; a failed supplement just leaves its fields out.
type MergedSource struct {
	primary     Client
	supplements []Client
}

// Merge wraps primary so every fetch also queries the supplements
func Merge(primary Client, supplements ...Client) *MergedSource {
	return &MergedSource{
		primary:     primary,
		supplements: append([]Client(nil), supplements...),
	}
}

// ID returns the primary source id
func (m *MergedSource) ID() string { return m.primary.ID() }

// Timeout returns the longest member timeout; members run in parallel
func (m *MergedSource) Timeout() time.Duration {
	t := m.primary.Timeout()
	for _, c := range m.supplements {
		if c.Timeout() > t {
			t = c.Timeout()
		}
	}
	return t
}

// Supplements returns the ids of the supplementary sources
func (m *MergedSource) Supplements() []string {
	ids := make([]string, len(m.supplements))
	for i, c := range m.supplements {
		ids[i] = c.ID()
	}
	return ids
}

// Fetch runs the primary and the supplements concurrently. Supplement values
// never overwrite a field the primary reported.
func (m *MergedSource) Fetch(ctx context.Context) (*models.Reading, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	extras := make([]*models.Reading, len(m.supplements))
	var wg sync.WaitGroup
	for i, c := range m.supplements {
		wg.Add(1)
		go func(i int, c Client) {
			defer wg.Done()
			extras[i] = m.fetchSupplement(ctx, c)
		}(i, c)
	}

	primary, err := m.primary.Fetch(ctx)
	if err != nil {
		cancel()
	}
	wg.Wait()
	if err != nil || primary == nil {
		return primary, err
	}

	merged := &models.Reading{
		Values:     make(map[string]float64, len(primary.Values)),
		Records:    primary.Records,
		ObservedAt: primary.ObservedAt,
	}
	for k, v := range primary.Values {
		merged.Values[k] = v
	}
	for _, extra := range extras {
		if extra == nil {
			continue
		}
		for k, v := range extra.Values {
			if _, ok := merged.Values[k]; !ok {
				merged.Values[k] = v
			}
		}
	}
	return merged, nil
}

func (m *MergedSource) fetchSupplement(ctx context.Context, c Client) (reading *models.Reading) {
	defer func() {
		if r := recover(); r != nil {
			reading = nil
			logger.Warn("Supplementary source panicked", map[string]interface{}{
				"source":  c.ID(),
				"primary": m.primary.ID(),
				"panic":   fmt.Sprint(r),
			})
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout())
	defer cancel()
	reading, err := c.Fetch(ctx)
	if err != nil {
		logger.Debug("Supplementary source failed", map[string]interface{}{
			"source":  c.ID(),
			"primary": m.primary.ID(),
			"error":   err.Error(),
		})
		return nil
	}
	return reading
}
