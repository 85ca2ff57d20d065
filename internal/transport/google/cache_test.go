package google

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.Coordinates, bool, error)
	calls     int
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	m.calls++
	return m.geocodeFn(ctx, address)
}

func TestCachedGeocoder_HitAfterSuccess(t *testing.T) {
	inner := &mockGeocoder{geocodeFn: func(context.Context, string) (domain.Coordinates, bool, error) {
		return domain.Coordinates{Lat: 1, Lng: 2}, true, nil
	}}
	c, err := NewCachedGeocoder(inner, 10)
	if err != nil {
		t.Fatal(err)
	}

	hits := testutil.ToFloat64(metrics.GeocodeCacheTotal.WithLabelValues("hit"))
	for range 3 {
		got, ok, err := c.Geocode(context.Background(), "Paris, France")
		if err != nil || !ok || got.Lat != 1 {
			t.Fatalf("got %+v ok=%v err=%v", got, ok, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if d := testutil.ToFloat64(metrics.GeocodeCacheTotal.WithLabelValues("hit")) - hits; d != 2 {
		t.Errorf("hit delta = %v, want 2", d)
	}
}

func TestCachedGeocoder_MissesAndErrorsNotCached(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		err  error
	}{
		{"no match", false, nil},
		{"error", false, errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &mockGeocoder{geocodeFn: func(context.Context, string) (domain.Coordinates, bool, error) {
				return domain.Coordinates{}, tt.ok, tt.err
			}}
			c, _ := NewCachedGeocoder(inner, 10)
			_, _, _ = c.Geocode(context.Background(), "a")
			_, _, _ = c.Geocode(context.Background(), "a")
			if inner.calls != 2 || c.Len() != 0 {
				t.Errorf("calls=%d len=%d, want 2/0", inner.calls, c.Len())
			}
		})
	}
}

func TestCachedGeocoder_Bounded(t *testing.T) {
	inner := &mockGeocoder{geocodeFn: func(context.Context, string) (domain.Coordinates, bool, error) {
		return domain.Coordinates{}, true, nil
	}}
	c, _ := NewCachedGeocoder(inner, 2)
	for _, a := range []string{"a", "b", "c"} {
		_, _, _ = c.Geocode(context.Background(), a)
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	_, _, _ = c.Geocode(context.Background(), "a")
	if inner.calls != 4 {
		t.Errorf("evicted entry should be refetched, calls = %d", inner.calls)
	}
}
