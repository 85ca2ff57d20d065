package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Josconicme/trial-insight/internal/db"
)

type mockStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	incrByFn func(ctx context.Context, key string, val int64) error
	expireFn func(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) error {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	return nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl, nx)
	}
	return nil
}

func TestIncrBy_SetsTTLByPeriod(t *testing.T) {
	tests := []struct {
		key  string
		want time.Duration
	}{
		{"trialinsight:budget:openai:daily:2026-10-17", time.Hour},
		{"trialinsight:budget:openai:monthly:2026-10", 2 * time.Hour},
	}
	for _, tt := range tests {
		var gotTTL time.Duration
		var gotNX bool
		ms := &mockStore{
			expireFn: func(_ context.Context, _ string, ttl time.Duration, nx bool) error {
				gotTTL, gotNX = ttl, nx
				return nil
			},
		}
		s := New(ms, time.Hour, 2*time.Hour)
		if err := s.IncrBy(context.Background(), tt.key, 10); err != nil {
			t.Fatalf("IncrBy: %v", err)
		}
		if gotTTL != tt.want || !gotNX {
			t.Errorf("%s: ttl=%v nx=%v, want %v nx=true", tt.key, gotTTL, gotNX, tt.want)
		}
	}
}

func TestIncrBy_StoreError(t *testing.T) {
	ms := &mockStore{
		incrByFn: func(context.Context, string, int64) error { return errors.New("down") },
		expireFn: func(context.Context, string, time.Duration, bool) error {
			t.Fatal("expire must not run after a failed increment")
			return nil
		},
	}
	if err := New(ms, 0, 0).IncrBy(context.Background(), "k:daily:x", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		err     error
		want    int64
		wantErr bool
	}{
		{"missing key", nil, db.ErrKeyNotFound, 0, false},
		{"value", []byte("1234"), nil, 1234, false},
		{"garbage", []byte("abc"), nil, 0, true},
		{"store error", nil, errors.New("timeout"), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &mockStore{getFn: func(context.Context, string) ([]byte, error) { return tt.data, tt.err }}
			got, err := New(ms, 0, 0).Get(context.Background(), "k")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(&mockStore{}, 0, -1)
	if s.dailyTTL != DefaultDailyTTL || s.monthlyTTL != DefaultMonthlyTTL {
		t.Errorf("ttls = %v/%v", s.dailyTTL, s.monthlyTTL)
	}
}
