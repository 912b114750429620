package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mapbook/mapbook/internal/db"
	"github.com/mapbook/mapbook/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	delErr  error
	lastKey string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.lastKey = key
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func sampleRun(id string) domain.Run {
	return domain.Run{
		ID:        id,
		CreatedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Language:  "English",
		Segments:  3,
		Events: []domain.GeoEvent{
			{Seq: 1, Title: "Siege of Paris", Latitude: 48.8566, Longitude: 2.3522},
			{Seq: 3, Title: "Arrival in Tokyo", Latitude: 35.6762, Longitude: 139.6503},
		},
		Skipped: []domain.SkippedSegment{{Seq: 2, Reason: "address not found"}},
	}
}

// --- Memory tests ---

func TestMemory_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	want := sampleRun("r1")
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != want.ID || len(got.Events) != 2 || got.Events[1].Seq != 3 {
		t.Errorf("got %+v", got)
	}

	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "r1"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("err after delete = %v, want ErrRunNotFound", err)
	}
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get err = %v, want ErrRunNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Delete err = %v, want ErrRunNotFound", err)
	}
}

// --- KV tests ---

func TestKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ms := newMockStore()
	repo := NewKV(ms, "mapbook:", 0)

	want := sampleRun("r1")
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := ms.data["mapbook:run:r1"]; !ok {
		t.Fatalf("run stored under unexpected key, have %v", ms.data)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "r1" || got.Segments != 3 || len(got.Skipped) != 1 {
		t.Errorf("got %+v", got)
	}
	if got.Events[0].Latitude != 48.8566 {
		t.Errorf("latitude = %f", got.Events[0].Latitude)
	}
}

func TestKV_SaveWithTTL(t *testing.T) {
	ctx := context.Background()
	ms := newMockStore()
	repo := NewKV(ms, "mapbook:", 24*time.Hour)

	if err := repo.Save(ctx, sampleRun("r1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ms.ttls["mapbook:run:r1"] != 24*time.Hour {
		t.Errorf("ttl = %v, want 24h", ms.ttls["mapbook:run:r1"])
	}
}

func TestKV_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewKV(newMockStore(), "mapbook:", 0)

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get err = %v, want ErrRunNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Delete err = %v, want ErrRunNotFound", err)
	}
}

func TestKV_Delete(t *testing.T) {
	ctx := context.Background()
	ms := newMockStore()
	repo := NewKV(ms, "mapbook:", 0)

	if err := repo.Save(ctx, sampleRun("r1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := ms.data["mapbook:run:r1"]; ok {
		t.Error("key still present after delete")
	}
}

func TestKV_StoreError(t *testing.T) {
	ctx := context.Background()
	ms := newMockStore()
	ms.getErr = errors.New("conn reset")
	repo := NewKV(ms, "mapbook:", 0)

	if _, err := repo.Get(ctx, "r1"); err == nil || errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("transport error must not map to ErrRunNotFound, got %v", err)
	}
}
