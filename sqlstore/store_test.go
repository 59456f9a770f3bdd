package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/engine"
	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/vector"
)

func openStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := New(context.Background(), db)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store, db
}

func memStore(t *testing.T, items map[string][]float32) *embedding.Store {
	t.Helper()
	s := embedding.NewStore()
	for id, vec := range items {
		if err := s.Put(id, vec); err != nil {
			t.Fatalf("Put(%q) failed: %v", id, err)
		}
	}
	return s
}

// TestStore_SaveLoad verifies a bit-exact round trip through SQLite.
func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	want := memStore(t, map[string][]float32{
		"A": {0, float32(math.Copysign(0, -1))},
		"B": {math.MaxFloat32, math.SmallestNonzeroFloat32},
		"C": {1.1, -2.2},
	})
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// saving again replaces the table
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if n, err := store.Count(ctx); err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3", n, err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(want.IDs(), got.IDs()) {
		t.Fatalf("Load ids = %v, want %v", got.IDs(), want.IDs())
	}
	want.Range(func(id string, vec []float32) bool {
		other, err := got.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		for i := range vec {
			if math.Float32bits(vec[i]) != math.Float32bits(other[i]) {
				t.Errorf("%s[%d] = %v, want %v", id, i, other[i], vec[i])
			}
		}
		return true
	})
}

func TestStore_UpsertRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	if err := store.Upsert(ctx, "a", []float32{1, 2}); err != nil {
		t.Fatalf("Upsert a failed: %v", err)
	}
	if err := store.Upsert(ctx, "a", []float32{3, 4}); err != nil {
		t.Fatalf("Upsert a again failed: %v", err)
	}
	err := store.Upsert(ctx, "b", []float32{1, 2, 3})
	var mismatch *vector.DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Upsert b error = %v, want DimensionMismatchError", err)
	}
	if err := store.Upsert(ctx, "", []float32{1}); !errors.Is(err, embedding.ErrInvalidID) {
		t.Fatalf("Upsert empty id error = %v", err)
	}
	// the only row may change dimension
	if err := store.Upsert(ctx, "a", []float32{5}); err != nil {
		t.Fatalf("Upsert a with new dim failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if vec, _ := loaded.Get("a"); !reflect.DeepEqual(vec, []float32{5}) {
		t.Fatalf("a = %v, want [5]", vec)
	}

	removed, err := store.Remove(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Remove(a) = %v, %v", removed, err)
	}
	removed, err = store.Remove(ctx, "a")
	if err != nil || removed {
		t.Fatalf("second Remove(a) = %v, %v", removed, err)
	}
}

// TestStore_Nearest checks SQL ranking against the in-memory engine.
func TestStore_Nearest(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	abc := memStore(t, map[string][]float32{"A": {0, 0}, "B": {3, 4}, "C": {1, 1}})
	if err := store.Save(ctx, abc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	res, err := store.Nearest(ctx, "A", 2, rank.Clamp)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if got := res.IDs(); !reflect.DeepEqual(got, []string{"C", "B"}) {
		t.Fatalf("Nearest ids = %v, want [C B]", got)
	}
	if res.Neighbors[1].Distance != 5 {
		t.Fatalf("B distance = %v, want 5", res.Neighbors[1].Distance)
	}

	if _, err := store.Nearest(ctx, "Z", 1, rank.Clamp); !errors.Is(err, embedding.ErrNotFound) {
		t.Fatalf("Nearest(Z) error = %v, want not found", err)
	}
	if _, err := store.Nearest(ctx, "A", 0, rank.Clamp); !errors.Is(err, rank.ErrInvalidK) {
		t.Fatalf("Nearest k=0 error = %v", err)
	}
	var insufficient *rank.InsufficientDataError
	if _, err := store.Nearest(ctx, "A", 3, rank.Strict); !errors.As(err, &insufficient) {
		t.Fatalf("Nearest strict error = %v", err)
	}

	rng := rand.New(rand.NewSource(11))
	big := embedding.NewStore()
	for i := 0; i < 120; i++ {
		vec := []float32{float32(rng.Intn(3)), float32(rng.Intn(3)), float32(rng.Intn(3))}
		if err := big.Put(fmt.Sprintf("p%03d", i), vec); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := store.Save(ctx, big); err != nil {
		t.Fatalf("Save big failed: %v", err)
	}
	for _, id := range big.IDs()[:15] {
		for _, k := range []int{1, 10, 119, 200} {
			want, err := rank.Rank(big, id, k)
			if err != nil {
				t.Fatalf("rank.Rank failed: %v", err)
			}
			got, err := store.Nearest(ctx, id, k, rank.Clamp)
			if err != nil {
				t.Fatalf("Nearest failed: %v", err)
			}
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("Nearest(%s, %d) = %+v, want %+v", id, k, got, want)
			}
		}
	}
}

func TestStore_NearestSingle(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	if err := store.Upsert(ctx, "only", []float32{1}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	res, err := store.Nearest(ctx, "only", 3, rank.Strict)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(res.Neighbors) != 0 || res.Candidates != 0 {
		t.Fatalf("Nearest on single row = %+v, want empty", res)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	_, db := openStore(t)
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if err := EnsureSchema(context.Background(), nil); err == nil {
		t.Fatalf("EnsureSchema(nil) succeeded")
	}
}
