package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
)

func sampleReport(subject string) *models.ComparativeReport {
	return &models.ComparativeReport{
		Subject: subject,
		Articles: []models.ArticleAnnotation{{
			Title:     "A",
			Summary:   "s",
			Sentiment: models.Sentiment{Label: models.Positive, Score: 0.9},
			Topics:    []string{"ev"},
		}},
		SentimentDistribution: models.SentimentDistribution{models.Positive: 1, models.Negative: 0, models.Neutral: 0},
		DominantSentiment:     models.Positive,
		Verdict:               subject + "'s latest news coverage is mostly POSITIVE.",
		NarrationReference:    models.NarrationUnavailable,
		GeneratedAt:           time.Date(2026, 2, 18, 10, 0, 0, 0, time.UTC),
	}
}

// fakeRedis is an in-memory stand-in for the handful of commands the
// store issues.
type fakeRedis struct {
	mu      sync.Mutex
	strings map[string]string
	ttls    map[string]time.Duration
	sets    map[string]map[string]bool
	failSet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: map[string]string{},
		ttls:    map[string]time.Duration{},
		sets:    map[string]map[string]bool{},
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return redis.NewStatusResult("", errors.New("READONLY"))
	}
	switch v := value.(type) {
	case []byte:
		f.strings[key] = string(v)
	case string:
		f.strings[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets[key] == nil {
		f.sets[key] = map[string]bool{}
	}
	for _, m := range members {
		f.sets[key][m.(string)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) SRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.sets[key], m.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) Close() error { return nil }

// expire simulates a TTL elapsing.
func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.strings, key)
}

func backends(t *testing.T) map[string]ReportStore {
	t.Helper()
	return map[string]ReportStore{
		"memory": NewMemoryStore(time.Hour),
		"redis":  newRedisStore(newFakeRedis(), time.Hour),
	}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Put(ctx, sampleReport("Tata Motors")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			// Lookups are case and whitespace insensitive.
			got, err := s.Get(ctx, "  tata   MOTORS ")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Subject != "Tata Motors" || got.DominantSentiment != models.Positive {
				t.Errorf("got %+v", got)
			}
			if len(got.Articles) != 1 || got.Articles[0].Topics[0] != "ev" {
				t.Errorf("articles = %+v", got.Articles)
			}
			if got.SentimentDistribution[models.Positive] != 1 {
				t.Errorf("distribution = %v", got.SentimentDistribution)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := sampleReport("Tesla")
			second := sampleReport("TESLA")
			second.DominantSentiment = models.Negative
			if err := s.Put(ctx, first); err != nil {
				t.Fatal(err)
			}
			if err := s.Put(ctx, second); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, "tesla")
			if err != nil {
				t.Fatal(err)
			}
			if got.DominantSentiment != models.Negative {
				t.Errorf("dominant = %s, want latest write", got.DominantSentiment)
			}
			keys, _ := s.List(ctx)
			if len(keys) != 1 {
				t.Errorf("keys = %v, want one", keys)
			}
		})
	}
}

func TestStore_NotFoundAndEmptyKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Get(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get missing: err = %v", err)
			}
			if _, err := s.Get(ctx, " -- "); !errors.Is(err, ErrEmptyKey) {
				t.Errorf("Get empty: err = %v", err)
			}
			if err := s.Put(ctx, sampleReport("!!!")); !errors.Is(err, ErrEmptyKey) {
				t.Errorf("Put empty: err = %v", err)
			}
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, c := range []string{"Tesla", "Apple", "Tata Motors"} {
				if err := s.Put(ctx, sampleReport(c)); err != nil {
					t.Fatal(err)
				}
			}
			keys, err := s.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"apple", "tata-motors", "tesla"}
			if !sort.StringsAreSorted(keys) || len(keys) != len(want) {
				t.Fatalf("keys = %v, want %v", keys, want)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
				}
			}
		})
	}
}

func TestRedisStore_ListPrunesExpired(t *testing.T) {
	fake := newFakeRedis()
	s := newRedisStore(fake, time.Minute)
	ctx := context.Background()
	s.Put(ctx, sampleReport("Tesla"))
	s.Put(ctx, sampleReport("Apple"))

	fake.expire(reportKeyPrefix + "tesla")

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "apple" {
		t.Errorf("keys = %v, want [apple]", keys)
	}
	if fake.sets[reportIndexKey]["tesla"] {
		t.Error("expired key still indexed")
	}
	if fake.ttls[reportKeyPrefix+"apple"] != time.Minute {
		t.Errorf("ttl = %v", fake.ttls[reportKeyPrefix+"apple"])
	}
}

func TestRedisStore_SetError(t *testing.T) {
	fake := newFakeRedis()
	fake.failSet = true
	s := newRedisStore(fake, 0)
	if err := s.Put(context.Background(), sampleReport("Tesla")); err == nil {
		t.Error("expected error")
	}
}

func TestRedisStore_CorruptValue(t *testing.T) {
	fake := newFakeRedis()
	fake.strings[reportKeyPrefix+"tesla"] = "{not json"
	s := newRedisStore(fake, 0)
	if _, err := s.Get(context.Background(), "Tesla"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want decode error", err)
	}
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	in := sampleReport("Tesla")
	in.Comparisons = []models.Comparison{{Label: "A vs B", Impact: "i"}}
	if err := s.Put(ctx, in); err != nil {
		t.Fatal(err)
	}
	in.Articles[0].Title = "changed after Put"

	got, err := s.Get(ctx, "Tesla")
	if err != nil {
		t.Fatal(err)
	}
	if got.Articles[0].Title == "changed after Put" {
		t.Error("Put kept a reference to the caller's report")
	}
	got.Articles[0].Topics[0] = "mutated"
	got.SentimentDistribution[models.Positive] = 99
	got.Comparisons[0].Label = "x"

	again, err := s.Get(ctx, "Tesla")
	if err != nil {
		t.Fatal(err)
	}
	if again.Articles[0].Topics[0] == "mutated" ||
		again.SentimentDistribution[models.Positive] == 99 ||
		again.Comparisons[0].Label == "x" {
		t.Errorf("Get returned shared state: %+v", again)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	ctx := context.Background()
	s.Put(ctx, sampleReport("Tesla"))
	time.Sleep(40 * time.Millisecond)
	if _, err := s.Get(ctx, "Tesla"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after TTL", err)
	}
	if keys, _ := s.List(ctx); len(keys) != 0 {
		t.Errorf("keys = %v", keys)
	}
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Backend: "memory"}, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	s.Close()

	if _, err := New(context.Background(), config.StorageConfig{Backend: "etcd"}, nil); err == nil {
		t.Error("unknown backend: expected error")
	}
}
