package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/pricelist/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "pl:fans_db", `{"items":[]}`, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "pl:fans_db")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `{"items":[]}` {
		t.Fatalf("unexpected value %q", got)
	}

	if err := client.Del(ctx, "pl:fans_db"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "pl:fans_db"); err != ErrNil {
		t.Fatalf("expected ErrNil after delete, got %v", err)
	}
}

func TestMSetWritesAllPairs(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	err := client.MSet(ctx, map[string]string{"pl:fans_db": "[]", "pl:fans_db_seq": "4"})
	if err != nil {
		t.Fatalf("mset failed: %v", err)
	}
	if mock.data["pl:fans_db"] != "[]" || mock.data["pl:fans_db_seq"] != "4" {
		t.Fatalf("unexpected data %v", mock.data)
	}
	if mock.msets != 1 {
		t.Fatalf("expected a single MSET, got %d", mock.msets)
	}
	if err := client.MSet(ctx, nil); err != nil || mock.msets != 1 {
		t.Fatalf("empty mset should be a no-op, err=%v calls=%d", err, mock.msets)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil raw client should be a no-op, got %v", err)
	}
}

func TestKeyBuilder(t *testing.T) {
	client := &Client{}
	if got := client.Key("fans_db"); got != "pl:fans_db" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := client.Key("seq", " ", "fans_db"); got != "pl:seq:fans_db" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}

	custom := &Client{namespace: "shop"}
	if got := custom.Key("flexible_db"); got != "shop:flexible_db" {
		t.Fatalf("unexpected namespaced key %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6380",
		DB:          2,
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 5 {
		t.Fatalf("expected url db and config pool size, got db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

type mockCmdable struct {
	data  map[string]string
	msets int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) MSet(ctx context.Context, values ...any) *redis.StatusCmd {
	m.msets++
	for i := 0; i+1 < len(values); i += 2 {
		m.data[fmt.Sprint(values[i])] = fmt.Sprint(values[i+1])
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
