package redisx

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redismock/v9"
)

func TestMarkDoneThenExists(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := fmt.Sprintf(KeyDedup, "billing", "req-1")

	mock.ExpectExists(key).SetVal(0)
	mock.ExpectSet(key, "1", TTLDedup).SetVal("OK")
	mock.ExpectExists(key).SetVal(1)

	ctx := context.Background()
	if ok, err := Exists(ctx, rdb, key); err != nil || ok {
		t.Fatalf("fresh key: ok=%v err=%v", ok, err)
	}
	if err := MarkDone(ctx, rdb, key); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if ok, err := Exists(ctx, rdb, key); err != nil || !ok {
		t.Fatalf("expected key after mark: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestExists(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectExists("k").SetVal(1)

	ok, err := Exists(context.Background(), rdb, "k")
	if err != nil || !ok {
		t.Fatalf("expected key to exist: ok=%v err=%v", ok, err)
	}
}
