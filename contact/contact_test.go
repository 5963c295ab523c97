package contact

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNormalize(t *testing.T) {
	ok := Submission{Name: "  Ana ", Email: "ana@example.com", Message: " olá "}
	if err := ok.Normalize(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok.Name != "Ana" || ok.Message != "olá" {
		t.Fatalf("expected trimmed fields, got %+v", ok)
	}

	cases := []struct {
		sub   Submission
		field string
	}{
		{Submission{Email: "a@b.co", Message: "m"}, "name"},
		{Submission{Name: "n", Message: "m"}, "email"},
		{Submission{Name: "n", Email: "not-an-email", Message: "m"}, "email"},
		{Submission{Name: "n", Email: "Ana <a@b.co>", Message: "m"}, "email"},
		{Submission{Name: "n", Email: "a@b.co"}, "message"},
		{Submission{Name: strings.Repeat("x", MaxNameLen+1), Email: "a@b.co", Message: "m"}, "name"},
		{Submission{Name: "n", Email: "a@b.co", Message: strings.Repeat("x", MaxMessageLen+1)}, "message"},
	}
	for _, tc := range cases {
		err := tc.sub.Normalize()
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != tc.field {
			t.Fatalf("expected field error on %s, got %v", tc.field, err)
		}
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	}
}

func TestMemoryStore_KeepsNewestWithinBound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, Submission{ID: id}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if len(s.list) != 2 || s.list[0].ID != "b" || s.list[1].ID != "c" {
		t.Fatalf("unexpected list: %+v", s.list)
	}
}

func TestRedisStore_SaveNewestFirstAndTrimmed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	s := NewRedisStore(rdb, WithRedisKey("t:contact"), WithRedisMax(2))
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, Submission{ID: id, Name: "n", ReceivedAt: at}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	raw, err := mr.List("t:contact")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected trimmed list, got %d", len(raw))
	}
	var newest Submission
	if err := json.Unmarshal([]byte(raw[0]), &newest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if newest.ID != "c" || !newest.ReceivedAt.Equal(at) {
		t.Fatalf("unexpected newest: %+v", newest)
	}
}
