package natsadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/busfinder/busfinder/internal/core/domain"
)

func TestSubjectToken(t *testing.T) {
	cases := map[string]string{
		"abc123":          "abc123",
		"":                "_",
		"a.b":             "a_b",
		"user *> x":       "user____x",
		"rider@mail.test": "rider@mail_test",
	}
	for in, want := range cases {
		if got := SubjectToken(in); got != want {
			t.Errorf("SubjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeSearch(t *testing.T) {
	var got *domain.RecentSearch
	handler := func(ctx context.Context, rs *domain.RecentSearch) error {
		got = rs
		return nil
	}

	err := decodeSearch(context.Background(), []byte(`{"user_id":"u1","origin_stop_id":"a","destination_stop_id":"b"}`), handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.UserID != "u1" || got.DestinationStopID != "b" {
		t.Errorf("unexpected decode: %+v", got)
	}

	err = decodeSearch(context.Background(), []byte(`{not json`), handler)
	if !isPoison(err) {
		t.Errorf("expected poison error, got %v", err)
	}
}

func TestIsPoison(t *testing.T) {
	if !isPoison(domain.NewUsageError("bad entry")) {
		t.Error("usage errors must not be redelivered")
	}
	if isPoison(errors.New("db down")) {
		t.Error("transient errors must be redelivered")
	}
	if isPoison(domain.Upstream("replace", errors.New("timeout"))) {
		t.Error("upstream errors must be redelivered")
	}
}
