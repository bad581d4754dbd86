package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/busfinder/busfinder/internal/core/domain"
)

func TestNotFoundError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("resolve: %w", &domain.NotFoundError{Kind: "stop", Key: "Abando"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Error("expected NotFoundError to match ErrNotFound")
	}
	if err.Error() != "resolve: stop not found: Abando" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestUpstream_DoesNotDoubleWrap(t *testing.T) {
	base := errors.New("deadline exceeded")
	once := domain.Upstream("list lines", base)
	twice := domain.Upstream("search", once)

	if once != twice {
		t.Error("expected an existing UpstreamError to be returned unchanged")
	}
	if !errors.Is(twice, base) {
		t.Error("expected UpstreamError to unwrap to the cause")
	}
	if domain.Upstream("noop", nil) != nil {
		t.Error("expected nil for nil cause")
	}
}

func TestLine_IndexOfFirstOccurrence(t *testing.T) {
	l := domain.Line{Stops: []string{"A", "B", "A", "C"}}
	if got := l.IndexOf("A"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := l.IndexOf("Z"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}
