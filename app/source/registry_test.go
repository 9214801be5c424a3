package source

import (
	"context"
	"errors"
	"testing"
)

type stubBackend struct{ typ string }

func (s *stubBackend) Type() string { return s.typ }
func (s *stubBackend) FetchNew(ctx context.Context, url string, since int64, opts Options) (*Result, error) {
	return &Result{}, nil
}
func (s *stubBackend) Transfer(ctx context.Context, link, dest string) error { return nil }
func (s *stubBackend) Describe(ctx context.Context, link string) (string, error) {
	return "", ErrNotSupported
}
func (s *stubBackend) ProbeDuration(ctx context.Context, path string) (int, error) {
	return 0, ErrNotSupported
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubBackend{typ: "rss"})

	if _, err := r.Get("rss"); err != nil {
		t.Errorf("Expected registered backend, got %v", err)
	}

	_, err := r.Get("gopher")
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("Expected ErrNotSupported for unknown type, got %v", err)
	}

	if types := r.Types(); len(types) != 1 || types[0] != "rss" {
		t.Errorf("Unexpected types: %v", types)
	}
}
