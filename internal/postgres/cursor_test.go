package postgres

import (
	"errors"
	"testing"
	"time"
)

func TestCursor_RoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), ID: "room-1"}

	s, err := EncodeCursor(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out == nil || out.ID != in.ID || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
}

func TestCursor_Empty(t *testing.T) {
	c, err := DecodeCursor("")
	if err != nil || c != nil {
		t.Fatalf("empty cursor should be nil, got %+v err=%v", c, err)
	}
}

func TestCursor_Invalid(t *testing.T) {
	if _, err := DecodeCursor("%%%not-base64%%%"); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}
