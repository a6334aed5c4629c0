package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/leadreach/leadreach/internal/model"
)

func TestRecordActivity_RejectsIncompleteEvents(t *testing.T) {
	t.Parallel()

	// Validation runs before the pool is touched, so a zero Repository is enough.
	repo := &Repository{}

	tests := []struct {
		name  string
		event *model.ActivityEvent
	}{
		{"missing username", &model.ActivityEvent{Kind: model.ActivityLogin}},
		{"missing kind", &model.ActivityEvent{Username: "ana"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := repo.RecordActivity(context.Background(), tt.event); !errors.Is(err, ErrInvalidActivity) {
				t.Errorf("RecordActivity() error = %v, want ErrInvalidActivity", err)
			}
		})
	}
}

func TestNonNil(t *testing.T) {
	t.Parallel()

	if got := nonNil(nil); got == nil || len(got) != 0 {
		t.Errorf("nonNil(nil) = %#v, want empty slice", got)
	}
	in := []string{"a"}
	if got := nonNil(in); len(got) != 1 || got[0] != "a" {
		t.Errorf("nonNil(%v) = %v", in, got)
	}
}
