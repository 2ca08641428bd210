package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"hotel_search/internal/domain"
)

func TestErrors_MatchSentinels(t *testing.T) {
	cases := []struct {
		err    error
		target error
	}{
		{&domain.ValidationError{Field: "name", Reason: "blank"}, domain.ErrValidation},
		{&domain.NullArgumentError{Arg: "location"}, domain.ErrNullArgument},
		{&domain.NotFoundError{ID: uuid.New()}, domain.ErrNotFound},
		{&domain.DuplicateError{Name: "A"}, domain.ErrDuplicate},
		{&domain.StoreError{Op: "add", Err: errors.New("boom")}, domain.ErrStore},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.target) {
			t.Fatalf("%T does not match %v", c.err, c.target)
		}
		if c.err.Error() == "" {
			t.Fatalf("%T has empty message", c.err)
		}
	}
}

func TestStoreError_Unwraps(t *testing.T) {
	err := &domain.StoreError{Op: "add", Err: domain.ErrAlreadyExists}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected cause to be reachable")
	}
	if errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected match")
	}
}
