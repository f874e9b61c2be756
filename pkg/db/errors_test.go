package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{
			name: "postgres duplicate key",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "idx_carts_active_buyer" (SQLSTATE 23505)`),
			want: true,
		},
		{
			name: "sqlite unique constraint",
			err:  errors.New("UNIQUE constraint failed: milestone_records.user_id"),
			want: true,
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("create cart: %w", errors.New("duplicate key value violates unique constraint")),
			want: true,
		},
		{name: "other error", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
