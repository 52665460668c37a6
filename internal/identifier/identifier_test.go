package identifier

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		existing []string
		expected string
	}{
		{name: "Empty snapshot", prefix: PrefixDeferral, existing: nil, expected: "DEF-00001"},
		{name: "Gap uses max", prefix: PrefixDeferral, existing: []string{"DEF-00001", "DEF-00007"}, expected: "DEF-00008"},
		{name: "Garbage only", prefix: PrefixDeferral, existing: []string{"garbage"}, expected: "DEF-00001"},
		{name: "Other prefixes ignored", prefix: PrefixFlight, existing: []string{"FL-00003", "FLX-00009", "DEF-00010"}, expected: "FL-00004"},
		{name: "Unordered input", prefix: PrefixAirport, existing: []string{"APT-00012", "APT-00002", "APT-00010"}, expected: "APT-00013"},
		{name: "Suffix with spaces rejected", prefix: PrefixRegistration, existing: []string{"REGN-0001 ", " REGN-00004"}, expected: "REGN-00001"},
		{name: "Grows past padding", prefix: PrefixFlight, existing: []string{"FL-99999"}, expected: "FL-100000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Next(tt.prefix, tt.existing))
		})
	}
}

func TestNext_PrefixIsLiteral(t *testing.T) {
	// Regex metacharacters in the prefix must not widen the match
	assert.Equal(t, "A.B-00001", Next("A.B", []string{"AXB-00005"}))
}

func newTestAllocator(attempts int) *Allocator {
	return NewAllocator(attempts).WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

func TestAllocator_RetriesOnConflictWithFreshSnapshot(t *testing.T) {
	store := []string{"DEF-00001"}
	lists := 0
	var committed []string

	list := func(ctx context.Context) ([]string, error) {
		lists++
		return append([]string(nil), store...), nil
	}
	commit := func(ctx context.Context, id string) error {
		committed = append(committed, id)
		if len(committed) == 1 {
			// Another writer grabbed the same number between read and write
			store = append(store, id)
			return ErrConflict
		}
		store = append(store, id)
		return nil
	}

	id, err := newTestAllocator(3).Allocate(context.Background(), PrefixDeferral, list, commit)
	require.NoError(t, err)
	assert.Equal(t, "DEF-00003", id)
	assert.Equal(t, []string{"DEF-00002", "DEF-00003"}, committed)
	assert.Equal(t, 2, lists)
}

func TestAllocator_Exhausted(t *testing.T) {
	list := func(ctx context.Context) ([]string, error) { return nil, nil }
	commit := func(ctx context.Context, id string) error { return ErrConflict }

	_, err := newTestAllocator(2).Allocate(context.Background(), PrefixFlight, list, commit)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestAllocator_ListFailureIsPermanent(t *testing.T) {
	calls := 0
	list := func(ctx context.Context) ([]string, error) {
		calls++
		return nil, errors.New("connection refused")
	}
	commit := func(ctx context.Context, id string) error {
		t.Fatal("commit must not run when the snapshot cannot be read")
		return nil
	}

	_, err := newTestAllocator(5).Allocate(context.Background(), PrefixAirport, list, commit)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAllocator_CommitFailureIsPermanent(t *testing.T) {
	calls := 0
	list := func(ctx context.Context) ([]string, error) { return nil, nil }
	commit := func(ctx context.Context, id string) error {
		calls++
		return errors.New("disk full")
	}

	_, err := newTestAllocator(5).Allocate(context.Background(), PrefixAirport, list, commit)
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, calls)
}
