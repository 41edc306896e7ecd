package sharding

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabric/internal/cache"
	"github.com/dropDatabas3/fabric/internal/errs"
)

// masters resuelve grupo → master; un grupo ausente no tiene master.
type masters map[string]uuid.UUID

func (m masters) Master(ctx context.Context, id string) (uuid.UUID, bool, error) {
	u, ok := m[id]
	return u, ok, nil
}

var (
	g1Master = uuid.MustParse("8c5a5d3e-6f0e-11e3-8b1f-000000000001")
	g2Master = uuid.MustParse("8c5a5d3e-6f0e-11e3-8b1f-000000000002")
	g3Master = uuid.MustParse("8c5a5d3e-6f0e-11e3-8b1f-000000000003")

	fleet = masters{"G1": g1Master, "G2": g2Master, "G3": g3Master}
)

func newDirectory(t *testing.T) *Directory {
	t.Helper()
	return NewDirectory(NewMemoryStore(), fleet, cache.NewMemory("", time.Minute), time.Minute)
}

// withThreeShards arma db1.t1 → SM1 con [0,1000]→G1, [1001,2000]→G2, [2001,3000]→G3,
// agregados en el orden dado.
func withThreeShards(t *testing.T, d *Directory, order []int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, d.AddShardMapping(ctx, "db1.t1", "userID", "RANGE", "SM1"))
	shards := []struct {
		lower, upper int64
		group        string
	}{
		{0, 1000, "G1"},
		{1001, 2000, "G2"},
		{2001, 3000, "G3"},
	}
	for _, i := range order {
		s := shards[i]
		require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", s.lower, s.upper, s.group))
	}
}

func TestRangeNonOverlap(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 0, 1000, "G1"))
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 1001, 2000, "G2"))

	tests := []struct {
		name         string
		lower, upper int64
	}{
		{"spans both", 999, 1500},
		{"touches lower boundary", 1000, 1000},
		{"touches upper boundary", 2000, 2500},
		{"inside", 10, 20},
		{"covers all", -5, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.AddShard(ctx, "RANGE", "SM1", tt.lower, tt.upper, "G3")
			require.ErrorIs(t, err, ErrRangeOverlap)
			require.True(t, errs.IsConflict(err))
		})
	}

	// otra especificación es independiente
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM2", 999, 1500, "G3"))
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 2001, 2001, "G3"))
}

func TestAddShardValidation(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	require.ErrorIs(t, d.AddShard(ctx, "RANGE", "SM1", 10, 5, "G1"), ErrInvalidRange)
	require.ErrorIs(t, d.AddShard(ctx, "HASH", "SM1", 0, 5, "G1"), ErrUnsupportedType)
	require.ErrorIs(t, d.AddShard(ctx, "RANGE", "", 0, 5, "G1"), ErrEmptyName)
	require.NoError(t, d.AddShard(ctx, "range", "SM1", 5, 5, "G1"))
}

func TestLookupExactness(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	withThreeShards(t, d, []int{0, 1, 2})

	tests := []struct {
		key  int64
		want string
	}{
		{500, g1Master.String()},
		{0, g1Master.String()},
		{1000, g1Master.String()},
		{1001, g2Master.String()},
		{2000, g2Master.String()},
		{3000, g3Master.String()},
		{9999, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		addr, err := d.Lookup(ctx, "db1.t1", tt.key)
		if err != nil {
			t.Fatalf("lookup %d: %v", tt.key, err)
		}
		if addr != tt.want {
			t.Errorf("lookup %d = %q, want %q", tt.key, addr, tt.want)
		}
	}

	if addr, err := d.Lookup(ctx, "db9.unmapped", 500); err != nil || addr != "" {
		t.Fatalf("unmapped table: got %q, %v", addr, err)
	}
}

func TestGoFishOrdering(t *testing.T) {
	want := []string{g1Master.String(), g2Master.String(), g3Master.String()}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}
	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			d := newDirectory(t)
			withThreeShards(t, d, order)

			got, err := d.GoFishLookup(context.Background(), "db1.t1")
			if err != nil {
				t.Fatalf("go fish: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Fatalf("go fish = %v, want %v", got, want)
			}
		})
	}
}

func TestGoFishSkipsAndDedupes(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	require.NoError(t, d.AddShardMapping(ctx, "db1.t1", "id", "RANGE", "SM1"))
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 0, 10, "G1"))
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 11, 20, "GX"))
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 21, 30, "G1"))
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 31, 40, "G2"))

	got, err := d.GoFishLookup(ctx, "db1.t1")
	require.NoError(t, err)
	require.Equal(t, []string{g1Master.String(), g2Master.String()}, got)

	got, err = d.GoFishLookup(ctx, "db1.none")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRemovalConsistency(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)
	withThreeShards(t, d, []int{0, 1, 2})

	removed, err := d.RemoveShard(ctx, "RANGE", "SM1", 500)
	require.NoError(t, err)
	require.True(t, removed)

	addr, err := d.Lookup(ctx, "db1.t1", 500)
	require.NoError(t, err)
	require.Empty(t, addr)

	addr, err = d.Lookup(ctx, "db1.t1", 1500)
	require.NoError(t, err)
	require.Equal(t, g2Master.String(), addr)

	removed, err = d.RemoveShard(ctx, "RANGE", "SM1", 500)
	require.NoError(t, err)
	require.False(t, removed)

	// el hueco vuelve a estar disponible
	require.NoError(t, d.AddShard(ctx, "RANGE", "SM1", 0, 1000, "G3"))
}

func TestShardMappings(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	require.NoError(t, d.AddShardMapping(ctx, "db1.t1", "userID1", "RANGE", "SM1"))
	require.NoError(t, d.AddShardMapping(ctx, "db2.t2", "userID2", "RANGE", "SM2"))
	require.NoError(t, d.AddShardMapping(ctx, "db0.t0", "userID0", "RANGE", "SM0"))

	err := d.AddShardMapping(ctx, "db1.t1", "other", "RANGE", "SM9")
	require.ErrorIs(t, err, ErrMappingExists)
	require.ErrorIs(t, d.AddShardMapping(ctx, "db3.t3", "c", "HASH", "SM3"), ErrUnsupportedType)

	m, err := d.LookupShardMapping(ctx, "db1.t1")
	require.NoError(t, err)
	require.Equal(t, ShardMapping{TableName: "db1.t1", ColumnName: "userID1", TypeName: "RANGE", ShardingSpecification: "SM1"}, m)

	list, err := d.List(ctx, "RANGE")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"db1.t1", "db2.t2", "db0.t0"},
		[]string{list[0].TableName, list[1].TableName, list[2].TableName})

	removed, err := d.RemoveShardMapping(ctx, "db1.t1")
	require.NoError(t, err)
	require.True(t, removed)

	m, err = d.LookupShardMapping(ctx, "db1.t1")
	require.NoError(t, err)
	require.True(t, m.IsZero())

	removed, err = d.RemoveShardMapping(ctx, "db1.t1")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestMappingCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("", time.Minute)
	d := NewDirectory(NewMemoryStore(), fleet, c, time.Minute)

	require.NoError(t, d.AddShardMapping(ctx, "db1.t1", "id", "RANGE", "SM1"))
	_, err := d.LookupShardMapping(ctx, "db1.t1")
	require.NoError(t, err)

	_, err = c.Get(ctx, mappingKey("db1.t1"))
	require.NoError(t, err)

	_, err = d.RemoveShardMapping(ctx, "db1.t1")
	require.NoError(t, err)
	_, err = c.Get(ctx, mappingKey("db1.t1"))
	require.ErrorIs(t, err, cache.ErrNotFound)
}
