package services

import (
	"context"

	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/sharding"
)

const shardingGroup = "sharding"

func shardingCommands(dir *sharding.Directory) []command.Command {
	ready := func() bool { return dir != nil }
	cmd := func(name, usage string, n int, fn func(ctx context.Context, args []string) (any, error)) command.Command {
		return &funcCommand{Base: command.NewBase(shardingGroup, name), usage: usage, min: n, max: n, ready: ready, execute: fn}
	}

	return []command.Command{
		cmd("add_shard_mapping", "table column type spec", 4, func(ctx context.Context, a []string) (any, error) {
			return nil, dir.AddShardMapping(ctx, a[0], a[1], a[2], a[3])
		}),
		cmd("remove_shard_mapping", "table", 1, func(ctx context.Context, a []string) (any, error) {
			_, err := dir.RemoveShardMapping(ctx, a[0])
			return nil, err
		}),
		cmd("lookup_shard_mapping", "table", 1, func(ctx context.Context, a []string) (any, error) {
			return dir.LookupShardMapping(ctx, a[0])
		}),
		cmd("list", "type", 1, func(ctx context.Context, a []string) (any, error) {
			return dir.List(ctx, a[0])
		}),
		cmd("add_shard", "type spec lower upper group", 5, func(ctx context.Context, a []string) (any, error) {
			lower, err := parseKey(a[2])
			if err != nil {
				return nil, err
			}
			upper, err := parseKey(a[3])
			if err != nil {
				return nil, err
			}
			return nil, dir.AddShard(ctx, a[0], a[1], lower, upper, a[4])
		}),
		cmd("remove_shard", "type spec key", 3, func(ctx context.Context, a []string) (any, error) {
			key, err := parseKey(a[2])
			if err != nil {
				return nil, err
			}
			_, err = dir.RemoveShard(ctx, a[0], a[1], key)
			return nil, err
		}),
		cmd("lookup", "table key", 2, func(ctx context.Context, a []string) (any, error) {
			key, err := parseKey(a[1])
			if err != nil {
				return nil, err
			}
			return dir.Lookup(ctx, a[0], key)
		}),
		cmd("go_fish_lookup", "table", 1, func(ctx context.Context, a []string) (any, error) {
			return dir.GoFishLookup(ctx, a[0])
		}),
	}
}
