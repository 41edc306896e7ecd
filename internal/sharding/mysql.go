package sharding

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/fabric/internal/persistence"
	pmysql "github.com/dropDatabas3/fabric/internal/persistence/mysql"
)

var _ Store = (*MySQLStore)(nil)

const (
	createShardMaps = `CREATE TABLE shard_maps (
		seq BIGINT NOT NULL AUTO_INCREMENT,
		table_name VARCHAR(64) NOT NULL,
		column_name VARCHAR(64) NOT NULL,
		type_name VARCHAR(16) NOT NULL,
		sharding_specification VARCHAR(64) NOT NULL,
		PRIMARY KEY (seq),
		UNIQUE KEY uq_shard_maps_table (table_name)
	) ENGINE=InnoDB`

	createShardRanges = `CREATE TABLE shard_ranges (
		name VARCHAR(64) NOT NULL,
		lower_bound BIGINT NOT NULL,
		upper_bound BIGINT NOT NULL,
		group_id VARCHAR(64) NOT NULL,
		KEY idx_shard_ranges_name (name, lower_bound)
	) ENGINE=InnoDB`

	addRangesUnique  = `ALTER TABLE shard_ranges ADD CONSTRAINT uq_shard_ranges_lower UNIQUE (name, lower_bound)`
	dropRangesUnique = `ALTER TABLE shard_ranges DROP INDEX uq_shard_ranges_lower`

	rangeColumns = `name, lower_bound, upper_bound, group_id`
	mapColumns   = `table_name, column_name, type_name, sharding_specification`
)

// MySQLStore persiste el directorio con el Persister del contexto. Las mutaciones
// deben correr dentro de la transacción del llamador.
type MySQLStore struct{}

// NewMySQLStore crea el store.
func NewMySQLStore() *MySQLStore { return &MySQLStore{} }

func (s *MySQLStore) PersistableName() string { return "sharding" }

func (s *MySQLStore) Create(ctx context.Context, p *persistence.Persister) error {
	for _, stmt := range []string{createShardMaps, createShardRanges} {
		if err := p.Exec(ctx, stmt); err != nil {
			if pmysql.IsTableExists(err) {
				return fmt.Errorf("%w: %v", persistence.ErrAlreadyExists, err)
			}
			return err
		}
	}
	return nil
}

func (s *MySQLStore) AddConstraints(ctx context.Context, p *persistence.Persister) error {
	return p.Exec(ctx, addRangesUnique)
}

func (s *MySQLStore) DropConstraints(ctx context.Context, p *persistence.Persister) error {
	err := p.Exec(ctx, dropRangesUnique)
	if pmysql.IsMissingKey(err) || pmysql.IsNoSuchTable(err) {
		return nil
	}
	return err
}

func (s *MySQLStore) Drop(ctx context.Context, p *persistence.Persister) error {
	for _, stmt := range []string{"DROP TABLE IF EXISTS shard_ranges", "DROP TABLE IF EXISTS shard_maps"} {
		if err := p.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) AddMapping(ctx context.Context, m ShardMapping) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	err = p.Exec(ctx, `INSERT INTO shard_maps (`+mapColumns+`) VALUES (?, ?, ?, ?)`,
		m.TableName, m.ColumnName, m.TypeName, m.ShardingSpecification)
	if pmysql.IsDuplicateEntry(err) {
		return fmt.Errorf("%w: %s", ErrMappingExists, m.TableName)
	}
	return err
}

func (s *MySQLStore) RemoveMapping(ctx context.Context, table string) (bool, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return false, err
	}
	if _, ok, err := s.GetMapping(ctx, table); err != nil || !ok {
		return false, err
	}
	if err := p.Exec(ctx, `DELETE FROM shard_maps WHERE table_name = ?`, table); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MySQLStore) GetMapping(ctx context.Context, table string) (ShardMapping, bool, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return ShardMapping{}, false, err
	}
	rows, err := p.Query(ctx, `SELECT `+mapColumns+` FROM shard_maps WHERE table_name = ?`, table)
	if err != nil || len(rows) == 0 {
		return ShardMapping{}, false, err
	}
	return scanMapping(rows[0]), true, nil
}

func (s *MySQLStore) ListMappings(ctx context.Context, typeName string) ([]ShardMapping, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := p.Query(ctx, `SELECT `+mapColumns+` FROM shard_maps WHERE type_name = ? ORDER BY seq`, typeName)
	if err != nil {
		return nil, err
	}
	out := make([]ShardMapping, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanMapping(r))
	}
	return out, nil
}

func (s *MySQLStore) Overlapping(ctx context.Context, spec string, lower, upper int64) ([]RangeShardingSpecification, error) {
	return s.queryRanges(ctx, `SELECT `+rangeColumns+` FROM shard_ranges
		WHERE name = ? AND lower_bound <= ? AND upper_bound >= ?
		ORDER BY lower_bound, group_id FOR UPDATE`, spec, upper, lower)
}

func (s *MySQLStore) AddRange(ctx context.Context, r RangeShardingSpecification) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	err = p.Exec(ctx, `INSERT INTO shard_ranges (`+rangeColumns+`) VALUES (?, ?, ?, ?)`,
		r.Name, r.LowerBound, r.UpperBound, r.GroupID)
	if pmysql.IsDuplicateEntry(err) {
		return fmt.Errorf("%w: %s", ErrRangeOverlap, r)
	}
	return err
}

func (s *MySQLStore) RemoveRange(ctx context.Context, spec string, lower int64) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	return p.Exec(ctx, `DELETE FROM shard_ranges WHERE name = ? AND lower_bound = ?`, spec, lower)
}

func (s *MySQLStore) FindRange(ctx context.Context, spec string, key int64) (RangeShardingSpecification, bool, error) {
	rs, err := s.queryRanges(ctx, `SELECT `+rangeColumns+` FROM shard_ranges
		WHERE name = ? AND lower_bound <= ?
		ORDER BY lower_bound DESC LIMIT 1`, spec, key)
	if err != nil || len(rs) == 0 || !rs[0].Contains(key) {
		return RangeShardingSpecification{}, false, err
	}
	return rs[0], true, nil
}

func (s *MySQLStore) Ranges(ctx context.Context, spec string) ([]RangeShardingSpecification, error) {
	return s.queryRanges(ctx, `SELECT `+rangeColumns+` FROM shard_ranges
		WHERE name = ? ORDER BY lower_bound, group_id`, spec)
}

func (s *MySQLStore) queryRanges(ctx context.Context, stmt string, params ...any) ([]RangeShardingSpecification, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := p.Query(ctx, stmt, params...)
	if err != nil {
		return nil, err
	}
	out := make([]RangeShardingSpecification, 0, len(rows))
	for _, r := range rows {
		lower, err := r.Int64(1)
		if err != nil {
			return nil, fmt.Errorf("shard_ranges.lower_bound: %w", err)
		}
		upper, err := r.Int64(2)
		if err != nil {
			return nil, fmt.Errorf("shard_ranges.upper_bound: %w", err)
		}
		out = append(out, RangeShardingSpecification{
			Name: r.String(0), LowerBound: lower, UpperBound: upper, GroupID: r.String(3),
		})
	}
	return out, nil
}

func scanMapping(r persistence.Row) ShardMapping {
	return ShardMapping{
		TableName:             r.String(0),
		ColumnName:            r.String(1),
		TypeName:              r.String(2),
		ShardingSpecification: r.String(3),
	}
}
