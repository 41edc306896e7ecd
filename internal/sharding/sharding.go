// Package sharding implementa el directorio de shards: el mapeo tabla → especificación
// de sharding y la resolución de una key al grupo dueño del rango que la contiene.
package sharding

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/errs"
)

// TypeRange es el único esquema soportado.
const TypeRange = "RANGE"

// ShardMapping asocia una tabla a una especificación de sharding.
type ShardMapping struct {
	TableName             string `json:"table_name"`
	ColumnName            string `json:"column_name"`
	TypeName              string `json:"type_name"`
	ShardingSpecification string `json:"sharding_specification"`
}

// IsZero reporta si es el mapeo vacío (tabla sin mapear).
func (m ShardMapping) IsZero() bool { return m == ShardMapping{} }

// RangeShardingSpecification es un rango [LowerBound, UpperBound] (inclusivo) de una
// especificación, asignado a un grupo.
type RangeShardingSpecification struct {
	Name       string `json:"name"`
	LowerBound int64  `json:"lower_bound"`
	UpperBound int64  `json:"upper_bound"`
	GroupID    string `json:"group_id"`
}

// Contains reporta si key cae en el rango.
func (r RangeShardingSpecification) Contains(key int64) bool {
	return r.LowerBound <= key && key <= r.UpperBound
}

// Overlaps reporta si los dos rangos comparten alguna key.
func (r RangeShardingSpecification) Overlaps(o RangeShardingSpecification) bool {
	return r.LowerBound <= o.UpperBound && o.LowerBound <= r.UpperBound
}

func (r RangeShardingSpecification) String() string {
	return fmt.Sprintf("%s[%d,%d]->%s", r.Name, r.LowerBound, r.UpperBound, r.GroupID)
}

var (
	ErrUnsupportedType = fmt.Errorf("%w: sharding type", errs.ErrNotSupported)
	ErrMappingExists   = fmt.Errorf("%w: table already has a shard mapping", errs.ErrConflict)
	ErrInvalidRange    = fmt.Errorf("%w: lower bound greater than upper bound", errs.ErrPrecondition)
	ErrRangeOverlap    = fmt.Errorf("%w: range overlaps an existing range", errs.ErrConflict)
	ErrEmptyName       = fmt.Errorf("%w: empty name", errs.ErrPrecondition)
)

// NormalizeType valida el tipo de sharding y lo retorna en mayúsculas.
func NormalizeType(t string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(t))
	if n != TypeRange {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	return n, nil
}

// Store persiste mapeos y rangos.
type Store interface {
	AddMapping(ctx context.Context, m ShardMapping) error
	RemoveMapping(ctx context.Context, table string) (bool, error)
	GetMapping(ctx context.Context, table string) (ShardMapping, bool, error)
	// ListMappings retorna los mapeos del tipo en orden de creación.
	ListMappings(ctx context.Context, typeName string) ([]ShardMapping, error)

	// Overlapping retorna, bloqueándolos si el backend lo soporta, los rangos de spec
	// que se solapan con [lower, upper].
	Overlapping(ctx context.Context, spec string, lower, upper int64) ([]RangeShardingSpecification, error)
	// AddRange inserta el rango. Retorna ErrRangeOverlap si se solapa.
	AddRange(ctx context.Context, r RangeShardingSpecification) error
	RemoveRange(ctx context.Context, spec string, lower int64) error
	// FindRange retorna el rango de spec que contiene key.
	FindRange(ctx context.Context, spec string, key int64) (RangeShardingSpecification, bool, error)
	// Ranges retorna los rangos de spec ordenados por LowerBound.
	Ranges(ctx context.Context, spec string) ([]RangeShardingSpecification, error)
}

// MasterResolver resuelve el master de un grupo. ok es false si no tiene.
type MasterResolver interface {
	Master(ctx context.Context, groupID string) (master uuid.UUID, ok bool, err error)
}
