package sharding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/fabric/internal/cache"
	"github.com/dropDatabas3/fabric/internal/executor"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// Directory resuelve tablas y keys a grupos. No tiene locks propios para el store: la
// atomicidad de las mutaciones depende de la transacción del llamador.
//
// Los mapeos se cachean. Una lectura sólo se guarda en cache si su transacción empezó
// después del último cambio de mapeos confirmado y no hay cambios en curso.
type Directory struct {
	store   Store
	masters MasterResolver
	cache   cache.Client
	ttl     time.Duration

	mu        sync.Mutex
	inFlight  int    // cambios de mapeo sin COMMIT/ROLLBACK
	changedAt uint64 // executor.Stamp del último cambio terminado
}

// NewDirectory crea el directorio. c puede ser nil (sin cache).
func NewDirectory(store Store, masters MasterResolver, c cache.Client, ttl time.Duration) *Directory {
	if c == nil {
		c = cache.Nop{}
	}
	return &Directory{store: store, masters: masters, cache: c, ttl: ttl}
}

func mappingKey(table string) string { return "mapping:" + table }

// AddShardMapping crea el mapeo de table. Falla si la tabla ya está mapeada.
func (d *Directory) AddShardMapping(ctx context.Context, table, column, typeName, spec string) error {
	if strings.TrimSpace(table) == "" || strings.TrimSpace(spec) == "" {
		return ErrEmptyName
	}
	t, err := NormalizeType(typeName)
	if err != nil {
		return err
	}
	if _, ok, err := d.store.GetMapping(ctx, table); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrMappingExists, table)
	}

	m := ShardMapping{TableName: table, ColumnName: column, TypeName: t, ShardingSpecification: spec}
	if err := d.store.AddMapping(ctx, m); err != nil {
		return err
	}
	d.invalidate(ctx, table)
	logger.From(ctx).Info("shard mapping added", logger.Table(table), logger.ShardSpec(spec))
	return nil
}

// RemoveShardMapping borra el mapeo. Una tabla sin mapear no es error.
func (d *Directory) RemoveShardMapping(ctx context.Context, table string) (bool, error) {
	removed, err := d.store.RemoveMapping(ctx, table)
	if err != nil {
		return false, err
	}
	d.invalidate(ctx, table)
	return removed, nil
}

// LookupShardMapping retorna el mapeo de table o el mapeo vacío si no existe.
func (d *Directory) LookupShardMapping(ctx context.Context, table string) (ShardMapping, error) {
	if v, err := d.cache.Get(ctx, mappingKey(table)); err == nil {
		var m ShardMapping
		if json.Unmarshal([]byte(v), &m) == nil {
			return m, nil
		}
	}

	start := executor.TxStart(ctx)
	m, ok, err := d.store.GetMapping(ctx, table)
	if err != nil || !ok {
		return ShardMapping{}, err
	}
	d.remember(ctx, start, m)
	return m, nil
}

// remember guarda m en cache si la lectura que lo produjo no puede ser anterior a un
// cambio de mapeos.
func (d *Directory) remember(ctx context.Context, start uint64, m ShardMapping) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight > 0 || start <= d.changedAt {
		return
	}
	if err := d.cache.Set(ctx, mappingKey(m.TableName), string(b), d.ttl); err != nil {
		logger.From(ctx).Debug("cache set failed", logger.Table(m.TableName), logger.Err(err))
	}
}

// List retorna los mapeos del tipo en orden de creación.
func (d *Directory) List(ctx context.Context, typeName string) ([]ShardMapping, error) {
	t, err := NormalizeType(typeName)
	if err != nil {
		return nil, err
	}
	return d.store.ListMappings(ctx, t)
}

// AddShard agrega el rango [lower, upper] de spec asignado a groupID.
func (d *Directory) AddShard(ctx context.Context, typeName, spec string, lower, upper int64, groupID string) error {
	if _, err := NormalizeType(typeName); err != nil {
		return err
	}
	if strings.TrimSpace(spec) == "" || strings.TrimSpace(groupID) == "" {
		return ErrEmptyName
	}
	if lower > upper {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidRange, lower, upper)
	}

	r := RangeShardingSpecification{Name: spec, LowerBound: lower, UpperBound: upper, GroupID: groupID}
	clash, err := d.store.Overlapping(ctx, spec, lower, upper)
	if err != nil {
		return err
	}
	if len(clash) > 0 {
		return fmt.Errorf("%w: %s overlaps %s", ErrRangeOverlap, r, clash[0])
	}
	if err := d.store.AddRange(ctx, r); err != nil {
		return err
	}
	logger.From(ctx).Info("shard added",
		logger.ShardSpec(spec), logger.GroupID(groupID),
		logger.Any("lower_bound", lower), logger.Any("upper_bound", upper))
	return nil
}

// RemoveShard borra el rango de spec que contiene key. Si ninguno la contiene no hace nada.
func (d *Directory) RemoveShard(ctx context.Context, typeName, spec string, key int64) (bool, error) {
	if _, err := NormalizeType(typeName); err != nil {
		return false, err
	}
	r, ok, err := d.store.FindRange(ctx, spec, key)
	if err != nil || !ok {
		return false, err
	}
	if err := d.store.RemoveRange(ctx, spec, r.LowerBound); err != nil {
		return false, err
	}
	logger.From(ctx).Info("shard removed", logger.ShardSpec(spec), logger.GroupID(r.GroupID))
	return true, nil
}

// Lookup retorna el server_uuid del master del grupo dueño de key en table. Retorna ""
// si la tabla no está mapeada, si hay un hueco en la cobertura o si el grupo no tiene master.
func (d *Directory) Lookup(ctx context.Context, table string, key int64) (string, error) {
	m, err := d.LookupShardMapping(ctx, table)
	if err != nil || m.IsZero() {
		return "", err
	}
	r, ok, err := d.store.FindRange(ctx, m.ShardingSpecification, key)
	if err != nil || !ok {
		return "", err
	}
	master, ok, err := d.masters.Master(ctx, r.GroupID)
	if err != nil || !ok {
		return "", err
	}
	return master.String(), nil
}

// GoFishLookup retorna los masters de todos los grupos con rangos en la especificación
// de table, ordenados por lower bound ascendente. Cada grupo aparece una vez; los
// grupos sin master se omiten.
func (d *Directory) GoFishLookup(ctx context.Context, table string) ([]string, error) {
	m, err := d.LookupShardMapping(ctx, table)
	if err != nil || m.IsZero() {
		return []string{}, err
	}
	ranges, err := d.store.Ranges(ctx, m.ShardingSpecification)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ranges))
	seen := make(map[string]struct{}, len(ranges))
	for _, r := range ranges {
		if _, dup := seen[r.GroupID]; dup {
			continue
		}
		seen[r.GroupID] = struct{}{}
		master, ok, err := d.masters.Master(ctx, r.GroupID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, master.String())
		}
	}
	return out, nil
}

// invalidate saca table del cache ahora y otra vez cuando termine la transacción en
// curso. Mientras tanto ninguna lectura se cachea.
func (d *Directory) invalidate(ctx context.Context, table string) {
	d.mu.Lock()
	d.inFlight++
	d.evict(ctx, table)
	d.mu.Unlock()

	executor.AfterTx(ctx, func(bool) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.inFlight--
		d.changedAt = executor.Stamp()
		d.evict(ctx, table)
	})
}

func (d *Directory) evict(ctx context.Context, table string) {
	if err := d.cache.Delete(ctx, mappingKey(table)); err != nil {
		logger.From(ctx).Warn("cache invalidation failed", logger.Table(table), logger.Err(err))
	}
}
