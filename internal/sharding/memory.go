package sharding

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

const btreeDegree = 8

// rangeItem ordena los rangos de una especificación por lower bound. Dentro de una
// especificación los rangos no se solapan, así que el lower bound es único.
type rangeItem struct {
	RangeShardingSpecification
}

func (a rangeItem) Less(than btree.Item) bool {
	return a.LowerBound < than.(rangeItem).LowerBound
}

func pivot(key int64) rangeItem {
	return rangeItem{RangeShardingSpecification{LowerBound: key}}
}

// MemoryStore guarda el directorio en memoria: un btree por especificación para la
// búsqueda por piso. No es transaccional.
type MemoryStore struct {
	mu       sync.RWMutex
	created  bool
	mappings map[string]ShardMapping
	order    []string
	specs    map[string]*btree.BTree
}

// NewMemoryStore crea un store vacío.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.mappings = map[string]ShardMapping{}
	s.order = nil
	s.specs = map[string]*btree.BTree{}
}

func (s *MemoryStore) PersistableName() string { return "sharding" }

func (s *MemoryStore) Create(ctx context.Context, p *persistence.Persister) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return persistence.ErrAlreadyExists
	}
	s.created = true
	return nil
}

func (s *MemoryStore) Drop(ctx context.Context, p *persistence.Persister) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = false
	s.reset()
	return nil
}

func (s *MemoryStore) AddMapping(ctx context.Context, m ShardMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mappings[m.TableName]; ok {
		return fmt.Errorf("%w: %s", ErrMappingExists, m.TableName)
	}
	s.mappings[m.TableName] = m
	s.order = append(s.order, m.TableName)
	return nil
}

func (s *MemoryStore) RemoveMapping(ctx context.Context, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mappings[table]; !ok {
		return false, nil
	}
	delete(s.mappings, table)
	for i, t := range s.order {
		if t == table {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStore) GetMapping(ctx context.Context, table string) (ShardMapping, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[table]
	return m, ok, nil
}

func (s *MemoryStore) ListMappings(ctx context.Context, typeName string) ([]ShardMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ShardMapping{}
	for _, t := range s.order {
		if m := s.mappings[t]; m.TypeName == typeName {
			out = append(out, m)
		}
	}
	return out, nil
}

// overlapping asume el lock tomado.
func (s *MemoryStore) overlapping(spec string, lower, upper int64) []RangeShardingSpecification {
	tree, ok := s.specs[spec]
	if !ok {
		return nil
	}
	var out []RangeShardingSpecification
	tree.DescendLessOrEqual(pivot(upper), func(i btree.Item) bool {
		r := i.(rangeItem).RangeShardingSpecification
		if r.UpperBound < lower {
			return false
		}
		out = append(out, r)
		return true
	})
	// DescendLessOrEqual entrega de mayor a menor
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (s *MemoryStore) Overlapping(ctx context.Context, spec string, lower, upper int64) ([]RangeShardingSpecification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlapping(spec, lower, upper), nil
}

func (s *MemoryStore) AddRange(ctx context.Context, r RangeShardingSpecification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clash := s.overlapping(r.Name, r.LowerBound, r.UpperBound); len(clash) > 0 {
		return fmt.Errorf("%w: %s overlaps %s", ErrRangeOverlap, r, clash[0])
	}
	tree, ok := s.specs[r.Name]
	if !ok {
		tree = btree.New(btreeDegree)
		s.specs[r.Name] = tree
	}
	tree.ReplaceOrInsert(rangeItem{r})
	return nil
}

func (s *MemoryStore) RemoveRange(ctx context.Context, spec string, lower int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.specs[spec]
	if !ok {
		return nil
	}
	tree.Delete(pivot(lower))
	if tree.Len() == 0 {
		delete(s.specs, spec)
	}
	return nil
}

func (s *MemoryStore) FindRange(ctx context.Context, spec string, key int64) (RangeShardingSpecification, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tree, ok := s.specs[spec]
	if !ok {
		return RangeShardingSpecification{}, false, nil
	}
	var (
		found RangeShardingSpecification
		hit   bool
	)
	tree.DescendLessOrEqual(pivot(key), func(i btree.Item) bool {
		r := i.(rangeItem).RangeShardingSpecification
		if r.Contains(key) {
			found, hit = r, true
		}
		return false
	})
	return found, hit, nil
}

func (s *MemoryStore) Ranges(ctx context.Context, spec string) ([]RangeShardingSpecification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []RangeShardingSpecification{}
	tree, ok := s.specs[spec]
	if !ok {
		return out, nil
	}
	tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(rangeItem).RangeShardingSpecification)
		return true
	})
	return out, nil
}
