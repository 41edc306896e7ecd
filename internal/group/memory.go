package group

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

// MemoryStore guarda grupos en memoria. No es transaccional.
type MemoryStore struct {
	mu      sync.RWMutex
	created bool
	groups  map[string]Group
	servers map[uuid.UUID]Server
	order   []uuid.UUID
}

// NewMemoryStore crea un store vacío ya inicializado.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.groups = map[string]Group{}
	s.servers = map[uuid.UUID]Server{}
	s.order = nil
}

func (s *MemoryStore) PersistableName() string { return "groups" }

// Create marca el store como creado; falla si ya lo estaba.
func (s *MemoryStore) Create(ctx context.Context, p *persistence.Persister) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return persistence.ErrAlreadyExists
	}
	s.created = true
	return nil
}

// Drop borra todo el contenido.
func (s *MemoryStore) Drop(ctx context.Context, p *persistence.Persister) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = false
	s.reset()
	return nil
}

func (s *MemoryStore) CreateGroup(ctx context.Context, g Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; ok {
		return ErrGroupExists
	}
	s.groups[g.ID] = g
	return nil
}

func (s *MemoryStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return ErrGroupNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, id string) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return Group{}, ErrGroupNotFound
	}
	return g, nil
}

func (s *MemoryStore) SetMaster(ctx context.Context, id string, master uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return ErrGroupNotFound
	}
	g.MasterUUID = master
	s.groups[id] = g
	return nil
}

func (s *MemoryStore) AddServer(ctx context.Context, srv Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[srv.GroupID]; !ok {
		return ErrGroupNotFound
	}
	if _, ok := s.servers[srv.UUID]; ok {
		return ErrServerInGroup
	}
	s.servers[srv.UUID] = srv
	s.order = append(s.order, srv.UUID)
	return nil
}

func (s *MemoryStore) RemoveServer(ctx context.Context, groupID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers[id]
	if !ok || srv.GroupID != groupID {
		return ErrServerNotFound
	}
	delete(s.servers, id)
	for i, u := range s.order {
		if u == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) GetServer(ctx context.Context, id uuid.UUID) (Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	srv, ok := s.servers[id]
	if !ok {
		return Server{}, ErrServerNotFound
	}
	return srv, nil
}

func (s *MemoryStore) Servers(ctx context.Context, groupID string) ([]Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Server
	for _, id := range s.order {
		if srv := s.servers[id]; srv.GroupID == groupID {
			out = append(out, srv)
		}
	}
	return out, nil
}
