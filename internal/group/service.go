package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// Service implementa las operaciones de grupos sobre un Store.
type Service struct {
	store Store
}

// NewService crea el servicio.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create da de alta un grupo vacío.
func (s *Service) Create(ctx context.Context, id, description string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidGroupID
	}
	if err := s.store.CreateGroup(ctx, Group{ID: id, Description: description}); err != nil {
		return err
	}
	logger.From(ctx).Info("group created", logger.GroupID(id))
	return nil
}

// RemoveServers quita todos los servidores del grupo y limpia el master.
func (s *Service) RemoveServers(ctx context.Context, id string) (int, error) {
	if _, err := s.store.GetGroup(ctx, id); err != nil {
		return 0, err
	}
	servers, err := s.store.Servers(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.store.SetMaster(ctx, id, uuid.Nil); err != nil {
		return 0, err
	}
	for _, srv := range servers {
		if err := s.store.RemoveServer(ctx, id, srv.UUID); err != nil {
			return 0, err
		}
	}
	return len(servers), nil
}

// Destroy elimina el grupo. Debe estar vacío.
func (s *Service) Destroy(ctx context.Context, id string) error {
	servers, err := s.store.Servers(ctx, id)
	if err != nil {
		return err
	}
	if len(servers) > 0 {
		return fmt.Errorf("%w: %s has %d", ErrGroupNotEmpty, id, len(servers))
	}
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	logger.From(ctx).Info("group destroyed", logger.GroupID(id))
	return nil
}

// AddServer agrega un servidor al grupo. Un servidor pertenece a un solo grupo.
func (s *Service) AddServer(ctx context.Context, id string, server uuid.UUID, uri string) error {
	if _, err := s.store.GetGroup(ctx, id); err != nil {
		return err
	}
	if existing, err := s.store.GetServer(ctx, server); err == nil {
		return fmt.Errorf("%w: %s is in %s", ErrServerInGroup, server, existing.GroupID)
	} else if !errors.Is(err, ErrServerNotFound) {
		return err
	}
	return s.store.AddServer(ctx, Server{UUID: server, URI: uri, GroupID: id})
}

// RemoveServer quita un servidor. Si era el master, el grupo queda sin master.
func (s *Service) RemoveServer(ctx context.Context, id string, server uuid.UUID) error {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	if g.MasterUUID == server {
		if err := s.store.SetMaster(ctx, id, uuid.Nil); err != nil {
			return err
		}
	}
	return s.store.RemoveServer(ctx, id, server)
}

// Promote designa el master del grupo. El servidor debe pertenecer al grupo.
func (s *Service) Promote(ctx context.Context, id string, server uuid.UUID) error {
	srv, err := s.store.GetServer(ctx, server)
	if err != nil {
		return err
	}
	if srv.GroupID != id {
		return fmt.Errorf("%w: %s is not in %s", ErrServerNotFound, server, id)
	}
	if err := s.store.SetMaster(ctx, id, server); err != nil {
		return err
	}
	logger.From(ctx).Info("master promoted", logger.GroupID(id), logger.ServerUUID(server.String()))
	return nil
}

// Lookup retorna el grupo.
func (s *Service) Lookup(ctx context.Context, id string) (Group, error) {
	return s.store.GetGroup(ctx, id)
}

// LookupServers retorna los servidores del grupo.
func (s *Service) LookupServers(ctx context.Context, id string) ([]Server, error) {
	if _, err := s.store.GetGroup(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Servers(ctx, id)
}

// Master retorna el server_uuid del master del grupo. Un grupo inexistente o sin
// master no es error: ok es false.
func (s *Service) Master(ctx context.Context, id string) (uuid.UUID, bool, error) {
	g, err := s.store.GetGroup(ctx, id)
	if errors.Is(err, ErrGroupNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return g.MasterUUID, g.HasMaster(), nil
}
