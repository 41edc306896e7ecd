// Package group lleva el registro de grupos de servidores y sus masters.
package group

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/errs"
)

// Group es un conjunto de servidores con un master designado.
type Group struct {
	ID          string    `json:"group_id"`
	Description string    `json:"description"`
	MasterUUID  uuid.UUID `json:"master_uuid"`
}

// HasMaster reporta si el grupo tiene master asignado.
func (g Group) HasMaster() bool { return g.MasterUUID != uuid.Nil }

// Server es un servidor MySQL identificado por su server_uuid.
type Server struct {
	UUID    uuid.UUID `json:"uuid"`
	URI     string    `json:"uri"`
	GroupID string    `json:"group_id"`
}

var (
	ErrGroupExists    = fmt.Errorf("%w: group already exists", errs.ErrConflict)
	ErrGroupNotFound  = fmt.Errorf("%w: group not found", errs.ErrPrecondition)
	ErrGroupNotEmpty  = fmt.Errorf("%w: group still has servers", errs.ErrConflict)
	ErrServerInGroup  = fmt.Errorf("%w: server already belongs to a group", errs.ErrConflict)
	ErrServerNotFound = fmt.Errorf("%w: server not found", errs.ErrPrecondition)
	ErrInvalidGroupID = fmt.Errorf("%w: group id is required", errs.ErrPrecondition)
)

// Store persiste grupos y servidores.
type Store interface {
	CreateGroup(ctx context.Context, g Group) error
	DeleteGroup(ctx context.Context, id string) error
	GetGroup(ctx context.Context, id string) (Group, error)
	// SetMaster fija el master del grupo; uuid.Nil lo limpia.
	SetMaster(ctx context.Context, id string, master uuid.UUID) error

	AddServer(ctx context.Context, s Server) error
	RemoveServer(ctx context.Context, groupID string, id uuid.UUID) error
	GetServer(ctx context.Context, id uuid.UUID) (Server, error)
	// Servers retorna los servidores del grupo en orden de alta.
	Servers(ctx context.Context, groupID string) ([]Server, error)
}
