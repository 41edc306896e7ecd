package group

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/persistence"
	pmysql "github.com/dropDatabas3/fabric/internal/persistence/mysql"
)

var _ Store = (*MySQLStore)(nil)

const (
	createGroups = `CREATE TABLE server_groups (
		group_id VARCHAR(64) NOT NULL,
		description VARCHAR(256) NOT NULL DEFAULT '',
		master_uuid CHAR(36) NULL,
		PRIMARY KEY (group_id)
	) ENGINE=InnoDB`

	createServers = `CREATE TABLE servers (
		seq BIGINT NOT NULL AUTO_INCREMENT,
		server_uuid CHAR(36) NOT NULL,
		server_uri VARCHAR(256) NOT NULL,
		group_id VARCHAR(64) NOT NULL,
		PRIMARY KEY (seq),
		UNIQUE KEY uq_servers_uuid (server_uuid),
		KEY idx_servers_group (group_id)
	) ENGINE=InnoDB`

	addServersFK = `ALTER TABLE servers ADD CONSTRAINT fk_servers_group
		FOREIGN KEY (group_id) REFERENCES server_groups (group_id)`
	dropServersFK = `ALTER TABLE servers DROP FOREIGN KEY fk_servers_group`
)

// MySQLStore persiste grupos usando el Persister del contexto.
type MySQLStore struct{}

// NewMySQLStore crea el store.
func NewMySQLStore() *MySQLStore { return &MySQLStore{} }

func (s *MySQLStore) PersistableName() string { return "groups" }

func (s *MySQLStore) Create(ctx context.Context, p *persistence.Persister) error {
	for _, stmt := range []string{createGroups, createServers} {
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
	return p.Exec(ctx, addServersFK)
}

func (s *MySQLStore) DropConstraints(ctx context.Context, p *persistence.Persister) error {
	err := p.Exec(ctx, dropServersFK)
	if pmysql.IsMissingKey(err) || pmysql.IsNoSuchTable(err) {
		return nil
	}
	return err
}

func (s *MySQLStore) Drop(ctx context.Context, p *persistence.Persister) error {
	for _, stmt := range []string{"DROP TABLE IF EXISTS servers", "DROP TABLE IF EXISTS server_groups"} {
		if err := p.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) CreateGroup(ctx context.Context, g Group) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	err = p.Exec(ctx, `INSERT INTO server_groups (group_id, description, master_uuid) VALUES (?, ?, ?)`,
		g.ID, g.Description, nullUUID(g.MasterUUID))
	if pmysql.IsDuplicateEntry(err) {
		return fmt.Errorf("%w: %s", ErrGroupExists, g.ID)
	}
	return err
}

func (s *MySQLStore) DeleteGroup(ctx context.Context, id string) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	if _, err := s.GetGroup(ctx, id); err != nil {
		return err
	}
	return p.Exec(ctx, `DELETE FROM server_groups WHERE group_id = ?`, id)
}

func (s *MySQLStore) GetGroup(ctx context.Context, id string) (Group, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return Group{}, err
	}
	rows, err := p.Query(ctx, `SELECT group_id, description, master_uuid FROM server_groups WHERE group_id = ?`, id)
	if err != nil {
		return Group{}, err
	}
	if len(rows) == 0 {
		return Group{}, ErrGroupNotFound
	}
	g := Group{ID: rows[0].String(0), Description: rows[0].String(1)}
	if !rows[0].IsNull(2) {
		if g.MasterUUID, err = uuid.Parse(rows[0].String(2)); err != nil {
			return Group{}, fmt.Errorf("group %s: master uuid: %w", id, err)
		}
	}
	return g, nil
}

func (s *MySQLStore) SetMaster(ctx context.Context, id string, master uuid.UUID) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	if _, err := s.GetGroup(ctx, id); err != nil {
		return err
	}
	return p.Exec(ctx, `UPDATE server_groups SET master_uuid = ? WHERE group_id = ?`, nullUUID(master), id)
}

func (s *MySQLStore) AddServer(ctx context.Context, srv Server) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	err = p.Exec(ctx, `INSERT INTO servers (server_uuid, server_uri, group_id) VALUES (?, ?, ?)`,
		srv.UUID.String(), srv.URI, srv.GroupID)
	if pmysql.IsDuplicateEntry(err) {
		return fmt.Errorf("%w: %s", ErrServerInGroup, srv.UUID)
	}
	return err
}

func (s *MySQLStore) RemoveServer(ctx context.Context, groupID string, id uuid.UUID) error {
	p, err := persistence.From(ctx)
	if err != nil {
		return err
	}
	srv, err := s.GetServer(ctx, id)
	if err != nil {
		return err
	}
	if srv.GroupID != groupID {
		return ErrServerNotFound
	}
	return p.Exec(ctx, `DELETE FROM servers WHERE server_uuid = ?`, id.String())
}

func (s *MySQLStore) GetServer(ctx context.Context, id uuid.UUID) (Server, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return Server{}, err
	}
	rows, err := p.Query(ctx, `SELECT server_uuid, server_uri, group_id FROM servers WHERE server_uuid = ?`, id.String())
	if err != nil {
		return Server{}, err
	}
	if len(rows) == 0 {
		return Server{}, ErrServerNotFound
	}
	return scanServer(rows[0])
}

func (s *MySQLStore) Servers(ctx context.Context, groupID string) ([]Server, error) {
	p, err := persistence.From(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := p.Query(ctx, `SELECT server_uuid, server_uri, group_id FROM servers WHERE group_id = ? ORDER BY seq`, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]Server, 0, len(rows))
	for _, r := range rows {
		srv, err := scanServer(r)
		if err != nil {
			return nil, err
		}
		out = append(out, srv)
	}
	return out, nil
}

func scanServer(r persistence.Row) (Server, error) {
	id, err := uuid.Parse(r.String(0))
	if err != nil {
		return Server{}, fmt.Errorf("server uuid %q: %w", r.String(0), err)
	}
	return Server{UUID: id, URI: r.String(1), GroupID: r.String(2)}, nil
}

func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}
