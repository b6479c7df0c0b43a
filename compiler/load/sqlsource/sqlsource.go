// Package sqlsource loads content type graphs from the tables of a CMS
// database.
//
// The source reads three tables, named with a configurable prefix:
//
//	cms_content_type              id, type_key, alias, name, description, kind, parent_id, variations
//	cms_content_type_composition  type_id, mixin_id, sort_order
//	cms_property_type             type_id, alias, name, description, value_type, variations, sort_order
//
// Kinds and variations are stored by name ("element", "culture|segment"),
// value types in their text form ("[]{product}").
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/modelsbuilder"
	"github.com/syssam/modelsbuilder/compiler/load"
)

// DefaultPrefix prefixes the table names.
const DefaultPrefix = "cms_"

// Schema is the DDL of the tables read by Source, with the default prefix.
const Schema = `
CREATE TABLE cms_content_type (
	id          INTEGER PRIMARY KEY,
	type_key    VARCHAR(36),
	alias       VARCHAR(255) NOT NULL,
	name        VARCHAR(255),
	description TEXT,
	kind        VARCHAR(16) NOT NULL,
	parent_id   INTEGER,
	variations  VARCHAR(32)
);
CREATE TABLE cms_content_type_composition (
	type_id    INTEGER NOT NULL,
	mixin_id   INTEGER NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE cms_property_type (
	type_id     INTEGER NOT NULL,
	alias       VARCHAR(255) NOT NULL,
	name        VARCHAR(255),
	description TEXT,
	value_type  VARCHAR(255) NOT NULL,
	variations  VARCHAR(32),
	sort_order  INTEGER NOT NULL DEFAULT 0
);
`

// Source loads the content type graph from a database.
type Source struct {
	DB *sql.DB
	// Prefix prefixes the table names. Empty means DefaultPrefix.
	Prefix string
}

var _ load.Source = (*Source)(nil)

// Open opens the database with the given driver and data source name.
// The driver must be registered by the caller.
func Open(driver, dsn string) (*Source, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: open %s: %w", driver, err)
	}
	return &Source{DB: db}, nil
}

// Close closes the database.
func (s *Source) Close() error {
	return s.DB.Close()
}

func (s *Source) table(name string) string {
	if s.Prefix == "" {
		return DefaultPrefix + name
	}
	return s.Prefix + name
}

// Load implements load.Source.
func (s *Source) Load(ctx context.Context) (*load.Graph, error) {
	types, byID, err := s.types(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.compositions(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.properties(ctx, byID); err != nil {
		return nil, err
	}
	return load.NewGraph(types...)
}

func (s *Source) types(ctx context.Context) ([]*load.ContentType, map[int]*load.ContentType, error) {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, type_key, alias, name, description, kind, parent_id, variations FROM %s ORDER BY id",
		s.table("content_type")))
	if err != nil {
		return nil, nil, fmt.Errorf("sqlsource: query content types: %w", err)
	}
	defer rows.Close()
	var (
		types []*load.ContentType
		byID  = make(map[int]*load.ContentType)
	)
	for rows.Next() {
		var (
			t                           load.ContentType
			key, name, desc, variations sql.NullString
			kind                        string
			parent                      sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &key, &t.Alias, &name, &desc, &kind, &parent, &variations); err != nil {
			return nil, nil, fmt.Errorf("sqlsource: scan content type: %w", err)
		}
		if key.Valid && key.String != "" {
			if t.Key, err = uuid.Parse(key.String); err != nil {
				return nil, nil, fmt.Errorf("sqlsource: content type %q: key: %w", t.Alias, err)
			}
		}
		if t.Kind, err = modelsbuilder.ParseKind(kind); err != nil {
			return nil, nil, fmt.Errorf("sqlsource: content type %q: %w", t.Alias, err)
		}
		if t.Variations, err = modelsbuilder.ParseVariation(variations.String); err != nil {
			return nil, nil, fmt.Errorf("sqlsource: content type %q: %w", t.Alias, err)
		}
		t.Name, t.Description, t.ParentID = name.String, desc.String, int(parent.Int64)
		types = append(types, &t)
		byID[t.ID] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("sqlsource: read content types: %w", err)
	}
	return types, byID, nil
}

func (s *Source) compositions(ctx context.Context, byID map[int]*load.ContentType) error {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(
		"SELECT type_id, mixin_id FROM %s ORDER BY type_id, sort_order, mixin_id",
		s.table("content_type_composition")))
	if err != nil {
		return fmt.Errorf("sqlsource: query compositions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typeID, mixinID int
		if err := rows.Scan(&typeID, &mixinID); err != nil {
			return fmt.Errorf("sqlsource: scan composition: %w", err)
		}
		t, ok := byID[typeID]
		if !ok {
			return load.NewGraphError("", "", fmt.Sprintf("composition of unknown content type %d", typeID))
		}
		t.MixinIDs = append(t.MixinIDs, mixinID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlsource: read compositions: %w", err)
	}
	return nil
}

func (s *Source) properties(ctx context.Context, byID map[int]*load.ContentType) error {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(
		"SELECT type_id, alias, name, description, value_type, variations FROM %s ORDER BY type_id, sort_order, alias",
		s.table("property_type")))
	if err != nil {
		return fmt.Errorf("sqlsource: query property types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typeID                 int
			p                      load.PropertyType
			name, desc, variations sql.NullString
			valueType              string
		)
		if err := rows.Scan(&typeID, &p.Alias, &name, &desc, &valueType, &variations); err != nil {
			return fmt.Errorf("sqlsource: scan property type: %w", err)
		}
		t, ok := byID[typeID]
		if !ok {
			return load.NewGraphError("", p.Alias, fmt.Sprintf("property of unknown content type %d", typeID))
		}
		if p.Type, err = load.ParseTypeRef(valueType); err != nil {
			return load.NewGraphError(t.Alias, p.Alias, err.Error())
		}
		if p.Variations, err = modelsbuilder.ParseVariation(variations.String); err != nil {
			return load.NewGraphError(t.Alias, p.Alias, err.Error())
		}
		p.Name, p.Description = name.String, desc.String
		t.Properties = append(t.Properties, &p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlsource: read property types: %w", err)
	}
	return nil
}
