// Package catalog reads the node-type catalog: a read-only store of ~500
// node definitions built offline (§1 — out of scope to build, but the
// Validator (C2) must read it for every per-node config check). The store
// itself is a SQLite database opened read-only via modernc.org/sqlite,
// mirroring the driver the teacher repo's own store package used, but with
// no migration or write path — this core never mutates the catalog.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/normalize"
)

// PropertyType is the declared type of a node property.
type PropertyType string

const (
	PropString         PropertyType = "string"
	PropNumber         PropertyType = "number"
	PropBoolean        PropertyType = "boolean"
	PropOptions        PropertyType = "options"
	PropArray          PropertyType = "array"
	PropObject         PropertyType = "object"
	PropResourceLocator PropertyType = "resourceLocator"
)

// DisplayOptions gates a property's visibility on the values of other,
// already-resolved properties. Pass 2 evaluates these against
// defaults-applied config, so a dependent property whose trigger carries a
// default value is visible even when the caller never set it explicitly.
type DisplayOptions struct {
	Show map[string][]any `json:"show,omitempty"`
	Hide map[string][]any `json:"hide,omitempty"`
}

// Property is one entry in a node type's parameter schema.
type Property struct {
	Name        string         `json:"name"`
	Type        PropertyType   `json:"type"`
	Required    bool           `json:"required"`
	Default     any            `json:"default,omitempty"`
	Options     []any          `json:"options,omitempty"`
	Min         *float64       `json:"min,omitempty"`
	Max         *float64       `json:"max,omitempty"`
	Display     DisplayOptions `json:"displayOptions,omitempty"`
	// ResourceLocatorModes constrains the "mode" field of a resourceLocator
	// value, when the schema pins an explicit set of modes.
	ResourceLocatorModes []string `json:"resourceLocatorModes,omitempty"`
}

// NodeDefinition is one catalog entry, keyed by short-form type.
type NodeDefinition struct {
	Type               string     `json:"type"`
	DisplayName        string     `json:"displayName"`
	MinTypeVersion     float64    `json:"minTypeVersion"`
	IsTrigger          bool       `json:"isTrigger"`
	IsWebhookTrigger   bool       `json:"isWebhookTrigger"`
	IsAITool           bool       `json:"isAiTool"`
	Properties         []Property `json:"properties"`
	CommonButAbsent    []string   `json:"commonButAbsent,omitempty"`
}

// PropertyByName returns the property definition by name, or nil.
func (d *NodeDefinition) PropertyByName(name string) *Property {
	for i := range d.Properties {
		if d.Properties[i].Name == name {
			return &d.Properties[i]
		}
	}
	return nil
}

// Catalog is the read-only node-type catalog interface the validator
// depends on. It is satisfied by *SQLiteCatalog (backed by the embedded
// database) and by *StaticCatalog (an in-memory fixture used in tests and
// as a fallback when NODE_DB_PATH is unset).
type Catalog interface {
	Lookup(nodeType string) (*NodeDefinition, bool)
	Count() int
}

// StaticCatalog is a map-backed Catalog, used for tests and as the fixture
// seeded in seed.go.
type StaticCatalog struct {
	defs map[string]*NodeDefinition
}

// NewStatic builds a StaticCatalog from a slice of definitions, keyed by
// normalize.Type(def.Type).
func NewStatic(defs []NodeDefinition) *StaticCatalog {
	m := make(map[string]*NodeDefinition, len(defs))
	for i := range defs {
		d := defs[i]
		m[normalize.Type(d.Type)] = &d
	}
	return &StaticCatalog{defs: m}
}

func (c *StaticCatalog) Lookup(nodeType string) (*NodeDefinition, bool) {
	d, ok := c.defs[normalize.Type(nodeType)]
	return d, ok
}

func (c *StaticCatalog) Count() int { return len(c.defs) }

// SQLiteCatalog reads node definitions from a read-only SQLite database.
// Definitions are loaded lazily and cached in memory, since the store never
// changes at runtime (§1 Non-goals: no catalog schema migration at runtime).
type SQLiteCatalog struct {
	db    *sql.DB
	cache map[string]*NodeDefinition
}

// OpenSQLite opens the catalog database at path in read-only mode
// (mode=ro ensures a malformed or concurrently-rebuilt catalog file can
// never be corrupted by this process).
func OpenSQLite(path string) (*SQLiteCatalog, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open node catalog %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping node catalog %s: %w", path, err)
	}
	return &SQLiteCatalog{db: db, cache: make(map[string]*NodeDefinition)}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// LoadAll eagerly reads every row into the in-memory cache. Call once at
// startup; subsequent Lookup calls never touch the database again.
func (c *SQLiteCatalog) LoadAll(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, `SELECT type, definition FROM node_types`)
	if err != nil {
		return fmt.Errorf("query node_types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var nodeType string
		var raw []byte
		if err := rows.Scan(&nodeType, &raw); err != nil {
			return fmt.Errorf("scan node_types row: %w", err)
		}
		var def NodeDefinition
		if err := json.Unmarshal(raw, &def); err != nil {
			return fmt.Errorf("decode definition for %s: %w", nodeType, err)
		}
		c.cache[normalize.Type(nodeType)] = &def
	}
	return rows.Err()
}

func (c *SQLiteCatalog) Lookup(nodeType string) (*NodeDefinition, bool) {
	d, ok := c.cache[normalize.Type(nodeType)]
	return d, ok
}

func (c *SQLiteCatalog) Count() int { return len(c.cache) }
