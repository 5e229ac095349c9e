package datastore

const (
	mediaTable         = "media"
	mappingGroupsTable = "mapping_groups"
	mappingKeysTable   = "mapping_keys"
	runsTable          = "import_runs"
)

// MediaSchema defines the normalized record table. Text columns use the empty string for
// absent values.
const MediaSchema = `
CREATE TABLE IF NOT EXISTS media (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	title_ro TEXT NOT NULL DEFAULT '',
	title_en TEXT NOT NULL DEFAULT '',
	title_es TEXT NOT NULL DEFAULT '',
	title_na TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image_large TEXT NOT NULL DEFAULT '',
	image_small TEXT NOT NULL DEFAULT '',
	banner TEXT NOT NULL DEFAULT '',
	episodes INTEGER,
	chapters INTEGER,
	volumes INTEGER,
	duration INTEGER,
	status TEXT NOT NULL DEFAULT 'auto',
	date_start TEXT,
	date_finish TEXT,
	genres TEXT NOT NULL DEFAULT '[]',
	format TEXT NOT NULL DEFAULT '',
	rating TEXT NOT NULL DEFAULT '',
	is_adult INTEGER NOT NULL DEFAULT 0,
	links TEXT NOT NULL DEFAULT '[]',
	mapping TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_media_type ON media(type);
`

// MappingSchema defines confirmed mapping groups and their keys. A key
// belongs to at most one group.
const MappingSchema = `
CREATE TABLE IF NOT EXISTS mapping_groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS mapping_keys (
	group_id INTEGER NOT NULL REFERENCES mapping_groups(id) ON DELETE CASCADE,
	mapping TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_mapping_keys_group ON mapping_keys(group_id);
`

// RunSchema defines the import run log.
const RunSchema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id TEXT PRIMARY KEY NOT NULL,
	provider TEXT NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	attempted INTEGER NOT NULL DEFAULT 0,
	added INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	started_at TEXT NOT NULL,
	finished_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_import_runs_provider ON import_runs(provider, status, started_at);
`

// AllSchemas lists every schema in creation order.
var AllSchemas = []string{MediaSchema, MappingSchema, RunSchema}

var mediaColumns = []string{
	"type", "title_ro", "title_en", "title_es", "title_na", "description",
	"image_large", "image_small", "banner", "episodes", "chapters", "volumes",
	"duration", "status", "date_start", "date_finish", "genres", "format",
	"rating", "is_adult", "links", "mapping", "created_at", "updated_at",
}

// mediaColumnsReplaced are overwritten by ConflictReplace; id and created_at
// keep their stored values.
var mediaColumnsReplaced = []string{
	"type", "title_ro", "title_en", "title_es", "title_na", "description",
	"image_large", "image_small", "banner", "episodes", "chapters", "volumes",
	"duration", "status", "date_start", "date_finish", "genres", "format",
	"rating", "is_adult", "links", "updated_at",
}
