package sqlite

// Schema is the complete current schema, applied with IF NOT EXISTS so that
// opening a store is always safe. It includes the columns added by later
// migrations; the migrations directory exists for evolving live stores that
// predate them.
//
// The *_fts virtual tables are the search shadows. They are populated only by
// the AFTER INSERT/UPDATE/DELETE triggers below, never written directly, so a
// base-row write and its shadow write always share one transaction. Updates
// delete the old shadow row and insert a fresh one (full replace) to avoid
// stale-token leakage.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	file_type TEXT NOT NULL DEFAULT '',
	storage_path TEXT NOT NULL DEFAULT '',
	native_path TEXT,
	byte_size INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0,
	author TEXT,
	custodian TEXT,
	doc_date TEXT,
	metadata TEXT,
	red_flag_score INTEGER NOT NULL DEFAULT 0,
	evidence_type TEXT,
	has_failed_redactions INTEGER NOT NULL DEFAULT 0,
	failed_redaction_count INTEGER NOT NULL DEFAULT 0,
	parent_external_id TEXT,
	thread_position INTEGER,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_custodian ON documents(custodian);
CREATE INDEX IF NOT EXISTS idx_documents_evidence_type ON documents(evidence_type);
CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS entities (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	name_key TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL DEFAULT 'unknown',
	role TEXT NOT NULL DEFAULT 'Unknown',
	secondary_roles TEXT,
	red_flag_score INTEGER NOT NULL DEFAULT 0,
	mention_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS relationships (
	id TEXT PRIMARY KEY,
	from_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
	to_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	strength REAL NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	document_id INTEGER REFERENCES documents(id) ON DELETE SET NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(from_entity_id, to_entity_id, type)
);

CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_entity_id);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_entity_id);

CREATE TABLE IF NOT EXISTS document_entities (
	document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
	PRIMARY KEY (document_id, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_document_entities_entity ON document_entities(entity_id);

CREATE TABLE IF NOT EXISTS albums (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	cover_media_id TEXT REFERENCES media_items(id) ON DELETE SET NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS media_items (
	id TEXT PRIMARY KEY,
	album_id TEXT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	path TEXT NOT NULL UNIQUE,
	byte_size INTEGER NOT NULL DEFAULT 0,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	captured_at TIMESTAMP,
	camera_make TEXT,
	camera_model TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_items_album ON media_items(album_id);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	processed INTEGER NOT NULL DEFAULT 0,
	inserted INTEGER NOT NULL DEFAULT 0,
	updated INTEGER NOT NULL DEFAULT 0,
	missing INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0
);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
	external_id UNINDEXED,
	title,
	content,
	author,
	custodian
);

CREATE TRIGGER IF NOT EXISTS documents_fts_insert AFTER INSERT ON documents BEGIN
	INSERT INTO documents_fts(rowid, external_id, title, content, author, custodian)
	VALUES (new.id, new.external_id, new.title, new.content,
		COALESCE(new.author, ''), COALESCE(new.custodian, ''));
END;

CREATE TRIGGER IF NOT EXISTS documents_fts_update AFTER UPDATE ON documents BEGIN
	DELETE FROM documents_fts WHERE rowid = old.id;
	INSERT INTO documents_fts(rowid, external_id, title, content, author, custodian)
	VALUES (new.id, new.external_id, new.title, new.content,
		COALESCE(new.author, ''), COALESCE(new.custodian, ''));
END;

CREATE TRIGGER IF NOT EXISTS documents_fts_delete AFTER DELETE ON documents BEGIN
	DELETE FROM documents_fts WHERE rowid = old.id;
END;

CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
	name,
	role
);

CREATE TRIGGER IF NOT EXISTS entities_fts_insert AFTER INSERT ON entities BEGIN
	INSERT INTO entities_fts(rowid, name, role)
	VALUES (new.id, new.name, new.role);
END;

CREATE TRIGGER IF NOT EXISTS entities_fts_update AFTER UPDATE ON entities BEGIN
	DELETE FROM entities_fts WHERE rowid = old.id;
	INSERT INTO entities_fts(rowid, name, role)
	VALUES (new.id, new.name, new.role);
END;

CREATE TRIGGER IF NOT EXISTS entities_fts_delete AFTER DELETE ON entities BEGIN
	DELETE FROM entities_fts WHERE rowid = old.id;
END;
`
