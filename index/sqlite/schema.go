package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	rowid INTEGER PRIMARY KEY,
	index_name TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	fields TEXT NOT NULL,
	has_location INTEGER NOT NULL DEFAULT 0,
	lat REAL NOT NULL DEFAULT 0,
	lng REAL NOT NULL DEFAULT 0,
	UNIQUE (index_name, doc_id)
);

CREATE INDEX IF NOT EXISTS documents_geo ON documents (index_name, has_location, lat, lng);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(terms);
`
