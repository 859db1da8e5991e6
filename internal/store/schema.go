package store

import (
	"context"
	"database/sql"
)

// sqliteSchema mirrors the columns of the Oracle tables greylit writes to.
// The Oracle schema itself is managed outside this tool.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS SOURCE (
		SOURCE_ID INTEGER PRIMARY KEY,
		NAME TEXT NOT NULL,
		DESCRIPTION TEXT,
		LINK TEXT
	);

	CREATE TABLE IF NOT EXISTS SERIES (
		SERIES_ID INTEGER PRIMARY KEY AUTOINCREMENT,
		SERIES_NAME TEXT NOT NULL,
		PUBLICATION_TYPE TEXT,
		SOURCE_ID INTEGER REFERENCES SOURCE(SOURCE_ID),
		CREATED_AT TIMESTAMP,
		WF_STAGE TEXT,
		ACCESS_TYPE TEXT
	);

	CREATE TABLE IF NOT EXISTS SERIES_NAME (
		SERIES_NAME_ID INTEGER PRIMARY KEY AUTOINCREMENT,
		SERIES_ID INTEGER NOT NULL REFERENCES SERIES(SERIES_ID),
		TITLE TEXT
	);

	CREATE TABLE IF NOT EXISTS ISSUE (
		ISSUE_ID INTEGER PRIMARY KEY AUTOINCREMENT,
		TITLE TEXT,
		ABSTRACT TEXT,
		YEAR_OF_PUBLICATION INTEGER,
		ACCESS_TYPE TEXT,
		LICENSE_TYPE TEXT,
		PUBLICATION_TYPE TEXT,
		PUBLICATION_TYPE2 TEXT,
		SERIES_NAME_ID INTEGER REFERENCES SERIES_NAME(SERIES_NAME_ID),
		SOURCE_ID INTEGER REFERENCES SOURCE(SOURCE_ID),
		IS_UNPUBLISHED INTEGER,
		WF_STAGE TEXT
	);

	CREATE TABLE IF NOT EXISTS PERSON (
		PERSON_ID INTEGER PRIMARY KEY AUTOINCREMENT,
		SURNAME TEXT,
		FORENAME TEXT,
		INITIALS TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_person_name ON PERSON(SURNAME, FORENAME, INITIALS);

	CREATE TABLE IF NOT EXISTS RESOURCE_PERSON (
		PERSON_ID INTEGER NOT NULL REFERENCES PERSON(PERSON_ID),
		RELATIONSHIP_TYPE_ID INTEGER NOT NULL,
		ISSUE_ID INTEGER NOT NULL REFERENCES ISSUE(ISSUE_ID)
	);

	CREATE TABLE IF NOT EXISTS RESOURCE_DC_IDENTIFIER (
		RESOURCE_DC_IDENTIFIER_ID INTEGER PRIMARY KEY AUTOINCREMENT,
		DESCRIPTION TEXT,
		TYPE TEXT,
		ISSUE_ID INTEGER REFERENCES ISSUE(ISSUE_ID)
	);

	CREATE INDEX IF NOT EXISTS idx_identifier_type ON RESOURCE_DC_IDENTIFIER(TYPE, DESCRIPTION);

	CREATE TABLE IF NOT EXISTS RESOURCE_DC_RELATION (
		TYPE TEXT,
		URI TEXT,
		ISSUE_ID INTEGER REFERENCES ISSUE(ISSUE_ID)
	);

	CREATE TABLE IF NOT EXISTS RESOURCE_DC_COV_LOC (
		TYPE TEXT,
		DESCRIPTION TEXT,
		ISSUE_ID INTEGER REFERENCES ISSUE(ISSUE_ID)
	);

	CREATE TABLE IF NOT EXISTS RESOURCE_DC_COV_COORD (
		TYPE TEXT,
		EASTING REAL,
		NORTHING REAL,
		ISSUE_ID INTEGER REFERENCES ISSUE(ISSUE_ID),
		COORDINATE_TYPE TEXT,
		LAT_Y REAL,
		LONG_X REAL
	);
`

// Tables lists every table greylit writes to, in dependency order.
var Tables = []string{
	"SOURCE", "SERIES", "SERIES_NAME", "ISSUE", "PERSON", "RESOURCE_PERSON",
	"RESOURCE_DC_IDENTIFIER", "RESOURCE_DC_RELATION", "RESOURCE_DC_COV_LOC",
	"RESOURCE_DC_COV_COORD",
}

// createSchema creates the SQLite schema if it doesn't exist.
func createSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sqliteSchema)
	return err
}
