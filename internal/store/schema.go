package store

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS meets (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  course TEXT NOT NULL DEFAULT 'SCY',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
  id TEXT PRIMARY KEY,
  meet_id TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  UNIQUE (meet_id, code)
);

CREATE TABLE IF NOT EXISTS participants (
  id TEXT PRIMARY KEY,
  meet_id TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
  team_id TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
  natural_key TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL DEFAULT '',
  age INTEGER,
  UNIQUE (meet_id, natural_key)
);

CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  meet_id TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  name TEXT NOT NULL,
  event_key TEXT NOT NULL,
  kind TEXT NOT NULL,
  distance INTEGER NOT NULL DEFAULT 0,
  stroke TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL DEFAULT '',
  is_relay INTEGER NOT NULL DEFAULT 0,
  min_age INTEGER,
  max_age INTEGER,
  UNIQUE (meet_id, name)
);

CREATE TABLE IF NOT EXISTS results (
  id TEXT PRIMARY KEY,
  participant_id TEXT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
  event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
  prelim_value REAL,
  swim_off_value REAL,
  final_value REAL,
  prelim_points REAL NOT NULL DEFAULT 0,
  swim_off_points REAL NOT NULL DEFAULT 0,
  final_points REAL NOT NULL DEFAULT 0,
  best_points REAL NOT NULL DEFAULT 0,
  is_disqualified INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS uploaded_files (
  id TEXT PRIMARY KEY,
  file_name TEXT NOT NULL,
  file_type TEXT NOT NULL,
  meet_id TEXT REFERENCES meets(id) ON DELETE SET NULL,
  is_processed INTEGER NOT NULL DEFAULT 0,
  processing_errors TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS meets (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  course TEXT NOT NULL DEFAULT 'SCY',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
  id TEXT PRIMARY KEY,
  meet_id TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  UNIQUE (meet_id, code)
);

CREATE TABLE IF NOT EXISTS participants (
  id TEXT PRIMARY KEY,
  meet_id TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
  team_id TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
  natural_key TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL DEFAULT '',
  age INTEGER,
  UNIQUE (meet_id, natural_key)
);

CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  meet_id TEXT NOT NULL REFERENCES meets(id) ON DELETE CASCADE,
  number INTEGER NOT NULL,
  name TEXT NOT NULL,
  event_key TEXT NOT NULL,
  kind TEXT NOT NULL,
  distance INTEGER NOT NULL DEFAULT 0,
  stroke TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL DEFAULT '',
  is_relay BOOLEAN NOT NULL DEFAULT FALSE,
  min_age INTEGER,
  max_age INTEGER,
  UNIQUE (meet_id, name)
);

CREATE TABLE IF NOT EXISTS results (
  id TEXT PRIMARY KEY,
  participant_id TEXT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
  event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
  prelim_value DOUBLE PRECISION,
  swim_off_value DOUBLE PRECISION,
  final_value DOUBLE PRECISION,
  prelim_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  swim_off_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  final_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  best_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  is_disqualified BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS uploaded_files (
  id TEXT PRIMARY KEY,
  file_name TEXT NOT NULL,
  file_type TEXT NOT NULL,
  meet_id TEXT REFERENCES meets(id) ON DELETE SET NULL,
  is_processed BOOLEAN NOT NULL DEFAULT FALSE,
  processing_errors TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
`
