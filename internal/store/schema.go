package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scenarios (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    name         TEXT NOT NULL UNIQUE,
    settings     TEXT NOT NULL,
    result_data  TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scenarios_updated ON scenarios(updated_at);
`
