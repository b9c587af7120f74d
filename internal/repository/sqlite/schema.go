package sqlite

// schema runs on every open. Times are stored as unix milliseconds.
// alerts.medicine_id has no foreign key: alerts outlive deleted medicines.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS medicines (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    name       TEXT NOT NULL,
    time       TEXT NOT NULL,
    dosage     TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS alerts (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    medicine_id  TEXT NOT NULL,
    time         TEXT NOT NULL,
    status       TEXT NOT NULL CHECK (status IN ('taken', 'missed')),
    status_at    INTEGER NOT NULL,
    triggered_at INTEGER NOT NULL,
    confirmed_at INTEGER,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_medicines_user_id ON medicines(user_id, time);
CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id, triggered_at);
`
