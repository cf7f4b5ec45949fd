package store

const schema = `
CREATE TABLE IF NOT EXISTS tweets (
    seq           INTEGER PRIMARY KEY,
    id            TEXT NOT NULL,
    text          TEXT NOT NULL DEFAULT '',
    clean_text    TEXT NOT NULL DEFAULT '',
    tweet_created TEXT NOT NULL,
    sentiment     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tweets_sentiment ON tweets(sentiment);

CREATE TABLE IF NOT EXISTS timeline (
    seq      INTEGER PRIMARY KEY,
    date     TEXT NOT NULL,
    positive REAL NOT NULL DEFAULT 0,
    neutral  REAL NOT NULL DEFAULT 0,
    negative REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS summary (
    id   INTEGER PRIMARY KEY CHECK (id = 1),
    body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wordclouds (
    category TEXT PRIMARY KEY,
    ref      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    origin      TEXT NOT NULL,
    tweets      INTEGER NOT NULL,
    imported_at DATETIME NOT NULL
);
`
