package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	active     INTEGER NOT NULL DEFAULT 1 CHECK(active IN (0, 1)),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	priority       INTEGER NOT NULL DEFAULT 3 CHECK(priority BETWEEN 1 AND 5),
	assigned_to    TEXT REFERENCES users(id) ON DELETE SET NULL,
	created_by     TEXT NOT NULL,
	last_edited_by TEXT,
	due_date       DATETIME,
	completed      INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	reminder_at    DATETIME,
	reminder_sent  INTEGER NOT NULL DEFAULT 0 CHECK(reminder_sent IN (0, 1)),
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id      TEXT,
	trigger_time DATETIME NOT NULL,
	channel      TEXT NOT NULL DEFAULT 'push' CHECK(channel IN ('push', 'in_app', 'both')),
	message      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'sent', 'cancelled')),
	created_by   TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS digests (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	digest_type  TEXT NOT NULL CHECK(digest_type IN ('morning', 'afternoon')),
	generated_at DATETIME NOT NULL,
	read_at      DATETIME,
	payload      TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	reminder_id TEXT,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL DEFAULT '',
	read        INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS push_subscriptions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	endpoint   TEXT NOT NULL,
	keys       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	UNIQUE(user_id, endpoint)
);

CREATE TABLE IF NOT EXISTS activity_log (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	user_name  TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	task_id    TEXT,
	task_title TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reminders_status_trigger ON reminders(status, trigger_time);
CREATE INDEX IF NOT EXISTS idx_reminders_task_id ON reminders(task_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
CREATE INDEX IF NOT EXISTS idx_digests_user_generated ON digests(user_id, generated_at);
CREATE INDEX IF NOT EXISTS idx_messages_user_read ON messages(user_id, read);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_reminders_user_created
	ON reminders(user_id, created_at);

CREATE INDEX IF NOT EXISTS idx_subscriptions_user
	ON push_subscriptions(user_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
