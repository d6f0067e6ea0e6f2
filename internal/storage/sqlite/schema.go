package sqlite

// Schema is the embedded DDL for the agent memory store. All statements use
// IF NOT EXISTS so applying it on every open is idempotent.
//
// Knowledge entries and the preference map are stored as JSON columns: the
// whole memory is always read and written as one unit (the port is a
// load/upsert pair, not a query surface), so normalizing entries into their
// own table would buy nothing here.
const Schema = `
CREATE TABLE IF NOT EXISTS agent_memories (
	user_id           TEXT NOT NULL,
	agent_id          TEXT NOT NULL,
	entries           TEXT,
	preferences       TEXT,
	interaction_count INTEGER NOT NULL DEFAULT 0,
	last_interaction  TIMESTAMP,
	created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, agent_id)
);

CREATE INDEX IF NOT EXISTS idx_agent_memories_agent ON agent_memories(agent_id);
`
