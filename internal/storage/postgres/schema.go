package postgres

// Schema is the embedded DDL for the agent memory store. All statements use
// IF NOT EXISTS so applying it on every open is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS agent_memories (
	user_id           TEXT NOT NULL,
	agent_id          TEXT NOT NULL,
	entries           JSONB,
	preferences       JSONB,
	interaction_count INTEGER NOT NULL DEFAULT 0,
	last_interaction  TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, agent_id)
);

CREATE INDEX IF NOT EXISTS idx_agent_memories_agent ON agent_memories(agent_id);
`
