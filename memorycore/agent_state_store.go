package memorycore

import (
	"database/sql"
	"fmt"

	"github.com/entelgia/entelgia/agentstate"
)

// GetAgentState loads the persisted drive tuple for agent, upserting the
// spec.md-default tuple (id=5, ego=5, superego=5, self_awareness=0.55) if
// no row exists yet.
func (s *LTMStore) GetAgentState(agent string) (agentstate.Drives, error) {
	var d agentstate.Drives
	err := s.db.QueryRow(
		`SELECT id_strength, ego_strength, superego_strength, self_awareness FROM agent_state WHERE agent = ?`,
		agent,
	).Scan(&d.IDStrength, &d.EgoStrength, &d.SuperegoStrength, &d.SelfAwareness)

	switch {
	case err == sql.ErrNoRows:
		defaults := agentstate.DefaultDrives()
		if saveErr := s.SaveAgentState(agent, defaults); saveErr != nil {
			return agentstate.Drives{}, saveErr
		}
		return defaults, nil
	case err != nil:
		return agentstate.Drives{}, fmt.Errorf("memorycore: loading agent state for %s: %w", agent, err)
	}
	return d, nil
}

// SaveAgentState upserts the drive tuple for agent.
func (s *LTMStore) SaveAgentState(agent string, d agentstate.Drives) error {
	_, err := s.db.Exec(`
INSERT INTO agent_state (agent, id_strength, ego_strength, superego_strength, self_awareness)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(agent) DO UPDATE SET
	id_strength = excluded.id_strength,
	ego_strength = excluded.ego_strength,
	superego_strength = excluded.superego_strength,
	self_awareness = excluded.self_awareness`,
		agent, d.IDStrength, d.EgoStrength, d.SuperegoStrength, d.SelfAwareness,
	)
	if err != nil {
		return fmt.Errorf("memorycore: saving agent state for %s: %w", agent, err)
	}
	return nil
}
