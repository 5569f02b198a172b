// Package agents defines the compiled-in agent personas and the dispatcher
// that routes user text to a single persona via the LLM client.
package agents

// Division groups agents into a sector that a swarm run fans out across.
type Division string

// The closed set of divisions.
const (
	DivisionResearch  Division = "research"
	DivisionAnalysis  Division = "analysis"
	DivisionTactical  Division = "tactical"
	DivisionEvidence  Division = "evidence"
	DivisionOffensive Division = "offensive"
)

// Divisions lists every division in display order.
var Divisions = []Division{
	DivisionResearch,
	DivisionAnalysis,
	DivisionTactical,
	DivisionEvidence,
	DivisionOffensive,
}

// ValidDivision reports whether d names a known division.
func ValidDivision(d Division) bool {
	for _, known := range Divisions {
		if d == known {
			return true
		}
	}
	return false
}

// AgentDefinition is an immutable, compiled-in persona: a display name, a
// division, and the full instruction text sent as the system message.
type AgentDefinition struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Division     Division `json:"division"`
	SystemPrompt string   `json:"-"`
}

// registry holds every agent in insertion order. Order within a division is
// the order agents appear here and is part of the ByDivision contract.
var registry = []AgentDefinition{
	{ID: "precedent-scout", Name: "Precedent Scout", Division: DivisionResearch, SystemPrompt: precedentScoutPrompt},
	{ID: "statute-mapper", Name: "Statute Mapper", Division: DivisionResearch, SystemPrompt: statuteMapperPrompt},
	{ID: "contradiction-finder", Name: "Contradiction Finder", Division: DivisionAnalysis, SystemPrompt: contradictionFinderPrompt},
	{ID: "timeline-auditor", Name: "Timeline Auditor", Division: DivisionAnalysis, SystemPrompt: timelineAuditorPrompt},
	{ID: "motion-strategist", Name: "Motion Strategist", Division: DivisionTactical, SystemPrompt: motionStrategistPrompt},
	{ID: "settlement-handicapper", Name: "Settlement Handicapper", Division: DivisionTactical, SystemPrompt: settlementHandicapperPrompt},
	{ID: "press-angler", Name: "Press Angler", Division: DivisionTactical, SystemPrompt: pressAnglerPrompt},
	{ID: "exhibit-indexer", Name: "Exhibit Indexer", Division: DivisionEvidence, SystemPrompt: exhibitIndexerPrompt},
	{ID: "custody-tracker", Name: "Custody Tracker", Division: DivisionEvidence, SystemPrompt: custodyTrackerPrompt},
	{ID: "misconduct-prober", Name: "Misconduct Prober", Division: DivisionOffensive, SystemPrompt: misconductProberPrompt},
	{ID: "complaint-drafter", Name: "Complaint Drafter", Division: DivisionOffensive, SystemPrompt: complaintDrafterPrompt},
}

var registryByID = buildIndex()

func buildIndex() map[string]*AgentDefinition {
	idx := make(map[string]*AgentDefinition, len(registry))
	for i := range registry {
		idx[registry[i].ID] = &registry[i]
	}
	return idx
}

// ByID looks up an agent by its identifier.
// Unknown ids are a user error (ErrAgentNotFound), not a system fault.
func ByID(id string) (*AgentDefinition, error) {
	agent, ok := registryByID[id]
	if !ok {
		return nil, &ErrAgentNotFound{AgentID: id}
	}
	return agent, nil
}

// ByDivision returns every agent in the division, in registry order.
func ByDivision(division Division) []AgentDefinition {
	var agents []AgentDefinition
	for _, a := range registry {
		if a.Division == division {
			agents = append(agents, a)
		}
	}
	return agents
}

// All returns every registered agent in registry order.
func All() []AgentDefinition {
	out := make([]AgentDefinition, len(registry))
	copy(out, registry)
	return out
}

// AllIDs returns every registered agent id in registry order.
func AllIDs() []string {
	ids := make([]string, 0, len(registry))
	for _, a := range registry {
		ids = append(ids, a.ID)
	}
	return ids
}
