// Package automation evaluates event-triggered rules and applies their
// actions. Engine.ProcessEvent is the single ingress for every externally
// observable state change.
package automation

import (
	"github.com/rmottanelli/clareza/internal/domain"
)

// JobName is the queue handler name for rule-processing jobs.
const JobName = "process_automation_rules"

// MaxChainDepth bounds automation-triggered completions re-entering the
// pipeline. Events past the bound skip rule evaluation so a rule chain
// always terminates.
const MaxChainDepth = 5

// Event describes one state change entering the automation pipeline.
// ChainDepth is zero for API-originated events and increments each time an
// automation action re-emits into the pipeline.
type Event struct {
	Type        domain.TriggerType `json:"type"`
	TargetID    string             `json:"target_id"`
	TargetType  string             `json:"target_type"`
	ActorID     *string            `json:"actor_id,omitempty"`
	WorkspaceID string             `json:"workspace_id"`
	ProjectID   *string            `json:"project_id,omitempty"`
	Data        map[string]any     `json:"data,omitempty"`
	ChainDepth  int                `json:"chain_depth,omitempty"`
}
