package tasks

import "github.com/elidorascodex/tecflow/internal/infra/config"

// Custom field keys looked up in Config.CustomFields.
const (
	FieldTaskSentiment = "task_sentiment"
	FieldAITaskBrief   = "ai_task_brief"
	FieldAirthActions  = "airth_actions"
)

// PolkinRishall is the team member notified when a lore doc is ready.
const PolkinRishall = "Polkin Rishall"

// Config holds the workflow settings of the task automation.
type Config struct {
	Statuses     config.ClickUpStatuses
	TriggerTags  []string
	TeamMembers  map[string]string
	CustomFields map[string]string
}

// ConfigFrom builds the workflow configuration from the tracker section.
func ConfigFrom(c config.ClickUpConfig) *Config {
	cfg := &Config{
		Statuses:     c.Statuses,
		TriggerTags:  c.TriggerTags,
		TeamMembers:  c.TeamMembers,
		CustomFields: c.CustomFields,
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	s := &c.Statuses
	if s.Open == "" {
		s.Open = "Open"
	}
	if s.AIAnalysis == "" {
		s.AIAnalysis = "AI Analysis"
	}
	if s.PolkinPreDeploy == "" {
		s.PolkinPreDeploy = "Polkin pre-deploy"
	}
	if len(c.TriggerTags) == 0 {
		c.TriggerTags = []string{"ai-alpha-commence-assessment", "1st drop", "content", "automation", "ai-collab"}
	}
	if c.TeamMembers == nil {
		c.TeamMembers = map[string]string{}
	}
	if c.CustomFields == nil {
		c.CustomFields = map[string]string{}
	}
}

// memberID maps a team member name to its tracker id. Unknown names pass through.
func (c *Config) memberID(name string) string {
	if id, ok := c.TeamMembers[name]; ok {
		return id
	}
	return name
}
