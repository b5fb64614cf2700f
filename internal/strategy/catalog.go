// internal/strategy/catalog.go
package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maisonlabs/pulse-backend/internal/launch"
)

// Strategy is one activation card on the marketing dashboard. Trigger is the
// human-readable tag hint, Query is what the deep-memory search actually runs.
type Strategy struct {
	ID           string `yaml:"id" json:"id"`
	Category     string `yaml:"category" json:"category"`
	Title        string `yaml:"title" json:"title"`
	Subtitle     string `yaml:"subtitle" json:"subtitle"`
	Trigger      string `yaml:"trigger" json:"trigger"`
	Query        string `yaml:"query" json:"query"`
	DeadlineDays int    `yaml:"deadline_days" json:"deadline_days"`
	Channel      string `yaml:"channel" json:"channel"`
}

type Catalog struct {
	Strategies []Strategy `yaml:"strategies"`
}

// Default is the built-in catalog, aligned with the top tags the extraction
// pipeline actually produces.
func Default() *Catalog {
	return &Catalog{Strategies: []Strategy{
		{ID: "birthday", Category: "Court Terme", Title: "Anniversaires & Cadeaux", Subtitle: "Opportunités du Moment", Trigger: "Tag: Anniversaire, Cadeau", Query: "Anniversaire", DeadlineDays: 7, Channel: "Email"},
		{ID: "relance_client", Category: "Court Terme", Title: "À Rappeler (Urgent)", Subtitle: "Suivi Clientèle", Trigger: "Tag: Rappeler", Query: "Rappeler", DeadlineDays: 2, Channel: "Appel"},
		{ID: "upgrade_exotic", Category: "High Value", Title: "Montée en Gamme", Subtitle: "Potentiel Exotique", Trigger: "Tag: Cuir, VIP, 10-15k", Query: "Cuir", DeadlineDays: 7, Channel: "Email"},
		{ID: "style_chic", Category: "High Value", Title: "L'Élégance Classique", Subtitle: "Code: Chic & Business", Trigger: "Tag: Chic, Business", Query: "Chic", DeadlineDays: 7, Channel: "Email"},
		{ID: "leather_goods", Category: "High Value", Title: "Maroquinerie d'Exception", Subtitle: "Cuir & Cognac", Trigger: "Tag: Cuir, Cognac", Query: "Cognac", DeadlineDays: 7, Channel: "Email"},
		{ID: "eco_responsible", Category: "Lifestyle", Title: "Cercle Éco-Responsable", Subtitle: "Engagement Durable", Trigger: "Tag: Vegan, Durabilité", Query: "Vegan", DeadlineDays: 7, Channel: "Email"},
		{ID: "nautical", Category: "Lifestyle", Title: "Esprit Riviera", Subtitle: "Bleu Marine & Voyage", Trigger: "Tag: Bleu_marine, Voyageur", Query: "Bleu_marine", DeadlineDays: 7, Channel: "Email"},
	}}
}

// Load reads a YAML catalog file. Entries with no deadline settings inherit
// the default policy values.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid strategy catalog %s: %w", path, err)
	}
	if len(c.Strategies) == 0 {
		return nil, fmt.Errorf("strategy catalog %s is empty", path)
	}

	for i := range c.Strategies {
		if c.Strategies[i].DeadlineDays <= 0 {
			days, channel := launch.DefaultDeadlinePolicy(c.Strategies[i].ID)
			c.Strategies[i].DeadlineDays = days
			if c.Strategies[i].Channel == "" {
				c.Strategies[i].Channel = channel
			}
		}
	}
	return &c, nil
}

// LoadOrDefault falls back to the built-in catalog when no file is configured.
func LoadOrDefault(path string) *Catalog {
	if path == "" {
		return Default()
	}
	c, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "⚠️ falling back to default strategy catalog:", err)
		return Default()
	}
	return c
}

func (c *Catalog) ByID(id string) *Strategy {
	for i := range c.Strategies {
		if c.Strategies[i].ID == id {
			return &c.Strategies[i]
		}
	}
	return nil
}

// DeadlinePolicy exposes the catalog to the launch coordinator. Unknown tags
// (manual campaigns) use the default policy.
func (c *Catalog) DeadlinePolicy() launch.DeadlinePolicy {
	return func(campaignTag string) (int, string) {
		if s := c.ByID(campaignTag); s != nil {
			return s.DeadlineDays, s.Channel
		}
		return launch.DefaultDeadlinePolicy(campaignTag)
	}
}
