package imagegen

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// Faction is a faction of The Elidoras Codex universe.
type Faction struct {
	Name        string   `yaml:"name" json:"name"`
	Ethos       string   `yaml:"ethos" json:"ethos"`
	Description string   `yaml:"description" json:"description"`
	Colors      []string `yaml:"colors" json:"colors"`
	ColorNames  []string `yaml:"color_names" json:"color_names"`
}

// Slug returns the lowercase, underscore-separated faction name.
func (f *Faction) Slug() string {
	return strings.ReplaceAll(strings.ToLower(f.Name), " ", "_")
}

func (f *Faction) colorDescription() string {
	if len(f.Colors) == 0 || len(f.ColorNames) == 0 || len(f.Colors) != len(f.ColorNames) {
		return ""
	}
	return " with a color scheme of " + strings.Join(f.ColorNames, ", ")
}

// FactionImageType is a kind of faction artwork.
type FactionImageType string

const (
	FactionBanner    FactionImageType = "banner"
	FactionIcon      FactionImageType = "icon"
	FactionLandscape FactionImageType = "landscape"
)

// DefaultFactionImageTypes are generated when a caller names none.
var DefaultFactionImageTypes = []FactionImageType{FactionBanner, FactionIcon}

// FactionPrompt returns the prompt and aspect ratio for a faction image.
func FactionPrompt(f *Faction, imageType FactionImageType) (prompt, aspectRatio string, err error) {
	colors := f.colorDescription()
	switch imageType {
	case FactionBanner:
		return fmt.Sprintf("An epic banner for '%s', a faction in The Elidoras Codex universe. %s Their ethos is: '%s'%s. Dramatic lighting, cinematic composition.",
			f.Name, f.Description, f.Ethos, colors), "16:9", nil
	case FactionIcon:
		return fmt.Sprintf("A minimalist icon representing '%s', a faction in The Elidoras Codex universe. %s%s. Clean lines, emblematic, symbolic.",
			f.Name, f.Description, colors), "1:1", nil
	case FactionLandscape:
		return fmt.Sprintf("A landscape scene representing the territory of '%s', a faction in The Elidoras Codex universe. %s Their ethos is: '%s'%s. Epic wide shot, atmospheric, detailed environment.",
			f.Name, f.Description, f.Ethos, colors), "21:9", nil
	default:
		return "", "", apperrors.Validation("unknown faction image type %q", imageType)
	}
}

// Factions is a set of factions looked up by name.
type Factions []Faction

// Find returns the faction named name, ignoring case.
func (fs Factions) Find(name string) (*Faction, error) {
	for i := range fs {
		if strings.EqualFold(fs[i].Name, name) {
			return &fs[i], nil
		}
	}
	return nil, apperrors.Validation("faction %q not found", name)
}

// LoadFactions reads a factions file of the form {factions: [...]}. JSON files parse as YAML.
func LoadFactions(path string) (Factions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factions: %w", err)
	}
	var doc struct {
		Factions Factions `yaml:"factions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse factions %s: %w", path, err)
	}
	return doc.Factions, nil
}
