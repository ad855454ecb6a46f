// Package catalog loads the static course content from YAML files:
// the unit catalog, the placement question bank and the achievement
// definitions. Content is authored offline and shipped with the app,
// so loading happens once at startup and the result is immutable.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lingotrail/lingotrail-core/internal/domain/achievement"
	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/placement"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────
// YAML schemas
// ─────────────────────────────────────────────────────────────────────────

type lessonYAML struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	BaseXP    int    `yaml:"base_xp"`
	PassScore int    `yaml:"pass_score"`
}

type unitYAML struct {
	ID            string       `yaml:"id"`
	Title         string       `yaml:"title"`
	CEFR          string       `yaml:"cefr"`
	Prerequisites []string     `yaml:"prerequisites"`
	Lessons       []lessonYAML `yaml:"lessons"`
}

type curriculumYAML struct {
	Units []unitYAML `yaml:"units"`
}

type questionYAML struct {
	ID      string   `yaml:"id"`
	Band    string   `yaml:"band"`
	Prompt  string   `yaml:"prompt"`
	Choices []string `yaml:"choices"`
	Correct int      `yaml:"correct"`
}

type placementYAML struct {
	Questions []questionYAML `yaml:"questions"`
}

type requirementYAML struct {
	Type      string `yaml:"type"`
	Threshold int    `yaml:"threshold"`
	Action    string `yaml:"action"`
	Category  string `yaml:"category"`
}

type achievementYAML struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Requirement requirementYAML `yaml:"requirement"`
	XPReward    int             `yaml:"xp_reward"`
}

type achievementsYAML struct {
	Achievements []achievementYAML `yaml:"achievements"`
}

type cardYAML struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Front    string `yaml:"front"`
	Back     string `yaml:"back"`
}

type cardsYAML struct {
	Cards []cardYAML `yaml:"cards"`
}

// Card describes one vocabulary card shipped with the course.
type Card struct {
	ID       shared.CardID
	Category string
	Front    string
	Back     string
}

// ─────────────────────────────────────────────────────────────────────────
// Loaders
// ─────────────────────────────────────────────────────────────────────────

// LoadCurriculum reads the unit catalog from a YAML file and validates
// the prerequisite graph.
func LoadCurriculum(path string) (*curriculum.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	return ParseCurriculum(data)
}

// ParseCurriculum builds a validated catalog from YAML bytes.
func ParseCurriculum(data []byte) (*curriculum.Catalog, error) {
	var doc curriculumYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}

	units := make([]curriculum.Unit, 0, len(doc.Units))
	for _, uy := range doc.Units {
		cefr, err := shared.ParseCEFRLevel(uy.CEFR)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", uy.ID, err)
		}

		unit := curriculum.Unit{
			ID:    shared.UnitID(uy.ID),
			Title: uy.Title,
			CEFR:  cefr,
		}
		for _, p := range uy.Prerequisites {
			unit.Prerequisites = append(unit.Prerequisites, shared.UnitID(p))
		}
		for _, ly := range uy.Lessons {
			score, err := shared.NewScore(ly.PassScore)
			if err != nil {
				return nil, fmt.Errorf("lesson %q: %w", ly.ID, err)
			}
			unit.Lessons = append(unit.Lessons, curriculum.Lesson{
				ID:        shared.LessonID(ly.ID),
				UnitID:    unit.ID,
				Title:     ly.Title,
				BaseXP:    ly.BaseXP,
				PassScore: score,
			})
		}
		units = append(units, unit)
	}

	return curriculum.NewCatalog(units)
}

// LoadPlacement reads the placement question bank from a YAML file.
func LoadPlacement(path string) (*placement.Scorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read placement bank: %w", err)
	}
	return ParsePlacement(data)
}

// ParsePlacement builds a placement scorer from YAML bytes.
func ParsePlacement(data []byte) (*placement.Scorer, error) {
	var doc placementYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse placement bank: %w", err)
	}

	questions := make([]placement.Question, 0, len(doc.Questions))
	for _, qy := range doc.Questions {
		band, err := shared.ParseCEFRLevel(qy.Band)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", qy.ID, err)
		}
		if qy.Correct < 0 || qy.Correct >= len(qy.Choices) {
			return nil, fmt.Errorf("question %q: correct choice out of range", qy.ID)
		}
		questions = append(questions, placement.Question{
			ID:            qy.ID,
			Band:          band,
			Prompt:        qy.Prompt,
			Choices:       qy.Choices,
			CorrectChoice: qy.Correct,
		})
	}

	return placement.NewScorer(questions), nil
}

// LoadAchievements reads achievement definitions from a YAML file.
func LoadAchievements(path string) (*achievement.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read achievements: %w", err)
	}
	return ParseAchievements(data)
}

// ParseAchievements builds the achievement engine from YAML bytes.
func ParseAchievements(data []byte) (*achievement.Engine, error) {
	var doc achievementsYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse achievements: %w", err)
	}

	defs := make([]achievement.Definition, 0, len(doc.Achievements))
	for _, ay := range doc.Achievements {
		defs = append(defs, achievement.Definition{
			ID:          shared.AchievementID(ay.ID),
			Title:       ay.Title,
			Description: ay.Description,
			Requirement: achievement.Requirement{
				Type:      achievement.RequirementType(ay.Requirement.Type),
				Threshold: ay.Requirement.Threshold,
				Action:    ay.Requirement.Action,
				Category:  ay.Requirement.Category,
			},
			XPReward: ay.XPReward,
		})
	}

	return achievement.NewEngine(defs)
}

// LoadCards reads the vocabulary card list from a YAML file.
func LoadCards(path string) ([]Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	return ParseCards(data)
}

// ParseCards builds the card list from YAML bytes.
func ParseCards(data []byte) ([]Card, error) {
	var doc cardsYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse cards: %w", err)
	}

	cards := make([]Card, 0, len(doc.Cards))
	for _, cy := range doc.Cards {
		if cy.ID == "" {
			return nil, fmt.Errorf("card with empty id")
		}
		cards = append(cards, Card{
			ID:       shared.CardID(cy.ID),
			Category: cy.Category,
			Front:    cy.Front,
			Back:     cy.Back,
		})
	}
	return cards, nil
}

// CardsByCategory groups card IDs by category, the shape the
// achievement fact builder needs for category mastery.
func CardsByCategory(cards []Card) map[string][]shared.CardID {
	byCat := make(map[string][]shared.CardID)
	for _, c := range cards {
		byCat[c.Category] = append(byCat[c.Category], c.ID)
	}
	return byCat
}
