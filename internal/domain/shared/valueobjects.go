// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique learner identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// LessonID identifies a lesson within the curriculum catalog.
// Lesson IDs are slugs like "unit-03-lesson-02" or "greetings-intro".
type LessonID string

// Slug format shared by lesson, unit, card and achievement identifiers.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// IsValid checks if the lesson ID is a valid slug.
func (l LessonID) IsValid() bool {
	return slugRegex.MatchString(string(l))
}

// String returns the string representation.
func (l LessonID) String() string {
	return string(l)
}

// NewLessonID creates a new LessonID with validation.
func NewLessonID(id string) (LessonID, error) {
	lid := LessonID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", ErrInvalidLessonID
	}
	return lid, nil
}

// UnitID identifies a curriculum unit.
type UnitID string

// IsValid checks if the unit ID is a valid slug.
func (u UnitID) IsValid() bool {
	return slugRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UnitID) String() string {
	return string(u)
}

// CardID identifies a vocabulary card.
type CardID string

// IsValid checks if the card ID is a valid slug.
func (c CardID) IsValid() bool {
	return slugRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CardID) String() string {
	return string(c)
}

// ExerciseID identifies an exercise inside a lesson.
type ExerciseID string

// IsValid checks if the exercise ID is a valid slug.
func (e ExerciseID) IsValid() bool {
	return slugRegex.MatchString(string(e))
}

// String returns the string representation.
func (e ExerciseID) String() string {
	return string(e)
}

// AchievementID identifies an achievement definition.
type AchievementID string

// String returns the string representation.
func (a AchievementID) String() string {
	return string(a)
}

// IsValid checks if the achievement ID is a valid slug.
func (a AchievementID) IsValid() bool {
	return slugRegex.MatchString(string(a))
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a lesson score as a percentage.
type Score int

const (
	MinScore Score = 0
	MaxScore Score = 100
)

// IsValid checks if the score is within valid range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// IsPerfect checks if the score is a full 100%.
func (s Score) IsPerfect() bool {
	return s == MaxScore
}

// Max returns the greater of two scores.
func (s Score) Max(other Score) Score {
	if other > s {
		return other
	}
	return s
}

// NewScore creates a new Score with validation.
func NewScore(value int) (Score, error) {
	s := Score(value)
	if !s.IsValid() {
		return 0, ErrInvalidScore
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents lifetime experience points earned by a learner.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 10000000
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP.
// XP is lifetime-accumulated and never decreases.
func (x XP) Add(amount int) XP {
	if amount < 0 {
		return x
	}
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	return result
}

// Level thresholds: total XP required to reach each level, indexed by level-1.
// After the table ends, each level costs a flat 2500 XP more.
var levelThresholds = []int{
	0,    // L1
	100,  // L2
	250,  // L3
	500,  // L4
	1000, // L5
	1750, // L6
	2750, // L7
	4000, // L8
	5500, // L9
	7500, // L10
}

// Level calculates the level from lifetime XP.
// The level is a pure function of XP and is never stored.
func (x XP) Level() Level {
	if x <= 0 {
		return MinLevel
	}
	level := MinLevel
	for i, threshold := range levelThresholds {
		if int(x) >= threshold {
			level = Level(i + 1)
		}
	}
	if level == Level(len(levelThresholds)) {
		extra := (int(x) - levelThresholds[len(levelThresholds)-1]) / 2500
		level += Level(extra)
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// ProgressToNextLevel returns percentage progress to the next level (0-100).
func (x XP) ProgressToNextLevel() int {
	current := x.Level()
	if current >= MaxLevel {
		return 100
	}
	floor := current.RequiredXP()
	ceiling := (current + 1).RequiredXP()
	span := ceiling - floor
	if span == 0 {
		return 100
	}
	return ((int(x) - floor) * 100) / span
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, ErrNegativeXP
	}
	if amount > int(MaxXP) {
		return MaxXP, nil
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a learner's level derived from lifetime XP.
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 20
)

// IsValid checks if the level is within valid range.
func (l Level) IsValid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// RequiredXP returns the total XP required to reach this level.
func (l Level) RequiredXP() int {
	if l <= MinLevel {
		return 0
	}
	if int(l) <= len(levelThresholds) {
		return levelThresholds[l-1]
	}
	extra := int(l) - len(levelThresholds)
	return levelThresholds[len(levelThresholds)-1] + extra*2500
}

// ═══════════════════════════════════════════════════════════════════════════
// CEFR Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// CEFRLevel represents a Common European Framework proficiency band.
// Placement covers A1 through B2; C1/C2 content is authored but never
// assigned by the placement scorer.
type CEFRLevel string

const (
	CEFRA1 CEFRLevel = "A1"
	CEFRA2 CEFRLevel = "A2"
	CEFRB1 CEFRLevel = "B1"
	CEFRB2 CEFRLevel = "B2"
	CEFRC1 CEFRLevel = "C1"
	CEFRC2 CEFRLevel = "C2"
)

// cefrOrder maps each band to its position for comparisons.
var cefrOrder = map[CEFRLevel]int{
	CEFRA1: 1,
	CEFRA2: 2,
	CEFRB1: 3,
	CEFRB2: 4,
	CEFRC1: 5,
	CEFRC2: 6,
}

// IsValid checks if the CEFR level is a known band.
func (c CEFRLevel) IsValid() bool {
	_, ok := cefrOrder[c]
	return ok
}

// String returns the string representation.
func (c CEFRLevel) String() string {
	return string(c)
}

// AtLeast reports whether c is the same band as other or higher.
func (c CEFRLevel) AtLeast(other CEFRLevel) bool {
	return cefrOrder[c] >= cefrOrder[other]
}

// Next returns the band one step above c, or c itself at the top.
func (c CEFRLevel) Next() CEFRLevel {
	switch c {
	case CEFRA1:
		return CEFRA2
	case CEFRA2:
		return CEFRB1
	case CEFRB1:
		return CEFRB2
	case CEFRB2:
		return CEFRC1
	case CEFRC1:
		return CEFRC2
	default:
		return c
	}
}

// ParseCEFRLevel parses a string into a CEFRLevel.
func ParseCEFRLevel(s string) (CEFRLevel, error) {
	c := CEFRLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrUnknownCEFRLevel
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Multiplier
// ═══════════════════════════════════════════════════════════════════════════

// Multiplier is an XP bonus factor derived from the current streak length.
type Multiplier float64

// String formats the multiplier for display ("1.5x").
func (m Multiplier) String() string {
	return fmt.Sprintf("%gx", float64(m))
}

// Apply scales a base XP amount by the multiplier, rounding half up.
// The tiers carry two decimal places, so the arithmetic is done in
// hundredths to avoid float drift (1.15 x 10 must give 12, not 11).
func (m Multiplier) Apply(baseXP int) int {
	hundredths := int(math.Round(float64(m) * 100))
	return (baseXP*hundredths + 50) / 100
}

// MultiplierForStreak returns the XP multiplier tier for a streak length.
func MultiplierForStreak(streakDays int) Multiplier {
	switch {
	case streakDays >= 100:
		return 2.0
	case streakDays >= 60:
		return 1.75
	case streakDays >= 30:
		return 1.5
	case streakDays >= 14:
		return 1.3
	case streakDays >= 7:
		return 1.15
	default:
		return 1.0
	}
}
