package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, user targeting, and cohort-based experiments.
//
// Learner-facing mechanics ship dark and ramp up per cohort: a streak
// mechanic or a new reward curve changes behavior, so it must be possible
// to pull back without a release.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Cohort targeting (e.g., "2026-spring", "2026-fall")
	// Empty means all cohorts
	TargetCohorts []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string // Learner UUID
	Cohort  string // Learner cohort (e.g., "2026-spring")
	IsAdmin bool   // Is admin user
}

// Predefined feature flag names.
const (
	// === Progress Features ===
	FeatureProgressStreakFreeze = "progress.streak_freeze" // One-day gaps consume a freeze
	FeatureProgressXPMultiplier = "progress.xp_multiplier" // Streak-based XP multiplier
	FeatureProgressLevelCap     = "progress.level_cap"     // Cap levels at 20

	// === Placement Features ===
	FeaturePlacementTest   = "placement.test"   // CEFR placement test
	FeaturePlacementRetake = "placement.retake" // Allow retaking the test

	// === Achievement Features ===
	FeatureAchievementEngine  = "achievement.engine"   // Achievement rule engine
	FeatureAchievementRewards = "achievement.rewards"  // XP rewards on unlock
	FeatureAchievementCategoryMastery = "achievement.category_mastery" // Both-direction category rule

	// === Sync Features ===
	FeatureSyncRemotePush  = "sync.remote_push"  // Fire-and-forget snapshot pushes
	FeatureSyncSignInMerge = "sync.signin_merge" // Sign-in-time remote merge
	FeatureSyncOfflineMode = "sync.offline_mode" // Force the no-op remote store

	// === Review Features ===
	FeatureReviewReverse = "review.reverse_direction" // Reverse-direction card reviews

	// === Experimental Features ===
	FeatureExperimentalSessionBonus = "experimental.session_bonus" // Perfect-session XP bonus
	FeatureExperimentalAnalytics    = "experimental.analytics"     // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Progress features - the core loop, enabled by default
	ff.features[FeatureProgressStreakFreeze] = &Feature{
		Name:           FeatureProgressStreakFreeze,
		Description:    "Consume a streak freeze on a one-day gap",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressXPMultiplier] = &Feature{
		Name:           FeatureProgressXPMultiplier,
		Description:    "Streak-length XP multiplier",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressLevelCap] = &Feature{
		Name:           FeatureProgressLevelCap,
		Description:    "Cap learner levels at 20",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Placement features
	ff.features[FeaturePlacementTest] = &Feature{
		Name:           FeaturePlacementTest,
		Description:    "CEFR placement test on first sign-in",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePlacementRetake] = &Feature{
		Name:           FeaturePlacementRetake,
		Description:    "Allow retaking the placement test",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Achievement features
	ff.features[FeatureAchievementEngine] = &Feature{
		Name:           FeatureAchievementEngine,
		Description:    "Evaluate achievements at session end",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAchievementRewards] = &Feature{
		Name:           FeatureAchievementRewards,
		Description:    "Credit XP rewards on achievement unlock",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAchievementCategoryMastery] = &Feature{
		Name:           FeatureAchievementCategoryMastery,
		Description:    "Category mastery requires both review directions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Sync features
	ff.features[FeatureSyncRemotePush] = &Feature{
		Name:           FeatureSyncRemotePush,
		Description:    "Push snapshots after each mutation",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSyncSignInMerge] = &Feature{
		Name:           FeatureSyncSignInMerge,
		Description:    "Merge the remote snapshot at sign-in",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSyncOfflineMode] = &Feature{
		Name:           FeatureSyncOfflineMode,
		Description:    "Run against the no-op remote store",
		Enabled:        false,
		RolloutPercent: 0,
	}

	// Review features
	ff.features[FeatureReviewReverse] = &Feature{
		Name:           FeatureReviewReverse,
		Description:    "Offer reverse-direction card reviews",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalSessionBonus] = &Feature{
		Name:           FeatureExperimentalSessionBonus,
		Description:    "Extra XP for perfect sessions",
		Enabled:        true,
		RolloutPercent: 50,
		Variants:       []string{"bonus_10", "bonus_20"},
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced learning analytics",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_SYNC_OFFLINE_MODE=true
// Example: FEATURE_EXPERIMENTAL_SESSION_BONUS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "sync.offline_mode" -> "FEATURE_SYNC_OFFLINE_MODE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check cohort targeting
	if len(feature.TargetCohorts) > 0 && ctx != nil && ctx.Cohort != "" {
		cohortMatch := false
		for _, c := range feature.TargetCohorts {
			if c == ctx.Cohort {
				cohortMatch = true
				break
			}
		}
		if !cohortMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID string, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID string, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// SyncEnabled checks if any remote sync path is active.
func (ff *FeatureFlags) SyncEnabled(ctx *FeatureContext) bool {
	if ff.IsEnabled(FeatureSyncOfflineMode, ctx) {
		return false
	}
	return ff.IsEnabled(FeatureSyncRemotePush, ctx) ||
		ff.IsEnabled(FeatureSyncSignInMerge, ctx)
}

// GamificationEnabled checks if any reward mechanic is active.
func (ff *FeatureFlags) GamificationEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureProgressXPMultiplier, ctx) ||
		ff.IsEnabled(FeatureAchievementEngine, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
