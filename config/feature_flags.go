package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags toggles optional parts of the service at startup.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// LeetCode question of the day on the dashboard
	FeatureLeetCodeDaily = "leetcode.daily_problem"

	// Campus events listing and admin management
	FeatureEvents = "events"

	// Relay domain events between instances through Redis Pub/Sub
	FeatureRedisEventRelay = "events.redis_relay"

	// Serve leaderboard snapshots from Redis
	FeatureLeaderboardCache = "leaderboard.cache"
)

// LoadFeatureFlags loads defaults, then FEATURE_<NAME>=true|false overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}

	ff.register(FeatureLeetCodeDaily, "LeetCode question of the day", true)
	ff.register(FeatureEvents, "Campus events", true)
	ff.register(FeatureRedisEventRelay, "Cross-instance event relay over Redis", true)
	ff.register(FeatureLeaderboardCache, "Redis leaderboard snapshot cache", true)

	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) register(name, description string, enabled bool) {
	ff.features[name] = &Feature{Name: name, Description: description, Enabled: enabled}
}

func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		if val := os.Getenv(featureNameToEnvKey(name)); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "leetcode.daily_problem" -> "FEATURE_LEETCODE_DAILY_PROBLEM"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is on. Unknown names are off.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	return ok && f.Enabled
}

// EnableFeature turns a feature on.
func (ff *FeatureFlags) EnableFeature(name string) error {
	return ff.set(name, true)
}

// DisableFeature turns a feature off.
func (ff *FeatureFlags) DisableFeature(name string) error {
	return ff.set(name, false)
}

func (ff *FeatureFlags) set(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		return &FeatureFlagError{Feature: name, Message: "unknown feature"}
	}
	f.Enabled = enabled
	return nil
}

// Enabled returns the names of enabled features, sorted.
func (ff *FeatureFlags) Enabled() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	var out []string
	for name, f := range ff.features {
		if f.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// FeatureFlagError reports an operation on an unknown feature.
type FeatureFlagError struct {
	Feature string
	Message string
}

func (e *FeatureFlagError) Error() string {
	return fmt.Sprintf("feature %q: %s", e.Feature, e.Message)
}
