// Package analysis implements the local rule-based scoring and ranking
// engine for shopping results: category profiles, category detection, field
// normalization, weighted scoring with generated pros/cons, and fusion of
// the analysis back onto raw listings.
package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shopscout-ai/shopscout/internal/observability"
)

// DefaultCategory is the profile key used when no category matches.
const DefaultCategory = "default"

// CategoryProfile holds the scoring tables for one product category.
// Profiles are immutable after load and safe for concurrent readers.
type CategoryProfile struct {
	Category         string             `yaml:"category"`
	Weights          map[string]float64 `yaml:"weights"`
	Brands           map[string]int     `yaml:"brands"`
	PositiveKeywords map[string]int     `yaml:"positive_keywords"`
	NegativeKeywords map[string]int     `yaml:"negative_keywords"`
}

// Weight returns the multiplier for a scoring factor, defaulting to 1.0.
func (p *CategoryProfile) Weight(factor string) float64 {
	if w, ok := p.Weights[factor]; ok {
		return w
	}
	return 1.0
}

// ProfileStore maps category keys to scoring profiles with a guaranteed
// default fallback.
type ProfileStore struct {
	profiles map[string]*CategoryProfile
}

// NewProfileStore builds a store from the given profiles. A "default"
// profile is synthesized with neutral weights if none is provided.
func NewProfileStore(profiles map[string]*CategoryProfile) *ProfileStore {
	if profiles == nil {
		profiles = make(map[string]*CategoryProfile)
	}
	if _, ok := profiles[DefaultCategory]; !ok {
		profiles[DefaultCategory] = neutralProfile()
	}
	return &ProfileStore{profiles: profiles}
}

// Profile returns the profile for the category, falling back to the default
// profile. Never fails: a missing category degrades instead of erroring.
func (s *ProfileStore) Profile(category string) *CategoryProfile {
	key := strings.ToLower(strings.TrimSpace(category))
	if p, ok := s.profiles[key]; ok {
		return p
	}
	return s.profiles[DefaultCategory]
}

// Categories returns the loaded category keys in sorted order.
func (s *ProfileStore) Categories() []string {
	keys := make([]string, 0, len(s.profiles))
	for k := range s.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadProfiles reads every YAML profile document in dir and returns a store.
// A file that cannot be read or parsed is logged and skipped; an unreadable
// directory yields a store with only the default profile. Loading never
// fails the caller.
func LoadProfiles(dir string, logger *observability.Logger) *ProfileStore {
	profiles := make(map[string]*CategoryProfile)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Cannot read profiles directory, using neutral default only")
		return NewProfileStore(profiles)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		profile, err := loadProfileFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable profile")
			continue
		}

		key := strings.ToLower(profile.Category)
		if key == "" {
			key = strings.TrimSuffix(entry.Name(), ext)
		}
		profiles[key] = profile
	}

	logger.Info().Int("profiles", len(profiles)).Str("dir", dir).Msg("Category profiles loaded")
	return NewProfileStore(profiles)
}

func loadProfileFile(path string) (*CategoryProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	profile := &CategoryProfile{}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	// Brand and keyword lookups are case-insensitive.
	profile.Brands = lowercaseKeys(profile.Brands)
	profile.PositiveKeywords = lowercaseKeys(profile.PositiveKeywords)
	profile.NegativeKeywords = lowercaseKeys(profile.NegativeKeywords)

	return profile, nil
}

func neutralProfile() *CategoryProfile {
	return &CategoryProfile{
		Category:         DefaultCategory,
		Weights:          map[string]float64{},
		Brands:           map[string]int{},
		PositiveKeywords: map[string]int{},
		NegativeKeywords: map[string]int{},
	}
}

func lowercaseKeys(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
