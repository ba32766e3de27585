package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/polzovatel/relocate/internal/resolver"
)

const (
	envPolicy      = "RELOCATE_POLICY"
	envVerifyExact = "RELOCATE_VERIFY_EXACT"
	envPredicates  = "RELOCATE_PREDICATES"
	envMaxDepth    = "RELOCATE_MAX_DEPTH"
	envLinkLimit   = "RELOCATE_LINK_LIMIT"
	envLogLevel    = "RELOCATE_LOG_LEVEL"
	envLogJSON     = "RELOCATE_LOG_JSON"
	envHeadless    = "RELOCATE_HEADLESS"
	envConcurrency = "RELOCATE_CONCURRENCY"

	defaultMaxDepth    = 3
	defaultLinkLimit   = 10
	defaultConcurrency = 4
)

// Config holds settings read from the environment. Command-line flags
// override individual fields.
type Config struct {
	Policy      string
	VerifyExact bool
	Predicates  []string
	MaxDepth    int
	LinkLimit   int
	LogLevel    string
	LogJSON     bool
	Headless    bool
	Concurrency int
}

// FromEnv reads RELOCATE_* variables, falling back to defaults.
func FromEnv() Config {
	return Config{
		Policy:      strings.TrimSpace(os.Getenv(envPolicy)),
		VerifyExact: parseBoolEnv(envVerifyExact, false),
		Predicates:  parseListEnv(envPredicates, []string{"text", "href", "class"}),
		MaxDepth:    parseIntEnv(envMaxDepth, defaultMaxDepth),
		LinkLimit:   parseIntEnv(envLinkLimit, defaultLinkLimit),
		LogLevel:    strings.TrimSpace(os.Getenv(envLogLevel)),
		LogJSON:     parseBoolEnv(envLogJSON, false),
		Headless:    parseBoolEnv(envHeadless, true),
		Concurrency: parseIntEnv(envConcurrency, defaultConcurrency),
	}
}

// ResolverOptions turns the matching settings into resolver options.
func (c Config) ResolverOptions() (resolver.Options, error) {
	policy, err := resolver.ParsePolicy(c.Policy)
	if err != nil {
		return resolver.Options{}, err
	}
	preds := make([]resolver.Predicate, 0, len(c.Predicates))
	for _, name := range c.Predicates {
		preds = append(preds, resolver.PredicateByName(name))
	}
	return resolver.Options{Predicates: preds, Policy: policy, VerifyExact: c.VerifyExact}, nil
}

func parseBoolEnv(name string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func parseIntEnv(name string, def int) int {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func parseListEnv(name string, def []string) []string {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
