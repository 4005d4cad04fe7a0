package goSession

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable read by [LoadConfigFromEnv].
const EnvPrefix = "PORTAL_"

// LoadConfigFromEnv starts from [DefaultConfig] and overrides it from PORTAL_*
// environment variables. Files named in envFiles are loaded first when present;
// variables already set in the environment win over file values.
func LoadConfigFromEnv(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, err
		}
	}

	cfg := DefaultConfig()

	cfg.Transport.BaseURL = getString("API_BASE_URL", cfg.Transport.BaseURL)
	cfg.Transport.Timeout = getDuration("API_TIMEOUT", cfg.Transport.Timeout)
	cfg.Transport.Client = getString("API_CLIENT", cfg.Transport.Client)

	cfg.Endpoints.Login = getString("LOGIN_ENDPOINT", cfg.Endpoints.Login)
	cfg.Endpoints.Logout = getString("LOGOUT_ENDPOINT", cfg.Endpoints.Logout)
	cfg.Endpoints.Refresh = getString("REFRESH_ENDPOINT", cfg.Endpoints.Refresh)
	cfg.Endpoints.Me = getString("ME_ENDPOINT", cfg.Endpoints.Me)
	cfg.Endpoints.MenuAuth = getString("MENU_AUTH_ENDPOINT", cfg.Endpoints.MenuAuth)

	cfg.Session.Key = getString("SESSION_KEY", cfg.Session.Key)
	cfg.Session.LeadTime = getDuration("REFRESH_LEAD_TIME", cfg.Session.LeadTime)
	cfg.Session.InferExpiryFromToken = getBool("INFER_TOKEN_EXPIRY", cfg.Session.InferExpiryFromToken)
	cfg.Session.Storage = getString("SESSION_STORAGE", cfg.Session.Storage)
	cfg.Session.RedisPrefix = getString("SESSION_REDIS_PREFIX", cfg.Session.RedisPrefix)
	cfg.Session.RedisTTL = getDuration("SESSION_REDIS_TTL", cfg.Session.RedisTTL)
	cfg.Session.BoltPath = getString("SESSION_BOLT_PATH", cfg.Session.BoltPath)

	cfg.Navigation.LoginPath = getString("LOGIN_PATH", cfg.Navigation.LoginPath)
	cfg.Navigation.UnauthLanding = getString("FIRST_PAGE", cfg.Navigation.UnauthLanding)
	cfg.Navigation.AuthLanding = getString("HOME_PAGE", cfg.Navigation.AuthLanding)
	cfg.Navigation.PublicPaths = getList("PUBLIC_PATHS", cfg.Navigation.PublicPaths)
	cfg.Navigation.LegacyMenuAuth = getBool("LEGACY_MENU_AUTH", cfg.Navigation.LegacyMenuAuth)

	if raw := getList("FORCE_LOGOUT_STATUSES", nil); raw != nil {
		statuses := make([]int, 0, len(raw))
		for _, s := range raw {
			n, err := strconv.Atoi(s)
			if err != nil {
				continue
			}
			statuses = append(statuses, n)
		}
		cfg.Failure.ForceLogoutStatuses = statuses
	}

	cfg.Audit.Enabled = getBool("AUDIT_ENABLED", cfg.Audit.Enabled)
	cfg.Audit.BufferSize = getInt("AUDIT_BUFFER", cfg.Audit.BufferSize)
	cfg.Metrics.Enabled = getBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.EnableLatencyHistograms = getBool("METRICS_LATENCY", cfg.Metrics.EnableLatencyHistograms)

	cfg.Logging.Enabled = getBool("LOG_ENABLED", cfg.Logging.Enabled)
	cfg.Logging.Level = getString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Encoding = getString("LOG_ENCODING", cfg.Logging.Encoding)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDuration accepts Go durations ("90s") and bare seconds ("90").
func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(val); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
