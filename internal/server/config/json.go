package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/whistles/internal/flagx"
	"github.com/dmitrijs2005/whistles/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Intervals use
// timex.Duration so both "5m" and integer nanoseconds are accepted.
// Booleans are pointers so an explicit false can override a default.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn"`
	LogLevel         string `json:"log_level"`
	JWTSecret        string `json:"jwt_secret"`

	Secret              string `json:"secret"`
	Salt                string `json:"salt"`
	Shift               *int64 `json:"shift"`
	SchemaVersion       string `json:"schema_version"`
	PruneIntervalDays   int    `json:"prune_interval_days"`
	LookbackWindowDays  int    `json:"lookback_window_days"`
	RequireChannelOptIn *bool  `json:"require_channel_opt_in"`
	PruneSignalScope    string `json:"prune_signal_scope"`

	RegistryPath            string         `json:"registry_path"`
	RegistryRefreshInterval timex.Duration `json:"registry_refresh_interval"`
	MaxChannelMembers       int            `json:"max_channel_members"`
	UpstreamTimeout         timex.Duration `json:"upstream_timeout"`
	WarpcastBaseURL         string         `json:"warpcast_base_url"`
	WarpcastMembersURL      string         `json:"warpcast_members_url"`
	NeynarBaseURL           string         `json:"neynar_base_url"`
	NeynarAPIKey            string         `json:"neynar_api_key"`

	RetentionInterval      timex.Duration `json:"retention_interval"`
	RetentionCandidatePoll timex.Duration `json:"retention_candidate_poll"`
	RetentionExport        *bool          `json:"retention_export"`

	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

// parseJson overlays the file named by -c or -config. Only fields present
// with a non-zero value replace what earlier layers set. A missing or
// malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.JWTSecret, c.JWTSecret)

	setString(&config.Secret, c.Secret)
	setString(&config.Salt, c.Salt)
	if c.Shift != nil {
		config.Shift = *c.Shift
	}
	setString(&config.SchemaVersion, c.SchemaVersion)
	setInt(&config.PruneIntervalDays, c.PruneIntervalDays)
	setInt(&config.LookbackWindowDays, c.LookbackWindowDays)
	if c.RequireChannelOptIn != nil {
		config.RequireChannelOptIn = *c.RequireChannelOptIn
	}
	setString(&config.PruneSignalScope, c.PruneSignalScope)

	setString(&config.RegistryPath, c.RegistryPath)
	setDuration(&config.RegistryRefreshInterval, c.RegistryRefreshInterval)
	setInt(&config.MaxChannelMembers, c.MaxChannelMembers)
	setDuration(&config.UpstreamTimeout, c.UpstreamTimeout)
	setString(&config.WarpcastBaseURL, c.WarpcastBaseURL)
	setString(&config.WarpcastMembersURL, c.WarpcastMembersURL)
	setString(&config.NeynarBaseURL, c.NeynarBaseURL)
	setString(&config.NeynarAPIKey, c.NeynarAPIKey)

	setDuration(&config.RetentionInterval, c.RetentionInterval)
	setDuration(&config.RetentionCandidatePoll, c.RetentionCandidatePoll)
	if c.RetentionExport != nil {
		config.RetentionExport = *c.RetentionExport
	}

	setInt(&config.RateLimitPerMinute, c.RateLimitPerMinute)
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
