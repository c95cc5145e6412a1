package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/contactbook/internal/flagx"
	"github.com/dmitrijs2005/contactbook/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	PublicBaseURL    string `json:"public_base_url"`
	DatabaseDSN      string `json:"database_dsn"`
	LogLevel         string `json:"log_level"`

	TrustProxyHeaders bool     `json:"trust_proxy_headers"`
	CORSOrigins       []string `json:"cors_origins"`

	SecretKey                    string         `json:"secret_key"`
	SigningAlgorithm             string         `json:"algorithm"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`

	Argon2Time    uint32 `json:"argon2_time"`
	Argon2Memory  uint32 `json:"argon2_memory_kib"`
	Argon2Threads uint8  `json:"argon2_threads"`

	RateLimitRequests int            `json:"rate_limit_requests"`
	RateLimitWindow   timex.Duration `json:"rate_limit_window"`
	RedisAddr         string         `json:"redis_addr"`
	RedisPassword     string         `json:"redis_password"`
	RedisDB           int            `json:"redis_db"`

	SMTPHost     string `json:"mail_server"`
	SMTPPort     int    `json:"mail_port"`
	SMTPUser     string `json:"mail_username"`
	SMTPPassword string `json:"mail_password"`
	SMTPFrom     string `json:"mail_from"`
	SMTPFromName string `json:"mail_from_name"`
	SMTPSSL      bool   `json:"mail_ssl_tls"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	GravatarEnabled bool `json:"gravatar_enabled"`
	GravatarVerify  bool `json:"gravatar_verify"`

	OTLPEndpoint        string         `json:"otlp_endpoint"`
	HealthCheckInterval timex.Duration `json:"health_check_interval"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file path comes from the -c or -config flag, or from the
// CONTACTBOOK_CONFIG variable. With no path nothing is loaded. Keys missing
// from the file keep their current values.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args, EnvPrefix+"CONFIG")

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	fromJson(config, c)
	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:             c.EndpointAddrHTTP,
		EndpointAddrGRPC:             c.EndpointAddrGRPC,
		PublicBaseURL:                c.PublicBaseURL,
		DatabaseDSN:                  c.DatabaseDSN,
		LogLevel:                     c.LogLevel,
		TrustProxyHeaders:            c.TrustProxyHeaders,
		CORSOrigins:                  c.CORSOrigins,
		SecretKey:                    c.SecretKey,
		SigningAlgorithm:             c.SigningAlgorithm,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		Argon2Time:                   c.Argon2Time,
		Argon2Memory:                 c.Argon2Memory,
		Argon2Threads:                c.Argon2Threads,
		RateLimitRequests:            c.RateLimitRequests,
		RateLimitWindow:              timex.Duration{Duration: c.RateLimitWindow},
		RedisAddr:                    c.RedisAddr,
		RedisPassword:                c.RedisPassword,
		RedisDB:                      c.RedisDB,
		SMTPHost:                     c.SMTPHost,
		SMTPPort:                     c.SMTPPort,
		SMTPUser:                     c.SMTPUser,
		SMTPPassword:                 c.SMTPPassword,
		SMTPFrom:                     c.SMTPFrom,
		SMTPFromName:                 c.SMTPFromName,
		SMTPSSL:                      c.SMTPSSL,
		S3RootUser:                   c.S3RootUser,
		S3RootPassword:               c.S3RootPassword,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
		GravatarEnabled:              c.GravatarEnabled,
		GravatarVerify:               c.GravatarVerify,
		OTLPEndpoint:                 c.OTLPEndpoint,
		HealthCheckInterval:          timex.Duration{Duration: c.HealthCheckInterval},
	}
}

func fromJson(config *Config, c *JsonConfig) {
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.PublicBaseURL = c.PublicBaseURL
	config.DatabaseDSN = c.DatabaseDSN
	config.LogLevel = c.LogLevel
	config.TrustProxyHeaders = c.TrustProxyHeaders
	config.CORSOrigins = c.CORSOrigins
	config.SecretKey = c.SecretKey
	config.SigningAlgorithm = c.SigningAlgorithm
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.Argon2Time = c.Argon2Time
	config.Argon2Memory = c.Argon2Memory
	config.Argon2Threads = c.Argon2Threads
	config.RateLimitRequests = c.RateLimitRequests
	config.RateLimitWindow = c.RateLimitWindow.Duration
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.SMTPHost = c.SMTPHost
	config.SMTPPort = c.SMTPPort
	config.SMTPUser = c.SMTPUser
	config.SMTPPassword = c.SMTPPassword
	config.SMTPFrom = c.SMTPFrom
	config.SMTPFromName = c.SMTPFromName
	config.SMTPSSL = c.SMTPSSL
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.GravatarEnabled = c.GravatarEnabled
	config.GravatarVerify = c.GravatarVerify
	config.OTLPEndpoint = c.OTLPEndpoint
	config.HealthCheckInterval = c.HealthCheckInterval.Duration
}
