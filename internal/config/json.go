package config

import (
	"encoding/json"
	"os"

	"github.com/codevault/codevault/internal/flagx"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from zero values so a partial file only overrides
// what it names.
type JsonConfig struct {
	EndpointAddrHTTP        *string   `json:"endpoint_addr_http"`
	EndpointAddrHealth      *string   `json:"endpoint_addr_health"`
	DatabaseDSN             *string   `json:"database_dsn"`
	SecretKey               *string   `json:"secret_key"`
	SessionValidityDuration *Duration `json:"session_validity_duration"`
	OwnerEmail              *string   `json:"owner_email"`
	OwnerPasswordHash       *string   `json:"owner_password_hash"`
	OwnerDisabled           *bool     `json:"owner_disabled"`
	LoginAttemptsPerMinute  *int      `json:"login_attempts_per_minute"`
	LoginBurst              *int      `json:"login_burst"`
	MaxAttachmentSize       *int64    `json:"max_attachment_size"`
	S3RootUser              *string   `json:"s3_root_user"`
	S3RootPassword          *string   `json:"s3_root_password"`
	S3Bucket                *string   `json:"s3_bucket"`
	S3Region                *string   `json:"s3_region"`
	S3BaseEndpoint          *string   `json:"s3_base_endpoint"`
	SecureCookie            *bool     `json:"secure_cookie"`
	LogLevel                *string   `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Without the flag nothing is loaded. An unreadable file or invalid JSON
// panics, since the process cannot start with a half-applied configuration.
func parseJson(config *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrHealth, c.EndpointAddrHealth)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setString(&config.OwnerEmail, c.OwnerEmail)
	setString(&config.OwnerPasswordHash, c.OwnerPasswordHash)
	if c.OwnerDisabled != nil {
		config.OwnerDisabled = *c.OwnerDisabled
	}
	if c.LoginAttemptsPerMinute != nil {
		config.LoginAttemptsPerMinute = *c.LoginAttemptsPerMinute
	}
	if c.LoginBurst != nil {
		config.LoginBurst = *c.LoginBurst
	}
	if c.MaxAttachmentSize != nil {
		config.MaxAttachmentSize = *c.MaxAttachmentSize
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.SecureCookie != nil {
		config.SecureCookie = *c.SecureCookie
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
