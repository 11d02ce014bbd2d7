package backend

import (
	"fmt"

	"moneytracker/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		SeedFile:     appConfig.SeedFile,
		UserCacheTTL: appConfig.UserCacheTTL,
	}, nil
}

// MailFromAppConfig converts the application config to mail config
func MailFromAppConfig(appConfig *config.Config) (MailConfig, error) {
	if appConfig == nil {
		return MailConfig{}, fmt.Errorf("app config is nil")
	}

	transport := Transport(appConfig.MailTransport)
	if !transport.IsValid() {
		return MailConfig{}, fmt.Errorf("invalid mail transport in config: %s", appConfig.MailTransport)
	}

	return MailConfig{
		Transport:            transport,
		From:                 appConfig.MailFrom,
		SMTPHost:             appConfig.SMTPHost,
		SMTPPort:             appConfig.SMTPPort,
		SMTPUsername:         appConfig.SMTPUsername,
		SMTPPassword:         appConfig.SMTPPassword,
		GmailCredentialsFile: appConfig.GmailCredentialsFile,
		GmailCredentialsJSON: appConfig.GmailCredentialsJSON,
		AMQPURL:              appConfig.AMQPURL,
		AMQPExchange:         appConfig.AMQPExchange,
		AMQPQueue:            appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres backend")
		}
	case MemoryBackend:
		// seed file is optional
	}

	return nil
}

// Validate validates the mail configuration
func (c MailConfig) Validate() error {
	if !c.Transport.IsValid() {
		return fmt.Errorf("invalid mail transport: %s", c.Transport)
	}

	switch c.Transport {
	case SMTPTransport:
		if c.SMTPHost == "" || c.From == "" {
			return fmt.Errorf("SMTP host and sender address are required for smtp transport")
		}
	case GmailTransport:
		if c.GmailCredentialsFile == "" && c.GmailCredentialsJSON == "" {
			return fmt.Errorf("either GmailCredentialsFile or GmailCredentialsJSON must be provided for gmail transport")
		}
		if c.From == "" {
			return fmt.Errorf("sender address is required for gmail transport")
		}
	case AMQPTransport:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP URL is required for amqp transport")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
