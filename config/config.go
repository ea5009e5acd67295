package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Environment represents the application environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const secretRefreshInterval = time.Minute

// Provider defines the interface for configuration management
type Provider interface {
	// GetString retrieves a string configuration value
	GetString(ctx context.Context, key string) (string, error)
	// GetInt retrieves an integer configuration value
	GetInt(ctx context.Context, key string) (int, error)
	// GetSecret retrieves a secret value
	GetSecret(ctx context.Context, key string) (string, error)
	// GetEnvironment returns the current environment
	GetEnvironment() Environment
}

// EnvProvider implements Provider using environment variables
type EnvProvider struct {
	prefix      string
	environment Environment
}

// NewProvider returns an AWS Secrets Manager provider when AWS_SECRET_NAME
// is set and an environment provider otherwise
func NewProvider(ctx context.Context) (Provider, error) {
	if secretName := os.Getenv("AWS_SECRET_NAME"); secretName != "" {
		return NewAWSSecretsProvider(ctx, secretName)
	}
	return NewEnvProvider(""), nil
}

// NewEnvProvider creates a new environment-based configuration provider
func NewEnvProvider(prefix string) Provider {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = string(Development)
	}
	return &EnvProvider{
		prefix:      prefix,
		environment: Environment(env),
	}
}

// GetEnvironment returns the current environment
func (p *EnvProvider) GetEnvironment() Environment {
	return p.environment
}

// GetString retrieves a string configuration value from environment variables
func (p *EnvProvider) GetString(ctx context.Context, key string) (string, error) {
	value := os.Getenv(p.prefix + key)
	if value == "" {
		return "", fmt.Errorf("environment variable %s%s not set", p.prefix, key)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value from environment variables
func (p *EnvProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetSecret retrieves a secret value from environment variables
func (p *EnvProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}

// SecretsManagerAPI is the part of the Secrets Manager client the provider uses
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsProvider implements Provider using AWS Secrets Manager
type AWSSecretsProvider struct {
	client      SecretsManagerAPI
	secretName  string
	environment Environment

	// mu guards cache and lastFetch; it is held across a fetch so
	// concurrent misses share one GetSecretValue call
	mu        sync.Mutex
	cache     map[string]string
	lastFetch time.Time
}

// NewAWSSecretsProvider creates a new AWS Secrets Manager based configuration provider
func NewAWSSecretsProvider(ctx context.Context, secretName string) (Provider, error) {
	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Get environment from AWS Systems Manager Parameter Store or environment variable
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = string(Development)
	}

	return NewAWSSecretsProviderWithClient(secretsmanager.NewFromConfig(cfg), secretName, Environment(env)), nil
}

// NewAWSSecretsProviderWithClient creates a Secrets Manager provider with a custom client
func NewAWSSecretsProviderWithClient(client SecretsManagerAPI, secretName string, env Environment) *AWSSecretsProvider {
	return &AWSSecretsProvider{
		client:      client,
		secretName:  secretName,
		cache:       make(map[string]string),
		environment: env,
	}
}

// GetEnvironment returns the current environment
func (p *AWSSecretsProvider) GetEnvironment() Environment {
	return p.environment
}

// GetString retrieves a string configuration value from AWS Secrets Manager
func (p *AWSSecretsProvider) GetString(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Check cache first
	if value, ok := p.cache[key]; ok {
		return value, nil
	}
	if !p.lastFetch.IsZero() && time.Since(p.lastFetch) < secretRefreshInterval {
		return "", fmt.Errorf("secret key %s not found", key)
	}

	// Fetch secret from AWS Secrets Manager
	secret, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret: %w", err)
	}

	if secret.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", p.secretName)
	}

	// Parse secret string as JSON
	var secretMap map[string]string
	if err := json.Unmarshal([]byte(*secret.SecretString), &secretMap); err != nil {
		return "", fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	// Validate secret schema
	if err := validateSecretSchema(secretMap, p.environment); err != nil {
		return "", fmt.Errorf("invalid secret schema: %w", err)
	}

	// Update cache
	p.cache = secretMap
	p.lastFetch = time.Now()

	// Return requested value
	value, ok := secretMap[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found", key)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value from AWS Secrets Manager
func (p *AWSSecretsProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetSecret retrieves a secret value from AWS Secrets Manager
func (p *AWSSecretsProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	// DriverPgx selects PostgreSQL through github.com/jackc/pgx/v5/stdlib
	DriverPgx = "pgx"
)

var (
	validSSLModes = map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	dbNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	prefixPattern = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)
)

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file
	Path string
}

// Validate checks if the database configuration is valid
func (c *DatabaseConfig) Validate(env Environment) error {
	switch c.Driver {
	case DriverSQLite:
		if env == Production {
			return &ValidationError{Field: "Driver", Message: "sqlite3 is not allowed in production"}
		}
		return nil
	case DriverPostgres, DriverPgx:
	default:
		return &ValidationError{Field: "Driver", Message: "driver must be postgres, pgx or sqlite3"}
	}

	if err := validateHost("Host", c.Host, env); err != nil {
		return err
	}

	// Validate host is a valid hostname or IP
	if host := net.ParseIP(c.Host); host == nil {
		if _, err := net.LookupHost(c.Host); err != nil {
			return &ValidationError{Field: "Host", Message: "invalid hostname or IP address"}
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		return &ValidationError{Field: "Port", Message: "port must be between 1 and 65535"}
	}

	if c.User == "" {
		return &ValidationError{Field: "User", Message: "user cannot be empty"}
	}

	if c.Password == "" {
		return &ValidationError{Field: "Password", Message: "password cannot be empty"}
	}

	// Stricter password validation for production
	if env == Production {
		if err := validatePassword("Password", c.Password); err != nil {
			return err
		}
	}

	if c.DBName == "" {
		return &ValidationError{Field: "DBName", Message: "database name cannot be empty"}
	}

	if !dbNamePattern.MatchString(c.DBName) {
		return &ValidationError{Field: "DBName", Message: "database name must start with a letter and contain only letters, numbers, and underscores"}
	}

	return validateSSLMode("SSLMode", c.SSLMode, env)
}

// ConnectionString returns a postgres:// URL understood by both lib/pq and
// pgx. Credentials are escaped, so they may contain spaces and quotes.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// validateHost rejects empty hosts, and localhost in production
func validateHost(field, host string, env Environment) error {
	if host == "" {
		return &ValidationError{Field: field, Message: "host cannot be empty"}
	}
	if env == Production && strings.ToLower(host) == "localhost" {
		return &ValidationError{Field: field, Message: "localhost is not allowed in production"}
	}
	return nil
}

// validateSSLMode requires a known mode, and SSL in production
func validateSSLMode(field, mode string, env Environment) error {
	if !validSSLModes[mode] {
		return &ValidationError{Field: field, Message: "invalid SSL mode"}
	}
	if env == Production && mode == "disable" {
		return &ValidationError{Field: field, Message: "SSL cannot be disabled in production"}
	}
	return nil
}

// validatePassword applies the production password rules
func validatePassword(field, password string) error {
	if len(password) < 12 {
		return &ValidationError{Field: field, Message: "password must be at least 12 characters long in production"}
	}
	rules := []struct {
		pattern *regexp.Regexp
		message string
	}{
		{regexp.MustCompile(`[A-Z]`), "password must contain at least one uppercase letter in production"},
		{regexp.MustCompile(`[a-z]`), "password must contain at least one lowercase letter in production"},
		{regexp.MustCompile(`[0-9]`), "password must contain at least one number in production"},
		{regexp.MustCompile(`[^A-Za-z0-9]`), "password must contain at least one special character in production"},
	}
	for _, rule := range rules {
		if !rule.pattern.MatchString(password) {
			return &ValidationError{Field: field, Message: rule.message}
		}
	}
	return nil
}

// validateSecretSchema validates the structure of secrets stored in AWS Secrets Manager
func validateSecretSchema(secrets map[string]string, env Environment) error {
	// sqlite3 only needs a path
	if secrets["DB_DRIVER"] == DriverSQLite {
		if _, ok := secrets["DB_PATH"]; !ok {
			return &ValidationError{Field: "DB_PATH", Message: "required secret key not found"}
		}
		return nil
	}

	requiredKeys := []string{
		"DB_HOST",
		"DB_PORT",
		"DB_USER",
		"DB_PASSWORD",
		"DB_NAME",
		"DB_SSLMODE",
	}

	// Check for required keys
	for _, key := range requiredKeys {
		if _, ok := secrets[key]; !ok {
			return &ValidationError{
				Field:   key,
				Message: "required secret key not found",
			}
		}
	}

	// Validate port is a number
	if _, err := strconv.Atoi(secrets["DB_PORT"]); err != nil {
		return &ValidationError{
			Field:   "DB_PORT",
			Message: "port must be a valid number",
		}
	}

	if err := validateHost("DB_HOST", secrets["DB_HOST"], env); err != nil {
		return err
	}
	if err := validateSSLMode("DB_SSLMODE", secrets["DB_SSLMODE"], env); err != nil {
		return err
	}

	if env == Production {
		return validatePassword("DB_PASSWORD", secrets["DB_PASSWORD"])
	}
	return nil
}

// GetDatabaseConfig retrieves database configuration using the provided config provider
func GetDatabaseConfig(ctx context.Context, provider Provider) (*DatabaseConfig, error) {
	driver, err := provider.GetString(ctx, "DB_DRIVER")
	if err != nil {
		driver = DriverPostgres // Default to postgres if not set
	}

	if driver == DriverSQLite {
		path, err := provider.GetString(ctx, "DB_PATH")
		if err != nil {
			path = "" // The repository picks a default location
		}
		cfg := &DatabaseConfig{Driver: driver, Path: path}
		if err := cfg.Validate(provider.GetEnvironment()); err != nil {
			return nil, fmt.Errorf("invalid database configuration: %w", err)
		}
		return cfg, nil
	}

	host, err := provider.GetString(ctx, "DB_HOST")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_HOST: %w", err)
	}

	port, err := provider.GetInt(ctx, "DB_PORT")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_PORT: %w", err)
	}

	user, err := provider.GetString(ctx, "DB_USER")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_USER: %w", err)
	}

	password, err := provider.GetSecret(ctx, "DB_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_PASSWORD: %w", err)
	}

	dbname, err := provider.GetString(ctx, "DB_NAME")
	if err != nil {
		return nil, fmt.Errorf("failed to get DB_NAME: %w", err)
	}

	sslmode, err := provider.GetString(ctx, "DB_SSLMODE")
	if err != nil {
		sslmode = "disable" // Default to disable if not set
	}

	cfg := &DatabaseConfig{
		Driver:   driver,
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		DBName:   dbname,
		SSLMode:  sslmode,
	}

	// Validate configuration
	if err := cfg.Validate(provider.GetEnvironment()); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	return cfg, nil
}

// PositionConfig holds the settings of the position updater
type PositionConfig struct {
	// TablePrefix is prepended to every table name, e.g. "ps_"
	TablePrefix string
	// ErrorDomain is the translation domain of per-row errors
	ErrorDomain string
	// ReportConnectivityErrors makes connection failures visible to callers
	// instead of only being logged
	ReportConnectivityErrors bool
	// DefinitionsPath points to a YAML file of grid definitions
	DefinitionsPath string
}

// GetPositionConfig retrieves the updater settings. Every key is optional.
func GetPositionConfig(ctx context.Context, provider Provider) (*PositionConfig, error) {
	cfg := &PositionConfig{}

	if prefix, err := provider.GetString(ctx, "DB_PREFIX"); err == nil {
		if !prefixPattern.MatchString(prefix) {
			return nil, &ValidationError{Field: "DB_PREFIX", Message: "prefix may only contain letters, numbers, and underscores"}
		}
		cfg.TablePrefix = prefix
	}

	if domain, err := provider.GetString(ctx, "POSITION_ERROR_DOMAIN"); err == nil {
		cfg.ErrorDomain = domain
	}

	if value, err := provider.GetString(ctx, "POSITION_REPORT_CONNECTIVITY_ERRORS"); err == nil {
		report, err := strconv.ParseBool(value)
		if err != nil {
			return nil, &ValidationError{Field: "POSITION_REPORT_CONNECTIVITY_ERRORS", Message: "must be a boolean"}
		}
		cfg.ReportConnectivityErrors = report
	}

	if path, err := provider.GetString(ctx, "POSITION_DEFINITIONS_PATH"); err == nil {
		cfg.DefinitionsPath = path
	}

	return cfg, nil
}
