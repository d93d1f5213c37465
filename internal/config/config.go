// Package config loads and validates the indexer YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Config is the full indexer configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	RPC     RPC     `yaml:"rpc"`
	Indexer Indexer `yaml:"indexer"`
	Jobs    []Job   `yaml:"jobs"`
}

type Server struct {
	BindHost           string    `yaml:"bind_host"`
	BindPort           uint16    `yaml:"bind_port"`
	TLS                ServerTLS `yaml:"tls"`
	Auth               Auth      `yaml:"auth"`
	CORSAllowedOrigins []string  `yaml:"cors_allowed_origins"`
}

type ServerTLS struct {
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

type Auth struct {
	Basic BasicAuth `yaml:"basic"`
}

// BasicAuth names the env variable holding the password; Password is filled on load.
type BasicAuth struct {
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
	Password    string `yaml:"-"`
}

type RPC struct {
	NodeID   string      `yaml:"node_id"`
	URL      string      `yaml:"url"`
	Auth     Auth        `yaml:"auth"`
	MTLS     *MTLS       `yaml:"mtls"`
	Timeouts RPCTimeouts `yaml:"timeouts"`
	// MaxRPS caps requests per second to the node; zero disables the limit.
	MaxRPS int `yaml:"max_rps"`
}

// MTLS is active when the section is present unless enabled is explicitly false.
type MTLS struct {
	Enabled        *bool  `yaml:"enabled"`
	CAPath         string `yaml:"ca_path"`
	ClientCertPath string `yaml:"client_cert_path"`
	ClientKeyPath  string `yaml:"client_key_path"`
}

func (m *MTLS) active() bool {
	return m != nil && (m.Enabled == nil || *m.Enabled)
}

type RPCTimeouts struct {
	ConnectMS int64 `yaml:"connect_ms"`
	RequestMS int64 `yaml:"request_ms"`
}

// Connect returns the dial and TLS handshake bound.
func (t RPCTimeouts) Connect() time.Duration {
	if t.ConnectMS == 0 {
		return defaultConnectTimeout
	}
	return time.Duration(t.ConnectMS) * time.Millisecond
}

// Request returns the full round trip bound.
func (t RPCTimeouts) Request() time.Duration {
	if t.RequestMS == 0 {
		return defaultRequestTimeout
	}
	return time.Duration(t.RequestMS) * time.Millisecond
}

type Indexer struct {
	Chain       string      `yaml:"chain"`
	Network     string      `yaml:"network"`
	ReorgDepth  int64       `yaml:"reorg_depth"`
	Poll        Poll        `yaml:"poll"`
	Concurrency Concurrency `yaml:"concurrency"`
	Batching    Batching    `yaml:"batching"`
}

// Poll intervals are carried for an executor and only validated here.
type Poll struct {
	TipIntervalMS     int64 `yaml:"tip_interval_ms"`
	MempoolIntervalMS int64 `yaml:"mempool_interval_ms"`
}

type Concurrency struct {
	MaxJobs             int `yaml:"max_jobs"`
	RPCParallelism      int `yaml:"rpc_parallelism"`
	DBWriterParallelism int `yaml:"db_writer_parallelism"`
}

type Batching struct {
	BlocksPerBatch int `yaml:"blocks_per_batch"`
	TxsPerBatch    int `yaml:"txs_per_batch"`
}

// Job is one configured indexing job.
type Job struct {
	JobID     string   `yaml:"job_id" json:"job_id"`
	Mode      string   `yaml:"mode" json:"mode"`
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Addresses []string `yaml:"addresses" json:"addresses"`
}

// Load reads path, resolves secrets from the environment and validates the result.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(content, os.LookupEnv)
}

// LoadIndexing is Load for binaries that only talk to the node and the database.
// The server section is decoded but neither its secret nor its TLS files are checked.
func LoadIndexing(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return ParseIndexing(content, os.LookupEnv)
}

// Parse decodes YAML content. lookupEnv resolves password_env references.
func Parse(content []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	return parse(content, lookupEnv, true)
}

// ParseIndexing is Parse without the server section checks.
func ParseIndexing(content []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	return parse(content, lookupEnv, false)
}

func parse(content []byte, lookupEnv func(string) (string, bool), withServer bool) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}

	if withServer {
		if err := resolveSecret(&cfg.Server.Auth.Basic, "server.auth.basic", lookupEnv); err != nil {
			return nil, err
		}
	}
	if err := resolveSecret(&cfg.RPC.Auth.Basic, "rpc.auth.basic", lookupEnv); err != nil {
		return nil, err
	}

	validate := cfg.Validate
	if !withServer {
		validate = cfg.ValidateIndexing
	}
	if err := validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func resolveSecret(auth *BasicAuth, field string, lookupEnv func(string) (string, bool)) error {
	if auth.PasswordEnv == "" {
		return validationErrorf("%s.password_env MUST be non-empty", field)
	}
	password, ok := lookupEnv(auth.PasswordEnv)
	if !ok {
		return validationErrorf("env variable '%s' MUST be set", auth.PasswordEnv)
	}
	auth.Password = password
	return nil
}

func (c *Config) applyDefaults() {
	if c.Indexer.Concurrency.RPCParallelism == 0 {
		c.Indexer.Concurrency.RPCParallelism = 1
	}
	if c.Indexer.Concurrency.DBWriterParallelism == 0 {
		c.Indexer.Concurrency.DBWriterParallelism = 1
	}
	for i := range c.Jobs {
		if c.Jobs[i].Addresses == nil {
			c.Jobs[i].Addresses = []string{}
		}
	}
}

// ValidationError reports a configuration value that violates a rule.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Msg
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a configuration rule violation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
