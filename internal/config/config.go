// Package config provides the YAML configuration model, loader, validator,
// and file watcher for the rewrite gateway. Configuration documents follow
// the apiVersion/kind/metadata/spec layout; durations are human-readable
// strings and values support ${VAR} environment substitution at load time.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// APIVersionPrefix is the required prefix for the apiVersion field.
const APIVersionPrefix = "prettygw.openshelf.io/"

// KindGateway is the only supported document kind.
const KindGateway = "Gateway"

// Upstream modes.
const (
	// UpstreamModeProxy forwards rewritten requests to the configured
	// catalog application.
	UpstreamModeProxy = "proxy"

	// UpstreamModeEcho serves the builtin diagnostic responder instead of
	// proxying, so rewrite rules can be verified without a running catalog.
	UpstreamModeEcho = "echo"
)

// Query string handling modes for rewritten requests.
const (
	// QueryModeMerge merges resolved parameters into the incoming query
	// string; resolved parameters win on conflict.
	QueryModeMerge = "merge"

	// QueryModeReplace discards the incoming query string entirely.
	QueryModeReplace = "replace"
)

// Cache backend types.
const (
	// CacheTypeMemory uses the in-process LRU cache.
	CacheTypeMemory = "memory"

	// CacheTypeRedis uses Redis for caching.
	CacheTypeRedis = "redis"
)

// Defaults applied by Default and by the loader for omitted fields.
const (
	DefaultListenerPort    = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultUpstreamScheme  = "http"
	DefaultFrontController = "/index.php"
	DefaultDialTimeout     = 5 * time.Second
	DefaultResponseTimeout = 30 * time.Second

	DefaultRetryMaxAttempts    = 2
	DefaultRetryInitialBackoff = 50 * time.Millisecond
	DefaultRetryMaxBackoff     = 2 * time.Second

	DefaultCacheTTL        = 60 * time.Second
	DefaultCacheMaxEntries = 4096

	DefaultRedisPoolSize     = 10
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisKeyPrefix    = "prettygw:"

	DefaultRateLimitClientTTL = 5 * time.Minute

	DefaultBreakerThreshold   = 0.5
	DefaultBreakerMinRequests = 10
	DefaultBreakerTimeout     = 30 * time.Second

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
	DefaultAdminPort   = 8081

	DefaultTracingSamplingRate = 1.0
	DefaultServiceName         = "prettygw"
)

// Config is the root configuration document.
type Config struct {
	// APIVersion identifies the configuration schema, e.g.
	// "prettygw.openshelf.io/v1alpha1".
	APIVersion string `yaml:"apiVersion" json:"apiVersion"`

	// Kind is the document kind; must be "Gateway".
	Kind string `yaml:"kind" json:"kind"`

	// Metadata holds the gateway name and optional labels.
	Metadata Metadata `yaml:"metadata" json:"metadata"`

	// Spec is the gateway specification.
	Spec Spec `yaml:"spec" json:"spec"`
}

// Metadata holds identifying information for a configuration document.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Spec is the gateway specification: one listener, one upstream, the
// rewrite table, and optional supporting subsystems.
type Spec struct {
	// Listener configures the HTTP listener that accepts catalog traffic.
	Listener ListenerConfig `yaml:"listener" json:"listener"`

	// Upstream configures the catalog application behind the gateway.
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream"`

	// Rewrite configures the rule table applied to incoming paths.
	Rewrite RewriteConfig `yaml:"rewrite" json:"rewrite"`

	// Cache configures the optional response cache.
	Cache *CacheConfig `yaml:"cache,omitempty" json:"cache,omitempty"`

	// RateLimit configures optional request rate limiting.
	RateLimit *RateLimitConfig `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`

	// CircuitBreaker configures the optional upstream circuit breaker.
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`

	// Observability configures logging, metrics, and tracing.
	Observability *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`

	// Admin configures the read-only admin API.
	Admin *AdminConfig `yaml:"admin,omitempty" json:"admin,omitempty"`
}

// ListenerConfig configures the HTTP listener.
type ListenerConfig struct {
	// Name identifies the listener in logs and metrics.
	Name string `yaml:"name" json:"name"`

	// Bind is the address to bind to. Empty binds all interfaces.
	Bind string `yaml:"bind,omitempty" json:"bind,omitempty"`

	// Port is the TCP port to listen on.
	Port int `yaml:"port" json:"port"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// kept-alive connection.
	IdleTimeout Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`

	// TrustedProxies lists IPs or CIDRs whose X-Forwarded-For headers are
	// trusted for client IP extraction. Typically the campus reverse
	// proxy in front of the gateway. Empty means only the direct peer
	// address is used.
	TrustedProxies []string `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`
}

// Address returns the listen address in host:port form.
func (l *ListenerConfig) Address() string {
	if l.Bind == "" {
		return fmt.Sprintf(":%d", l.Port)
	}
	return net.JoinHostPort(l.Bind, strconv.Itoa(l.Port))
}

// UpstreamConfig configures the catalog application behind the gateway.
type UpstreamConfig struct {
	// Scheme is the upstream URL scheme, "http" or "https".
	Scheme string `yaml:"scheme,omitempty" json:"scheme,omitempty"`

	// Host is the upstream hostname or IP address.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`

	// Port is the upstream TCP port.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	// FrontController is the script path that receives resolved query
	// strings, typically "/index.php".
	FrontController string `yaml:"frontController,omitempty" json:"frontController,omitempty"`

	// PassHostHeader forwards the client's Host header to the upstream
	// instead of the upstream's own host.
	PassHostHeader bool `yaml:"passHostHeader,omitempty" json:"passHostHeader,omitempty"`

	// DialTimeout bounds connection establishment to the upstream.
	DialTimeout Duration `yaml:"dialTimeout,omitempty" json:"dialTimeout,omitempty"`

	// ResponseTimeout bounds the complete upstream round trip. Zero means
	// no limit.
	ResponseTimeout Duration `yaml:"responseTimeout,omitempty" json:"responseTimeout,omitempty"`

	// Mode selects "proxy" (forward to the catalog) or "echo" (serve the
	// builtin diagnostic responder).
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`

	// Retry enables transparent replay of idempotent requests when the
	// upstream connection fails before a response arrives.
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// RetryConfig configures upstream request retries. Only bodyless
// idempotent methods are replayed, and only on transport errors; a
// response from the upstream, whatever its status, is never retried.
type RetryConfig struct {
	// Enabled turns retries on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// MaxAttempts is the number of retries after the initial request.
	MaxAttempts int `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty"`

	// InitialBackoff is the backoff before the first retry.
	InitialBackoff Duration `yaml:"initialBackoff,omitempty" json:"initialBackoff,omitempty"`

	// MaxBackoff caps the backoff between attempts.
	MaxBackoff Duration `yaml:"maxBackoff,omitempty" json:"maxBackoff,omitempty"`
}

// Address returns the upstream address in host:port form.
func (u *UpstreamConfig) Address() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// URL returns the upstream base URL, e.g. "http://opac.internal:8080".
func (u *UpstreamConfig) URL() string {
	return fmt.Sprintf("%s://%s", u.Scheme, u.Address())
}

// IsEcho returns true when the upstream is the builtin echo responder.
func (u *UpstreamConfig) IsEcho() bool {
	return u.Mode == UpstreamModeEcho
}

// RewriteConfig configures the rewrite rule table.
type RewriteConfig struct {
	// BuiltinRules enables the builtin catalog rule table. Defaults to
	// true when omitted.
	BuiltinRules *bool `yaml:"builtinRules,omitempty" json:"builtinRules,omitempty"`

	// Rules is the ordered list of custom rules, evaluated before the
	// builtin table.
	Rules []RewriteRule `yaml:"rules,omitempty" json:"rules,omitempty"`

	// Bypass lists paths that skip rewriting entirely.
	Bypass *BypassConfig `yaml:"bypass,omitempty" json:"bypass,omitempty"`

	// QueryMode controls what happens to an incoming query string on a
	// rewrite: "merge" (default) or "replace".
	QueryMode string `yaml:"queryMode,omitempty" json:"queryMode,omitempty"`
}

// BuiltinRulesEnabled reports whether the builtin rule table is active.
func (r *RewriteConfig) BuiltinRulesEnabled() bool {
	return r.BuiltinRules == nil || *r.BuiltinRules
}

// RewriteRule is one custom rewrite rule: a full-path pattern and the
// ordered query parameters it resolves to.
type RewriteRule struct {
	// Name identifies the rule in logs, metrics, and the admin API.
	Name string `yaml:"name" json:"name"`

	// Match is the path pattern and optional request condition.
	Match RewriteMatch `yaml:"match" json:"match"`

	// Params is the ordered parameter template. Values may reference
	// pattern captures as {name}.
	Params []RewriteParam `yaml:"params" json:"params"`
}

// RewriteMatch is the pattern of a custom rule. Exactly one of Exact,
// Template, or Regex must be set.
type RewriteMatch struct {
	// Exact matches the full path literally.
	Exact string `yaml:"exact,omitempty" json:"exact,omitempty"`

	// Template matches segment templates with {name} captures, one
	// segment each, e.g. "/search/{type}".
	Template string `yaml:"template,omitempty" json:"template,omitempty"`

	// Regex matches the full path against an RE2 expression with named
	// groups. Anchors are added when absent.
	Regex string `yaml:"regex,omitempty" json:"regex,omitempty"`

	// When is an optional CEL condition over path, host, method, and
	// header. The rule is skipped when it evaluates false or errors.
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// PatternType returns which pattern form is configured.
func (m *RewriteMatch) PatternType() string {
	switch {
	case m.Exact != "":
		return "exact"
	case m.Template != "":
		return "template"
	case m.Regex != "":
		return "regex"
	default:
		return ""
	}
}

// patternCount returns how many pattern forms are set.
func (m *RewriteMatch) patternCount() int {
	count := 0
	if m.Exact != "" {
		count++
	}
	if m.Template != "" {
		count++
	}
	if m.Regex != "" {
		count++
	}
	return count
}

// RewriteParam is one resolved query parameter. Order in the rule is
// preserved through resolution.
type RewriteParam struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// BypassConfig lists request paths that skip the rewrite table.
type BypassConfig struct {
	// Prefixes are path prefixes forwarded unrewritten, e.g. "/assets/".
	Prefixes []string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`

	// Extensions are file extensions forwarded unrewritten, e.g. ".css".
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// IsEmpty returns true if no bypass entries are configured.
func (b *BypassConfig) IsEmpty() bool {
	if b == nil {
		return true
	}
	return len(b.Prefixes) == 0 && len(b.Extensions) == 0
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Enabled turns response caching on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Type is the cache backend: "memory" or "redis".
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// TTL is the time-to-live for cached responses.
	TTL Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// MaxEntries caps the memory cache size.
	MaxEntries int `yaml:"maxEntries,omitempty" json:"maxEntries,omitempty"`

	// MaxBodyBytes caps the size of a cacheable response body. Zero uses
	// the middleware default.
	MaxBodyBytes int `yaml:"maxBodyBytes,omitempty" json:"maxBodyBytes,omitempty"`

	// Redis holds Redis-specific settings; required when Type is "redis".
	Redis *RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	// Address is the Redis server address in host:port form.
	Address string `yaml:"address" json:"address"`

	// Password authenticates to Redis; supports ${VAR} substitution.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the Redis database number.
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// PoolSize is the maximum number of pooled connections.
	PoolSize int `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`

	// KeyPrefix is prepended to every cache key.
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`

	// HashKeys stores SHA-256 hashes of cache keys instead of raw keys.
	HashKeys bool `yaml:"hashKeys,omitempty" json:"hashKeys,omitempty"`

	// TTLJitter is the maximum fraction of jitter added to TTLs (0 to 1).
	TTLJitter float64 `yaml:"ttlJitter,omitempty" json:"ttlJitter,omitempty"`

	// DialTimeout bounds connection establishment.
	DialTimeout Duration `yaml:"dialTimeout,omitempty" json:"dialTimeout,omitempty"`

	// ReadTimeout bounds read operations.
	ReadTimeout Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`

	// WriteTimeout bounds write operations.
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty" json:"requestsPerSecond,omitempty"`

	// Burst is the maximum burst size.
	Burst int `yaml:"burst,omitempty" json:"burst,omitempty"`

	// PerClient applies the limit per client IP instead of globally.
	PerClient bool `yaml:"perClient,omitempty" json:"perClient,omitempty"`

	// ClientTTL is how long an idle per-client limiter is retained.
	ClientTTL Duration `yaml:"clientTTL,omitempty" json:"clientTTL,omitempty"`
}

// CircuitBreakerConfig configures the upstream circuit breaker.
type CircuitBreakerConfig struct {
	// Enabled turns the circuit breaker on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Threshold is the failure ratio (0, 1] that opens the circuit.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// MinRequests is the minimum sample size before the threshold applies.
	MinRequests uint32 `yaml:"minRequests,omitempty" json:"minRequests,omitempty"`

	// Timeout is how long the circuit stays open before probing.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// HalfOpenRequests is the number of probe requests allowed half-open.
	HalfOpenRequests uint32 `yaml:"halfOpenRequests,omitempty" json:"halfOpenRequests,omitempty"`
}

// ObservabilityConfig configures logging, metrics, and tracing.
type ObservabilityConfig struct {
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	// Format is "json" or "console".
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// Output is "stdout", "stderr", or a file path.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// SamplingRate samples traces at the given ratio (0 to 1).
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`

	// ServiceName overrides the reported service name.
	ServiceName string `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// AdminConfig configures the read-only admin API.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	Bind    string `yaml:"bind,omitempty" json:"bind,omitempty"`
}

// Address returns the admin listen address in host:port form.
func (a *AdminConfig) Address() string {
	if a.Bind == "" {
		return fmt.Sprintf(":%d", a.Port)
	}
	return net.JoinHostPort(a.Bind, strconv.Itoa(a.Port))
}

// Default returns a configuration with all defaults applied: an echo
// upstream on the default listener port, builtin rules enabled, and every
// optional subsystem off.
func Default() *Config {
	cfg := &Config{
		APIVersion: APIVersionPrefix + "v1alpha1",
		Kind:       KindGateway,
		Metadata: Metadata{
			Name: DefaultServiceName,
		},
		Spec: Spec{
			Listener: ListenerConfig{
				Name: "http",
				Port: DefaultListenerPort,
			},
			Upstream: UpstreamConfig{
				Mode: UpstreamModeEcho,
			},
			Rewrite: RewriteConfig{},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills omitted fields with defaults. The loader calls this
// after unmarshaling so downstream code never sees zero timeouts or empty
// mode strings.
func (c *Config) ApplyDefaults() {
	l := &c.Spec.Listener
	if l.Name == "" {
		l.Name = "http"
	}
	if l.Port == 0 {
		l.Port = DefaultListenerPort
	}
	if l.ReadTimeout == 0 {
		l.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if l.WriteTimeout == 0 {
		l.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if l.IdleTimeout == 0 {
		l.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if l.ShutdownTimeout == 0 {
		l.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	u := &c.Spec.Upstream
	if u.Mode == "" {
		u.Mode = UpstreamModeProxy
	}
	if u.Scheme == "" {
		u.Scheme = DefaultUpstreamScheme
	}
	if u.FrontController == "" {
		u.FrontController = DefaultFrontController
	}
	if u.DialTimeout == 0 {
		u.DialTimeout = Duration(DefaultDialTimeout)
	}
	if u.ResponseTimeout == 0 {
		u.ResponseTimeout = Duration(DefaultResponseTimeout)
	}
	if u.Retry != nil {
		applyRetryDefaults(u.Retry)
	}

	r := &c.Spec.Rewrite
	if r.QueryMode == "" {
		r.QueryMode = QueryModeMerge
	}

	if c.Spec.Cache != nil {
		applyCacheDefaults(c.Spec.Cache)
	}
	if c.Spec.RateLimit != nil && c.Spec.RateLimit.ClientTTL == 0 {
		c.Spec.RateLimit.ClientTTL = Duration(DefaultRateLimitClientTTL)
	}
	if c.Spec.CircuitBreaker != nil {
		applyBreakerDefaults(c.Spec.CircuitBreaker)
	}
	if c.Spec.Observability != nil {
		applyObservabilityDefaults(c.Spec.Observability)
	}
	if c.Spec.Admin != nil && c.Spec.Admin.Port == 0 {
		c.Spec.Admin.Port = DefaultAdminPort
	}
}

func applyRetryDefaults(rt *RetryConfig) {
	if rt.MaxAttempts == 0 {
		rt.MaxAttempts = DefaultRetryMaxAttempts
	}
	if rt.InitialBackoff == 0 {
		rt.InitialBackoff = Duration(DefaultRetryInitialBackoff)
	}
	if rt.MaxBackoff == 0 {
		rt.MaxBackoff = Duration(DefaultRetryMaxBackoff)
	}
}

func applyCacheDefaults(cc *CacheConfig) {
	if cc.Type == "" {
		cc.Type = CacheTypeMemory
	}
	if cc.TTL == 0 {
		cc.TTL = Duration(DefaultCacheTTL)
	}
	if cc.MaxEntries == 0 {
		cc.MaxEntries = DefaultCacheMaxEntries
	}
	if cc.Redis != nil {
		rc := cc.Redis
		if rc.PoolSize == 0 {
			rc.PoolSize = DefaultRedisPoolSize
		}
		if rc.KeyPrefix == "" {
			rc.KeyPrefix = DefaultRedisKeyPrefix
		}
		if rc.DialTimeout == 0 {
			rc.DialTimeout = Duration(DefaultRedisDialTimeout)
		}
		if rc.ReadTimeout == 0 {
			rc.ReadTimeout = Duration(DefaultRedisReadTimeout)
		}
		if rc.WriteTimeout == 0 {
			rc.WriteTimeout = Duration(DefaultRedisWriteTimeout)
		}
	}
}

func applyBreakerDefaults(cb *CircuitBreakerConfig) {
	if cb.Threshold == 0 {
		cb.Threshold = DefaultBreakerThreshold
	}
	if cb.MinRequests == 0 {
		cb.MinRequests = DefaultBreakerMinRequests
	}
	if cb.Timeout == 0 {
		cb.Timeout = Duration(DefaultBreakerTimeout)
	}
	if cb.HalfOpenRequests == 0 {
		cb.HalfOpenRequests = 1
	}
}

func applyObservabilityDefaults(o *ObservabilityConfig) {
	if o.Metrics != nil {
		if o.Metrics.Port == 0 {
			o.Metrics.Port = DefaultMetricsPort
		}
		if o.Metrics.Path == "" {
			o.Metrics.Path = DefaultMetricsPath
		}
	}
	if o.Tracing != nil {
		if o.Tracing.SamplingRate == 0 {
			o.Tracing.SamplingRate = DefaultTracingSamplingRate
		}
		if o.Tracing.ServiceName == "" {
			o.Tracing.ServiceName = DefaultServiceName
		}
	}
}
