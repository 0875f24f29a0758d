package config

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/openshelf/prettygw/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Is reports configuration invalidity to errors.Is.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// celParseEnv checks rule conditions for syntax errors at validation time.
// Checking against the declared request variables happens when the rule
// table is compiled.
var celParseEnv = func() *cel.Env {
	env, err := cel.NewEnv()
	if err != nil {
		panic(err)
	}
	return env
}()

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(cfg)
	v.validateMetadata(&cfg.Metadata)
	v.validateSpec(&cfg.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateRoot validates root-level fields.
func (v *Validator) validateRoot(cfg *Config) {
	if cfg.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(cfg.APIVersion, APIVersionPrefix) {
		v.addError("apiVersion", fmt.Sprintf("apiVersion must start with %q", APIVersionPrefix))
	}

	if cfg.Kind == "" {
		v.addError("kind", "kind is required")
	} else if cfg.Kind != KindGateway {
		v.addError("kind", fmt.Sprintf("kind must be %q", KindGateway))
	}
}

// validateMetadata validates metadata fields.
func (v *Validator) validateMetadata(metadata *Metadata) {
	if metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

// validateSpec validates the gateway spec.
func (v *Validator) validateSpec(spec *Spec) {
	v.validateListener(&spec.Listener)
	v.validateUpstream(&spec.Upstream)
	v.validateRewrite(&spec.Rewrite)

	if spec.Cache != nil {
		v.validateCache(spec.Cache, "spec.cache")
	}

	if spec.RateLimit != nil {
		v.validateRateLimit(spec.RateLimit, "spec.rateLimit")
	}

	if spec.CircuitBreaker != nil {
		v.validateCircuitBreaker(spec.CircuitBreaker, "spec.circuitBreaker")
	}

	if spec.Observability != nil {
		v.validateObservability(spec.Observability, "spec.observability")
	}

	if spec.Admin != nil {
		v.validateAdmin(spec.Admin, "spec.admin")
	}
}

// validateListener validates the HTTP listener configuration.
func (v *Validator) validateListener(l *ListenerConfig) {
	const path = "spec.listener"

	if l.Name == "" {
		v.addError(path+".name", "listener name is required")
	}

	if err := util.ValidatePort(l.Port); err != nil {
		v.addError(path+".port", err.Error())
	}

	if l.Bind != "" {
		if err := util.ValidateListenAddress(l.Bind); err != nil {
			v.addError(path+".bind", err.Error())
		}
	}

	v.validateNonNegative(l.ReadTimeout, path+".readTimeout")
	v.validateNonNegative(l.WriteTimeout, path+".writeTimeout")
	v.validateNonNegative(l.IdleTimeout, path+".idleTimeout")
	v.validateNonNegative(l.ShutdownTimeout, path+".shutdownTimeout")

	for i, proxy := range l.TrustedProxies {
		if err := util.ValidateIPOrCIDR(proxy); err != nil {
			v.addError(fmt.Sprintf("%s.trustedProxies[%d]", path, i), err.Error())
		}
	}
}

// validateUpstream validates the upstream configuration. Host and port are
// required in proxy mode; the echo responder needs neither.
func (v *Validator) validateUpstream(u *UpstreamConfig) {
	const path = "spec.upstream"

	switch u.Mode {
	case "", UpstreamModeProxy:
		if u.Host == "" {
			v.addError(path+".host", "upstream host is required in proxy mode")
		} else if err := util.ValidateHostname(u.Host); err != nil {
			v.addError(path+".host", err.Error())
		}
		if err := util.ValidatePort(u.Port); err != nil {
			v.addError(path+".port", err.Error())
		}
	case UpstreamModeEcho:
		// No upstream address needed.
	default:
		v.addError(path+".mode", fmt.Sprintf("mode must be %q or %q", UpstreamModeProxy, UpstreamModeEcho))
	}

	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		v.addError(path+".scheme", "scheme must be http or https")
	}

	if u.FrontController != "" && !strings.HasPrefix(u.FrontController, "/") {
		v.addError(path+".frontController", "frontController must start with /")
	}

	v.validateNonNegative(u.DialTimeout, path+".dialTimeout")
	v.validateNonNegative(u.ResponseTimeout, path+".responseTimeout")

	if u.Retry != nil {
		v.validateRetry(u.Retry, path+".retry")
	}
}

// validateRetry validates upstream retry configuration.
func (v *Validator) validateRetry(rt *RetryConfig, path string) {
	if rt.MaxAttempts < 0 {
		v.addError(path+".maxAttempts", "maxAttempts cannot be negative")
	}

	v.validateNonNegative(rt.InitialBackoff, path+".initialBackoff")
	v.validateNonNegative(rt.MaxBackoff, path+".maxBackoff")

	if rt.InitialBackoff > 0 && rt.MaxBackoff > 0 && rt.MaxBackoff < rt.InitialBackoff {
		v.addError(path+".maxBackoff", "maxBackoff cannot be smaller than initialBackoff")
	}
}

// validateRewrite validates the rewrite table configuration.
func (v *Validator) validateRewrite(r *RewriteConfig) {
	const path = "spec.rewrite"

	switch r.QueryMode {
	case "", QueryModeMerge, QueryModeReplace:
	default:
		v.addError(path+".queryMode", fmt.Sprintf("queryMode must be %q or %q", QueryModeMerge, QueryModeReplace))
	}

	if r.Bypass != nil {
		v.validateBypass(r.Bypass, path+".bypass")
	}

	names := make(map[string]bool)
	for i, rule := range r.Rules {
		rulePath := fmt.Sprintf("%s.rules[%d]", path, i)
		v.validateRule(&rule, rulePath, names)
	}
}

// validateRule validates a single custom rewrite rule.
func (v *Validator) validateRule(rule *RewriteRule, path string, names map[string]bool) {
	switch {
	case rule.Name == "":
		v.addError(path+".name", "rule name is required")
	case names[rule.Name]:
		v.addError(path+".name", fmt.Sprintf("duplicate rule name: %s", rule.Name))
	default:
		names[rule.Name] = true
	}

	switch rule.Match.patternCount() {
	case 0:
		v.addError(path+".match", "one of exact, template, or regex is required")
	case 1:
	default:
		v.addError(path+".match", "only one of exact, template, or regex can be specified")
	}

	if rule.Match.Exact != "" && !strings.HasPrefix(rule.Match.Exact, "/") {
		v.addError(path+".match.exact", "exact pattern must start with /")
	}

	if rule.Match.Regex != "" {
		if err := util.ValidateRegex(rule.Match.Regex); err != nil {
			v.addError(path+".match.regex", err.Error())
		}
	}

	if rule.Match.When != "" {
		if _, iss := celParseEnv.Parse(rule.Match.When); iss != nil && iss.Err() != nil {
			v.addError(path+".match.when", fmt.Sprintf("invalid condition: %v", iss.Err()))
		}
	}

	if len(rule.Params) == 0 {
		v.addError(path+".params", "at least one parameter is required")
	}

	for j, param := range rule.Params {
		if param.Name == "" {
			v.addError(fmt.Sprintf("%s.params[%d].name", path, j), "parameter name is required")
		}
	}
}

// validateBypass validates bypass prefixes and extensions.
func (v *Validator) validateBypass(b *BypassConfig, path string) {
	for i, prefix := range b.Prefixes {
		if !strings.HasPrefix(prefix, "/") {
			v.addError(fmt.Sprintf("%s.prefixes[%d]", path, i), "bypass prefix must start with /")
		}
	}

	for i, ext := range b.Extensions {
		if !strings.HasPrefix(ext, ".") {
			v.addError(fmt.Sprintf("%s.extensions[%d]", path, i), "bypass extension must start with .")
		}
	}
}

// validateCache validates cache configuration.
func (v *Validator) validateCache(cc *CacheConfig, path string) {
	switch cc.Type {
	case "", CacheTypeMemory, CacheTypeRedis:
	default:
		v.addError(path+".type", fmt.Sprintf("unknown cache type: %s", cc.Type))
	}

	v.validateNonNegative(cc.TTL, path+".ttl")

	if cc.MaxEntries < 0 {
		v.addError(path+".maxEntries", "maxEntries cannot be negative")
	}

	if cc.MaxBodyBytes < 0 {
		v.addError(path+".maxBodyBytes", "maxBodyBytes cannot be negative")
	}

	if cc.Enabled && cc.Type == CacheTypeRedis {
		if cc.Redis == nil || cc.Redis.Address == "" {
			v.addError(path+".redis.address", "redis address is required for the redis cache type")
		}
	}

	if cc.Redis != nil {
		v.validateRedis(cc.Redis, path+".redis")
	}
}

// validateRedis validates Redis connection settings.
func (v *Validator) validateRedis(rc *RedisConfig, path string) {
	if rc.DB < 0 {
		v.addError(path+".db", "db cannot be negative")
	}

	if rc.PoolSize < 0 {
		v.addError(path+".poolSize", "poolSize cannot be negative")
	}

	if err := util.ValidateRatio(rc.TTLJitter); err != nil {
		v.addError(path+".ttlJitter", err.Error())
	}

	v.validateNonNegative(rc.DialTimeout, path+".dialTimeout")
	v.validateNonNegative(rc.ReadTimeout, path+".readTimeout")
	v.validateNonNegative(rc.WriteTimeout, path+".writeTimeout")
}

// validateRateLimit validates rate limit configuration.
func (v *Validator) validateRateLimit(rl *RateLimitConfig, path string) {
	if rl.Enabled {
		if rl.RequestsPerSecond <= 0 {
			v.addError(path+".requestsPerSecond", "requestsPerSecond must be positive when enabled")
		}

		if rl.Burst < 0 {
			v.addError(path+".burst", "burst cannot be negative")
		}
	}

	v.validateNonNegative(rl.ClientTTL, path+".clientTTL")
}

// validateCircuitBreaker validates circuit breaker configuration.
func (v *Validator) validateCircuitBreaker(cb *CircuitBreakerConfig, path string) {
	if !cb.Enabled {
		return
	}

	if cb.Threshold <= 0 || cb.Threshold > 1 {
		v.addError(path+".threshold", "threshold must be a failure ratio between 0 and 1")
	}

	if cb.Timeout.Duration() <= 0 {
		v.addError(path+".timeout", "timeout must be positive when enabled")
	}
}

// validateObservability validates observability configuration.
func (v *Validator) validateObservability(obs *ObservabilityConfig, path string) {
	if obs.Metrics != nil {
		if obs.Metrics.Path != "" && !strings.HasPrefix(obs.Metrics.Path, "/") {
			v.addError(path+".metrics.path", "metrics path must start with /")
		}

		if obs.Metrics.Port != 0 {
			if err := util.ValidatePort(obs.Metrics.Port); err != nil {
				v.addError(path+".metrics.port", err.Error())
			}
		}
	}

	if obs.Tracing != nil {
		if err := util.ValidateRatio(obs.Tracing.SamplingRate); err != nil {
			v.addError(path+".tracing.samplingRate", err.Error())
		}
	}

	if obs.Logging != nil {
		validLevels := map[string]bool{
			"":      true,
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}

		if !validLevels[strings.ToLower(obs.Logging.Level)] {
			v.addError(path+".logging.level", fmt.Sprintf("invalid log level: %s", obs.Logging.Level))
		}

		validFormats := map[string]bool{
			"":        true,
			"json":    true,
			"console": true,
		}

		if !validFormats[strings.ToLower(obs.Logging.Format)] {
			v.addError(path+".logging.format", fmt.Sprintf("invalid log format: %s", obs.Logging.Format))
		}
	}
}

// validateAdmin validates admin API configuration.
func (v *Validator) validateAdmin(a *AdminConfig, path string) {
	if !a.Enabled {
		return
	}

	if a.Port != 0 {
		if err := util.ValidatePort(a.Port); err != nil {
			v.addError(path+".port", err.Error())
		}
	}

	if a.Bind != "" {
		if err := util.ValidateListenAddress(a.Bind); err != nil {
			v.addError(path+".bind", err.Error())
		}
	}
}

// validateNonNegative rejects negative durations.
func (v *Validator) validateNonNegative(d Duration, path string) {
	if d.Duration() < 0 {
		v.addError(path, "duration cannot be negative")
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
