package gateway

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultHostnamePattern matches hosted deployments; the first group is the project id
	DefaultHostnamePattern = `^([^.]+)\.sites\.blink\.new$`
	// DefaultProjectID is used when neither an override nor a deployment hostname is available
	DefaultProjectID = "ai-pitch-generator-6zwa5mhs"
)

// Source yields a project identifier, or "" when it cannot decide
type Source interface {
	ProjectID() string
}

// Override is an explicit project id, typically from the environment
type Override string

func (o Override) ProjectID() string { return string(o) }

// Fallback is the constant used when every other source is empty
type Fallback string

func (f Fallback) ProjectID() string { return string(f) }

// HostnamePattern extracts a project id from the deployment hostname
type HostnamePattern struct {
	Hostname string
	Pattern  *regexp.Regexp
}

func (h HostnamePattern) ProjectID() string {
	if h.Pattern == nil || h.Hostname == "" {
		return ""
	}
	m := h.Pattern.FindStringSubmatch(h.Hostname)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// NewHostnamePattern compiles pattern, which must have one capturing group
func NewHostnamePattern(hostname, pattern string) (HostnamePattern, error) {
	if pattern == "" {
		pattern = DefaultHostnamePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return HostnamePattern{}, goerr.Wrap(err, "invalid hostname pattern", goerr.V("pattern", pattern))
	}
	if re.NumSubexp() < 1 {
		return HostnamePattern{}, goerr.New("hostname pattern needs a capturing group", goerr.V("pattern", pattern))
	}
	return HostnamePattern{Hostname: hostname, Pattern: re}, nil
}

// Config is the platform configuration, built once at startup and injected into the gateway
type Config struct {
	ProjectID      string
	PublishableKey string
}

// NewConfig resolves the project id from sources in priority order
func NewConfig(publishableKey string, sources ...Source) (*Config, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if id := src.ProjectID(); id != "" {
			return &Config{ProjectID: id, PublishableKey: publishableKey}, nil
		}
	}
	return nil, goerr.New("project id could not be resolved from any source")
}
