package gateway_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/gateway"
)

func TestNewConfigPriority(t *testing.T) {
	host, err := gateway.NewHostnamePattern("acme-123.sites.blink.new", "")
	gt.NoError(t, err)

	testCases := []struct {
		name    string
		sources []gateway.Source
		expect  string
	}{
		{
			name:    "override wins",
			sources: []gateway.Source{gateway.Override("explicit"), host, gateway.Fallback(gateway.DefaultProjectID)},
			expect:  "explicit",
		},
		{
			name:    "hostname when no override",
			sources: []gateway.Source{gateway.Override(""), host, gateway.Fallback(gateway.DefaultProjectID)},
			expect:  "acme-123",
		},
		{
			name: "fallback when hostname does not match",
			sources: []gateway.Source{
				gateway.Override(""),
				gateway.HostnamePattern{Hostname: "acme.vercel.app", Pattern: host.Pattern},
				gateway.Fallback(gateway.DefaultProjectID),
			},
			expect: gateway.DefaultProjectID,
		},
		{
			name:    "nil sources are skipped",
			sources: []gateway.Source{nil, gateway.Fallback("fb")},
			expect:  "fb",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := gateway.NewConfig("pk_test", tc.sources...)
			gt.NoError(t, err)
			gt.Equal(t, cfg.ProjectID, tc.expect)
			gt.Equal(t, cfg.PublishableKey, "pk_test")
		})
	}
}

func TestNewConfigUnresolved(t *testing.T) {
	_, err := gateway.NewConfig("", gateway.Override(""))
	gt.Error(t, err)
}

func TestNewHostnamePattern(t *testing.T) {
	_, err := gateway.NewHostnamePattern("x", "([")
	gt.Error(t, err)

	_, err = gateway.NewHostnamePattern("x", `^no-group$`)
	gt.Error(t, err)

	h, err := gateway.NewHostnamePattern("", "")
	gt.NoError(t, err)
	gt.Equal(t, h.ProjectID(), "")

	// nested subdomains do not match the single-label group
	h, err = gateway.NewHostnamePattern("a.b.sites.blink.new", "")
	gt.NoError(t, err)
	gt.Equal(t, h.ProjectID(), "")
}
