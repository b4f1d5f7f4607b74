package policy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/policy"
)

const denyPolicy = `package pitch

deny contains msg if {
	contains(lower(input.main_theme), "casino")
	msg := "gambling themes are not supported"
}
`

func TestNilPolicyAllows(t *testing.T) {
	var p *policy.Policy
	d, err := p.Evaluate(context.Background(), model.PitchRequest{StartupName: "a", MainTheme: "b"}, "")
	gt.NoError(t, err)
	gt.True(t, d.Allow)
}

func TestLoadWithoutFiles(t *testing.T) {
	ctx := context.Background()

	p, err := policy.Load(ctx, "")
	gt.NoError(t, err)
	gt.V(t, p).Nil()

	p, err = policy.Load(ctx, t.TempDir())
	gt.NoError(t, err)
	gt.V(t, p).Nil()
}

func TestDenyRule(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "pitch.rego"), []byte(denyPolicy), 0644))

	p, err := policy.Load(ctx, dir)
	gt.NoError(t, err)
	gt.V(t, p).NotNil()

	d, err := p.Evaluate(ctx, model.PitchRequest{StartupName: "Lucky", MainTheme: "Online Casino for everyone"}, "u1")
	gt.NoError(t, err)
	gt.False(t, d.Allow)
	gt.Equal(t, d.Reason, "gambling themes are not supported")

	d, err = p.Evaluate(ctx, model.PitchRequest{StartupName: "Acme AI", MainTheme: "Sustainable urban energy"}, "u1")
	gt.NoError(t, err)
	gt.True(t, d.Allow)
}

func TestAllowRule(t *testing.T) {
	ctx := context.Background()
	p, err := policy.New(ctx, map[string]string{
		"signed_in.rego": `package pitch

default allow := false

allow if input.user_id != ""
`,
	})
	gt.NoError(t, err)

	d, err := p.Evaluate(ctx, model.PitchRequest{StartupName: "a", MainTheme: "b"}, "")
	gt.NoError(t, err)
	gt.False(t, d.Allow)
	gt.Equal(t, d.Reason, "rejected by policy")

	d, err = p.Evaluate(ctx, model.PitchRequest{StartupName: "a", MainTheme: "b"}, "u1")
	gt.NoError(t, err)
	gt.True(t, d.Allow)
}

func TestInvalidPolicy(t *testing.T) {
	_, err := policy.New(context.Background(), map[string]string{"bad.rego": "package pitch\n\nallow if {"})
	gt.Error(t, err)
}
