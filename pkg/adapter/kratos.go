package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	kratos "github.com/ory/kratos-client-go"
)

// SessionCookie is the cookie name of the identity provider session
const SessionCookie = "ory_kratos_session"

// Kratos talks to the Ory Kratos frontend API. It serves as the external identity provider.
type Kratos struct {
	client    *kratos.APIClient
	publicURL string
}

func NewKratos(publicURL string, timeout time.Duration) *Kratos {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: publicURL},
	}
	configuration.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &Kratos{
		client:    kratos.NewAPIClient(configuration),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Session resolves the user of a session cookie. A missing or rejected session yields a nil
// user without error.
func (k *Kratos) Session(ctx context.Context, cookie string) (*model.User, error) {
	if cookie == "" {
		return nil, nil
	}

	session, resp, err := k.client.FrontendAPI.ToSession(ctx).Cookie(cookie).Execute()
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, nil
		}
		if resp != nil {
			return nil, goerr.Wrap(err, "kratos returned unexpected status", goerr.V("status", resp.StatusCode))
		}
		return nil, goerr.Wrap(err, "failed to call kratos")
	}

	if session.Active != nil && !*session.Active {
		return nil, nil
	}
	if session.Identity == nil {
		return nil, goerr.New("missing identity in kratos session", goerr.V("session_id", session.Id))
	}

	email, name := identityTraits(session.Identity.Traits)
	if name == "" {
		name = email
	}

	return &model.User{
		ID:          model.UserID(session.Identity.Id),
		DisplayName: name,
		Email:       email,
	}, nil
}

// LoginURL returns the browser login flow URL that returns to returnTo after sign-in
func (k *Kratos) LoginURL(returnTo string) string {
	return k.publicURL + "/self-service/login/browser?return_to=" + url.QueryEscape(returnTo)
}

// Logout ends the session at Kratos. It creates a logout flow for the cookie and submits its
// token so the session is revoked server side. When the submission fails the flow URL is
// returned with the error so the browser can still complete the sign-out.
func (k *Kratos) Logout(ctx context.Context, cookie string) (string, error) {
	if cookie == "" {
		return "", nil
	}

	flow, resp, err := k.client.FrontendAPI.CreateBrowserLogoutFlow(ctx).Cookie(cookie).Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to create logout flow")
	}

	resp, err = k.client.FrontendAPI.UpdateLogoutFlow(ctx).Token(flow.LogoutToken).Cookie(cookie).Execute()
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return flow.LogoutUrl, goerr.Wrap(err, "failed to revoke session",
			goerr.V("logout_url", flow.LogoutUrl), goerr.V("status", status))
	}

	return "", nil
}

func identityTraits(traits any) (email, name string) {
	m, ok := traits.(map[string]any)
	if !ok {
		return "", ""
	}

	if v, ok := m["email"].(string); ok {
		email = v
	}

	switch v := m["name"].(type) {
	case string:
		name = v
	case map[string]any:
		first, _ := v["first"].(string)
		last, _ := v["last"].(string)
		name = strings.TrimSpace(first + " " + last)
	}
	if name == "" {
		if v, ok := m["display_name"].(string); ok {
			name = v
		}
	}

	return email, name
}
