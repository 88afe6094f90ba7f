// Package oauth1 obtains OAuth 1.0a user credentials and signs requests
// with them.
//
//	d := &oauth1.Dance{
//	    RequestTokenURL: "https://api.example.com/oauth/request_token",
//	    AuthorizeURL:    "https://api.example.com/oauth/authorize",
//	    AccessTokenURL:  "https://api.example.com/oauth/access_token",
//	    ClientKey:       key,
//	    ClientSecret:    secret,
//	}
//	if err := d.ObtainCreds(os.Stdin, os.Stdout); err != nil {
//	    return err
//	}
//	signer, err := d.Signer()
//	api, err := beanbag.New(url, beanbag.WithSigner(signer))
package oauth1

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ajtowns/beanbag/transport"
	"github.com/dghubble/oauth1"
)

// Errors returned by Dance.
var (
	ErrMissingCreds     = errors.New("oauth1: client and user credentials required")
	ErrMissingEndpoints = errors.New("oauth1: request token, authorize and access token URLs required")
)

// outOfBand is the callback for clients that cannot receive redirects; the
// user copies the verifier by hand.
const outOfBand = "oob"

// Dance holds the endpoints and credentials of an OAuth 1.0a provider.
// Client credentials are issued by the provider out of band. User
// credentials are obtained with AuthURL and Verify, or ObtainCreds.
type Dance struct {
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string

	ClientKey    string
	ClientSecret string
	UserKey      string
	UserSecret   string
}

// HaveCreds reports whether all four credentials are filled in.
func (d *Dance) HaveCreds() bool {
	return d.ClientKey != "" && d.ClientSecret != "" && d.UserKey != "" && d.UserSecret != ""
}

func (d *Dance) config() *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    d.ClientKey,
		ConsumerSecret: d.ClientSecret,
		CallbackURL:    outOfBand,
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: d.RequestTokenURL,
			AuthorizeURL:    d.AuthorizeURL,
			AccessTokenURL:  d.AccessTokenURL,
		},
	}
}

// AuthURL fetches a request token and returns the URL where the user
// approves it. The request token is held in UserKey and UserSecret until
// Verify replaces it.
func (d *Dance) AuthURL() (string, error) {
	if d.RequestTokenURL == "" || d.AuthorizeURL == "" || d.AccessTokenURL == "" {
		return "", ErrMissingEndpoints
	}
	cfg := d.config()
	token, secret, err := cfg.RequestToken()
	if err != nil {
		return "", fmt.Errorf("oauth1: request token: %w", err)
	}
	d.UserKey, d.UserSecret = token, secret

	u, err := cfg.AuthorizationURL(token)
	if err != nil {
		return "", fmt.Errorf("oauth1: authorization url: %w", err)
	}
	return u.String(), nil
}

// Verify exchanges the request token and the user's verifier for access
// credentials.
func (d *Dance) Verify(verifier string) error {
	token, secret, err := d.config().AccessToken(d.UserKey, d.UserSecret, verifier)
	if err != nil {
		return fmt.Errorf("oauth1: access token: %w", err)
	}
	d.UserKey, d.UserSecret = token, secret
	return nil
}

// ObtainCreds fills in missing credentials by prompting on out and reading
// answers from in, one per line. It does nothing once user credentials are
// present.
func (d *Dance) ObtainCreds(in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(lines.Text()), nil
	}

	var err error
	if d.ClientKey == "" {
		if d.ClientKey, err = ask("Please input client key: "); err != nil {
			return err
		}
	}
	if d.ClientSecret == "" {
		if d.ClientSecret, err = ask("Please input client secret: "); err != nil {
			return err
		}
	}
	if d.UserKey != "" && d.UserSecret != "" {
		return nil
	}

	authURL, err := d.AuthURL()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Please go to url:\n  %s\n", authURL)
	verifier, err := ask("Please input the verifier: ")
	if err != nil {
		return err
	}
	if err := d.Verify(verifier); err != nil {
		return err
	}
	fmt.Fprintf(out, "User key: %s\nUser secret: %s\n", d.UserKey, d.UserSecret)
	return nil
}

// Signer returns a transport.RequestSigner using the current credentials.
func (d *Dance) Signer() (transport.RequestSigner, error) {
	if !d.HaveCreds() {
		return nil, ErrMissingCreds
	}
	return &signer{cfg: d.config(), token: oauth1.NewToken(d.UserKey, d.UserSecret)}, nil
}

type signer struct {
	cfg   *oauth1.Config
	token *oauth1.Token
}

func (s *signer) Wrap(next http.RoundTripper) http.RoundTripper {
	rt := s.cfg.Client(context.Background(), s.token).Transport.(*oauth1.Transport)
	rt.Base = next
	return rt
}
