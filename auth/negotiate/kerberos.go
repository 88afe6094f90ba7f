package negotiate

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

// KerberosSource returns a TokenSource that requests HTTP/<host> service
// tickets with cl.
func KerberosSource(cl *client.Client) TokenSource {
	return TokenSourceFunc(func(ctx context.Context, host string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host+"/", nil)
		if err != nil {
			return "", err
		}
		if err := spnego.SetSPNEGOHeader(cl, req, "HTTP/"+host); err != nil {
			return "", fmt.Errorf("spnego: %w", err)
		}
		h := req.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(h, "Negotiate ")
		if !ok {
			return "", fmt.Errorf("spnego: unexpected header %q", h)
		}
		return tok, nil
	})
}

// LoadKerberosClient builds a client from a krb5.conf and a credential
// cache. Empty paths fall back to $KRB5_CONFIG or /etc/krb5.conf and to
// $KRB5CCNAME or /tmp/krb5cc_<uid>.
func LoadKerberosClient(confPath, ccachePath string) (*client.Client, error) {
	if confPath == "" {
		confPath = DefaultConfigPath()
	}
	if ccachePath == "" {
		ccachePath = DefaultCCachePath()
	}

	cfg, err := config.Load(confPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5 config %s: %w", confPath, err)
	}
	ccache, err := credentials.LoadCCache(ccachePath)
	if err != nil {
		return nil, fmt.Errorf("load credential cache %s: %w", ccachePath, err)
	}
	cl, err := client.NewFromCCache(ccache, cfg, client.DisablePAFXFAST(true))
	if err != nil {
		return nil, fmt.Errorf("kerberos client: %w", err)
	}
	return cl, nil
}

// DefaultConfigPath returns the krb5.conf location.
func DefaultConfigPath() string {
	if p := os.Getenv("KRB5_CONFIG"); p != "" {
		return p
	}
	return "/etc/krb5.conf"
}

// DefaultCCachePath returns the credential cache location.
func DefaultCCachePath() string {
	if p := os.Getenv("KRB5CCNAME"); p != "" {
		return strings.TrimPrefix(p, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}
