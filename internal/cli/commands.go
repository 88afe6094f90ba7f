package cli

import (
	"fmt"
	"strings"

	"github.com/ajtowns/beanbag"
	"github.com/ajtowns/beanbag/internal/config"
	"github.com/spf13/cobra"
)

func (c *CLI) verbCommand(name, method string, withBody bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [segment...]",
		Short: fmt.Sprintf("Send a %s request", method),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !withBody && c.data != "" {
				return fmt.Errorf("%s does not take --data", name)
			}
			return c.send(cmd, method, args)
		},
	}
}

func (c *CLI) callCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "call VERB [segment...]",
		Short: "Send a request with any HTTP verb",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send(cmd, strings.ToUpper(args[0]), args[1:])
		},
	}
}

func (c *CLI) send(cmd *cobra.Command, method string, segments []string) error {
	b, err := c.open()
	if err != nil {
		return err
	}
	defer b.Close()

	r, err := c.resource(b, segments)
	if err != nil {
		return err
	}
	body, err := c.body()
	if err != nil {
		return err
	}
	result, err := beanbag.Do(cmd.Context(), r, method, body)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

func (c *CLI) urlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url [segment...]",
		Short: "Print the URL a request would use, without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.BaseURL == "" {
				return errNoBaseURL
			}
			b, err := beanbag.New(c.cfg.BaseURL, beanbag.WithExtension(c.cfg.Ext))
			if err != nil {
				return err
			}
			defer b.Close()

			r, err := c.resource(b, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.String())
			return err
		},
	}
}

func (c *CLI) oauthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "oauth",
		Short: "Obtain OAuth 1.0a credentials interactively",
		Long: `Runs the OAuth 1.0a authorization flow against the provider named by
BEANBAG_OAUTH_REQUEST_TOKEN_URL, BEANBAG_OAUTH_AUTHORIZE_URL and
BEANBAG_OAUTH_ACCESS_TOKEN_URL. With --store the credentials are sealed
with BEANBAG_PASSPHRASE and used by later requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := c.dance()
			if c.cfg.OAuthStore != "" && fileExists(c.cfg.OAuthStore) {
				loaded, err := c.loadDance()
				if err != nil {
					return err
				}
				d = loaded
			}

			if err := d.ObtainCreds(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			if c.cfg.OAuthStore == "" {
				return nil
			}

			s, err := c.store()
			if err != nil {
				return err
			}
			if err := s.Save(d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", c.cfg.OAuthStore)
			return nil
		},
	}
}

func (c *CLI) envCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables beanbag reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Usage(cmd.OutOrStdout(), c.cfg)
		},
	}
}
