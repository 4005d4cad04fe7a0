package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// commands returns the session commands. They are rebuilt for every shell line so
// that flag values never leak between lines.
func (a *app) commands() []*cobra.Command {
	return []*cobra.Command{
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.menusCmd(),
		a.callCmd(),
		a.navCmd(),
	}
}

func (a *app) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <login-id>",
		Short: "Sign in and store the session in the profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if password == "" {
				if a.interactive {
					return errors.New("pass --password inside the shell")
				}
				if password, err = readPassword(a.io); err != nil {
					return err
				}
			}
			id, err := env.engine.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.io.out, "signed in as %s (%s)\n", displayName(id), id.LoginID)
			return err
		},
	}
	cmd.Flags().StringVarP(&password, "password", "w", "", "password (read from stdin when empty)")
	return cmd
}

func readPassword(s stdio) (string, error) {
	if s.in == nil {
		return "", errors.New("password is required")
	}
	_, _ = fmt.Fprint(s.err, "Password: ")
	line, err := bufio.NewReader(s.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func displayName(id session.Identity) string {
	if id.UserName != "" {
		return id.UserName
	}
	return id.LoginID
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := env.engine.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.io.out, "signed out")
			return err
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if !env.engine.IsAuthenticated() {
				_, err := fmt.Fprintln(a.io.out, "not signed in")
				return err
			}

			id := env.engine.Identity()
			w := a.io.out
			fmt.Fprintf(w, "login:  %s\n", id.LoginID)
			fmt.Fprintf(w, "user:   %s (%s)\n", displayName(id), id.UserID)
			if id.OrgName != "" {
				fmt.Fprintf(w, "org:    %s\n", id.OrgName)
			}
			if secs, ok := env.engine.Store().SecondsUntilExpiry(); ok {
				fmt.Fprintf(w, "expiry: %ds\n", secs)
			}
			return nil
		},
	}
}

func (a *app) menusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menus",
		Short: "Print the menu tree of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			printMenus(a.io.out, env.engine.Store().MenuTree(), 0)
			return nil
		},
	}
}

func printMenus(w io.Writer, nodes []*session.MenuNode, depth int) {
	for _, n := range nodes {
		line := strings.Repeat("  ", depth) + n.Name
		if n.Path != "" {
			line += " " + n.Path
		}
		if !n.Active {
			line += " (inactive)"
		}
		fmt.Fprintln(w, line)
		printMenus(w, n.Children, depth+1)
	}
}

func (a *app) callCmd() *cobra.Command {
	var (
		method string
		data   string
	)
	cmd := &cobra.Command{
		Use:   "call <path> [key=value...]",
		Short: "Call an API path with the session credential",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			req := &transport.Request{Method: strings.ToUpper(method), Path: args[0]}
			if len(args) > 1 {
				params := transport.Values{}
				for _, kv := range args[1:] {
					k, v, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Errorf("parameter %q is not key=value", kv)
					}
					params[k] = append(params[k], v)
				}
				req.Params = params
			}
			if data != "" {
				var body any
				if err := json.Unmarshal([]byte(data), &body); err != nil {
					return fmt.Errorf("--data is not JSON: %w", err)
				}
				req.Body = body
				if method == "" {
					req.Method = http.MethodPost
				}
			}

			resp, err := env.engine.Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResponse(a.io.out, resp)
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", "", "HTTP method (GET, or POST with --data)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func printResponse(w io.Writer, resp *transport.Response) error {
	if resp.Data == nil {
		_, err := w.Write(resp.Body)
		return err
	}
	out, err := json.MarshalIndent(resp.Data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func (a *app) navCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "nav <path>",
		Short: "Run the navigation guard for a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			d, err := env.engine.Navigate(cmd.Context(), args[0], from)
			parts := []string{d.Kind.String()}
			if d.Target != "" {
				parts = append(parts, d.Target)
			}
			if d.Err != nil {
				parts = append(parts, "("+d.Err.Error()+")")
			}
			fmt.Fprintln(a.io.out, strings.Join(parts, " "))
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "/", "current location")
	return cmd
}
