// piaxectl drives the console's session layer from a terminal: sign in,
// inspect the account, refresh or end the session, and onboard a business.
//
// The session is persisted to Redis when REDIS_URL is set, so consecutive
// invocations share it. Without Redis each invocation starts signed out.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"piaxe-console/internal/config"
	"piaxe-console/internal/container"
	"piaxe-console/internal/device"
	"piaxe-console/internal/domain"
	"piaxe-console/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	summary string
	flags   func(*pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error
}

var commands = map[string]command{
	"login":           {"sign in and persist the session", loginCommand},
	"whoami":          {"print the signed-in profile", whoamiCommand},
	"refresh":         {"exchange the refresh token for a new pair", refreshCommand},
	"logout":          {"end the session locally and on the backend", logoutCommand},
	"stores":          {"list the account's stores", storesCommand},
	"become-business": {"create the main store and upgrade the account", businessCommand},
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := pflag.NewFlagSet("piaxectl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	logLevel := global.String("log-level", "error", "log level for diagnostics")
	global.Usage = func() { printHelp(global) }

	if err := global.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		printHelp(global)
		return fmt.Errorf("no command given")
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	flagSet := pflag.NewFlagSet(rest[0], pflag.ContinueOnError)
	action := cmd.flags(flagSet)
	if err := flagSet.Parse(rest[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// A terminal is never subject to CORS.
	cfg.ExecutionContext = device.Server
	cfg.LogLevel = *logLevel

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	c, err := container.New(cfg, log.Named("piaxectl"))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Session().Hydrate(ctx); err != nil {
		return err
	}
	return action(ctx, c, out)
}

func loginCommand(fs *pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error {
	username := fs.StringP("username", "u", "", "account username")
	password := fs.StringP("password", "p", "", "account password (default: $PIAXE_PASSWORD)")

	return func(ctx context.Context, c *container.Container, out io.Writer) error {
		if *password == "" {
			*password = os.Getenv("PIAXE_PASSWORD")
		}
		if err := c.Session().Login(ctx, domain.Credentials{Username: *username, Password: *password}); err != nil {
			return err
		}
		user := c.Session().User()
		fmt.Fprintf(out, "signed in as %s (device %s)\n", user.Username, c.Session().DeviceID())
		return nil
	}
}

type whoami struct {
	User        *domain.UserProfile `json:"user"`
	DeviceID    string              `json:"device_id,omitempty"`
	IsDeveloper bool                `json:"is_developer"`
	IsBusiness  bool                `json:"is_business"`
	HasStores   bool                `json:"has_stores"`
}

func whoamiCommand(fs *pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error {
	checkStores := fs.Bool("check-stores", false, "ask the backend whether the account owns a store")

	return func(ctx context.Context, c *container.Container, out io.Writer) error {
		s := c.Session()
		if !s.IsAuthenticated() {
			return fmt.Errorf("not signed in")
		}
		if *checkStores {
			if _, err := s.CheckStores(ctx); err != nil {
				return err
			}
		}
		return writeJSON(out, whoami{
			User:        s.User(),
			DeviceID:    s.DeviceID(),
			IsDeveloper: s.IsDeveloper(),
			IsBusiness:  s.IsBusiness(),
			HasStores:   s.HasStores(),
		})
	}
}

func refreshCommand(fs *pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error {
	return func(ctx context.Context, c *container.Container, out io.Writer) error {
		if err := c.Session().RefreshAuth(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "session refreshed")
		return nil
	}
}

func logoutCommand(fs *pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error {
	return func(ctx context.Context, c *container.Container, out io.Writer) error {
		if err := c.Session().Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "signed out")
		return nil
	}
}

func storesCommand(fs *pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error {
	return func(ctx context.Context, c *container.Container, out io.Writer) error {
		if !c.Session().IsAuthenticated() {
			return fmt.Errorf("not signed in")
		}
		stores, err := c.Clients().Stores.ListStores(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, stores)
	}
}

func businessCommand(fs *pflag.FlagSet) func(context.Context, *container.Container, io.Writer) error {
	var data domain.BusinessAccountData
	fs.StringVar(&data.BusinessName, "name", "", "business name")
	fs.StringVar(&data.BusinessType, "type", "", "business type, used as the store category")
	fs.StringVar(&data.BusinessEmail, "email", "", "business email")
	fs.StringVar(&data.BusinessPhone, "phone", "", "business phone")
	fs.StringVar(&data.BusinessAddress, "address", "", "business address")
	fs.StringVar(&data.Description, "description", "", "store description")

	return func(ctx context.Context, c *container.Container, out io.Writer) error {
		created, err := c.Session().CreateBusinessAccount(ctx, data)
		if err != nil {
			return err
		}
		return writeJSON(out, created)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHelp(fs *pflag.FlagSet) {
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("Usage: piaxectl [flags] <command> [command flags]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-16s %s\n", name, commands[name].summary)
	}
	b.WriteString("\nFlags:\n")
	b.WriteString(fs.FlagUsages())
	fmt.Fprint(os.Stderr, b.String())
}
