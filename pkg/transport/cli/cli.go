// Package cli synthesizes a cobra command tree from the registry:
// sb <resource> <action> [positional...] [--param value...].
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// Transport is the transport name stamped on requests from this adapter.
const Transport = "cli"

// Exit codes.
const (
	ExitOK        = 0
	ExitExecution = 1
	ExitUsage     = 2
)

const logo = `
               .        .
 __._  _ .    ,|_ *._. _|
_) [ )(_) \/\/ [_)|[  (_]
-------------------------
`

// CLI runs one command line against a dispatcher.
type CLI struct {
	dispatcher *dispatcher.Dispatcher
	stdout     io.Writer
	stderr     io.Writer
}

// New creates a CLI writing results to stdout and errors to stderr.
func New(d *dispatcher.Dispatcher, stdout, stderr io.Writer) *CLI {
	return &CLI{dispatcher: d, stdout: stdout, stderr: stderr}
}

type globalFlags struct {
	output  string
	version string
}

// Run executes args (without the program name) and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	root := c.Command()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var regErr *registry.RegistryError
	if errors.As(err, &regErr) {
		fmt.Fprintf(c.stderr, "Error: %s\n", regErr.Message)
		if registry.IsClientError(regErr.Code) {
			return ExitUsage
		}
		return ExitExecution
	}
	fmt.Fprintf(c.stderr, "Error: %s\n", err)
	return ExitExecution
}

// Command builds a fresh command tree. Resources and actions are subcommands, so cobra
// resolves them before any action flag is parsed.
func (c *CLI) Command() *cobra.Command {
	g := &globalFlags{}
	reg := c.dispatcher.Registry()

	root := &cobra.Command{
		Use:   "sb <resource> <action> [<args>]",
		Short: "Snowbird CLI",
		Long:  logo + "\nSnowbird CLI\nsb <resource> <action> [<args>]",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return registry.ErrUnknownResource(args[0])
		},
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "json", "result format for non-string results: json or yaml")
	root.PersistentFlags().StringVar(&g.version, "resource-version", "", "SemVer range the resource version must satisfy")
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(flagError)

	for _, name := range reg.Resources() {
		res, _ := reg.Resolve(name)
		root.AddCommand(c.resourceCommand(g, name, res))
	}
	return root
}

func (c *CLI) resourceCommand(g *globalFlags, name string, res *registry.Resource) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <action>",
		Short: res.Description,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return &registry.RegistryError{
					Code:    registry.CodeUnknownAction,
					Message: fmt.Sprintf("An action is required for %s! Choose from: %s", name, strings.Join(res.ActionNames(), ", ")),
				}
			}
			return registry.ErrUnknownAction(name, args[0])
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	}
	for _, actionName := range res.ActionNames() {
		a, _ := res.Action(actionName)
		cmd.AddCommand(c.actionCommand(g, name, a))
	}
	return cmd
}

func (c *CLI) actionCommand(g *globalFlags, resource string, a *registry.Action) *cobra.Command {
	required := a.RequiredParams()
	use := a.Name
	for _, p := range required {
		use += " <" + p.Name + ">"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: a.Description,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > len(required) {
				return &registry.RegistryError{
					Code:    registry.CodeUnknownParameter,
					Message: fmt.Sprintf("Action %s takes at most %d positional argument(s), got %d", a.Name, len(required), len(args)),
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := collect(cmd.Flags(), a, args)
			if err != nil {
				return err
			}
			params, err := dispatcher.CoerceStrings(a, raw)
			if err != nil {
				return err
			}
			resp := c.dispatcher.Dispatch(cmd.Context(), &dispatcher.Request{
				Resource:  resource,
				Action:    a.Name,
				Params:    params,
				Version:   g.version,
				Transport: Transport,
			})
			if !resp.Ok {
				return resp.Err()
			}
			return c.print(g.output, resp.Result)
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	for _, p := range a.Params {
		usage := p.Description
		if p.Kind == registry.KindBool {
			def := false
			if b, ok := p.Default.(bool); ok {
				def = b
			}
			cmd.Flags().Bool(p.Name, def, usage)
			continue
		}
		def := ""
		if !p.Required && p.Default != nil {
			def = fmt.Sprint(p.Default)
		}
		cmd.Flags().String(p.Name, def, usage)
	}
	return cmd
}

// flagError turns pflag parse failures into client errors.
func flagError(_ *cobra.Command, err error) error {
	code := registry.CodeMalformedRequest
	if strings.Contains(err.Error(), "unknown flag") || strings.Contains(err.Error(), "unknown shorthand") {
		code = registry.CodeUnknownParameter
	}
	return registry.NewRegistryError(code, err.Error())
}

// collect gathers explicitly set parameter flags, then fills the remaining required
// parameters from the positional arguments in declaration order. Unset flags are not
// forwarded, so the action's own defaults apply. Inherited flags such as --output are not
// parameters and are skipped.
func collect(flags *pflag.FlagSet, a *registry.Action, args []string) (map[string]string, error) {
	raw := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		if _, ok := a.Param(f.Name); ok {
			raw[f.Name] = f.Value.String()
		}
	})

	required := a.RequiredParams()

	i := 0
	for _, p := range required {
		if i >= len(args) {
			break
		}
		if _, set := raw[p.Name]; set {
			continue
		}
		raw[p.Name] = args[i]
		i++
	}
	if i < len(args) {
		return nil, &registry.RegistryError{
			Code:    registry.CodeUnknownParameter,
			Message: fmt.Sprintf("Unexpected positional argument(s): %s", strings.Join(args[i:], " ")),
		}
	}
	return raw, nil
}

func (c *CLI) print(format string, result interface{}) error {
	if result == nil {
		return nil
	}
	if s, ok := result.(string); ok {
		_, err := fmt.Fprintln(c.stdout, s)
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("cli:cli - failed to encode result: %w", err)
	}
	switch format {
	case "yaml", "yml":
		// round-trip through JSON so json tags name the fields
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("cli:cli - failed to re-read result: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("cli:cli - failed to encode yaml: %w", err)
		}
		_, err = c.stdout.Write(out)
		return err
	case "json", "":
		_, err = fmt.Fprintln(c.stdout, string(data))
		return err
	default:
		return registry.NewRegistryError(registry.CodeMalformedRequest, fmt.Sprintf("Unknown output format %q (want json or yaml)", format))
	}
}
