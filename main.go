package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-lazyioc/examples/greeter"
	"github.com/km-arc/go-lazyioc/framework/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "lazyioc",
		Short:        "Lazy IoC container demo",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env)")

	bootstrap := func() (*app.Application, error) {
		a, err := app.New(envFiles...)
		if err != nil {
			return nil, err
		}
		if err := a.Register(&greeter.Provider{}); err != nil {
			return nil, err
		}
		return a, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "demo",
			Short: "Resolve the greeter and status services and print their output",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := bootstrap()
				if err != nil {
					return err
				}
				return runDemo(a, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the demo services over HTTP on APP_PORT",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := bootstrap()
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Run(ctx)
			},
		},
		&cobra.Command{
			Use:   "aliases",
			Short: "List registered aliases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := bootstrap()
				if err != nil {
					return err
				}
				if err := a.Boot(); err != nil {
					return err
				}
				listAliases(a, cmd.OutOrStdout())
				return nil
			},
		},
	)
	return root
}

func runDemo(a *app.Application, w io.Writer) error {
	g, ok := a.Get(greeter.GreeterAlias)
	if !ok {
		return errors.Errorf("%q is not registered", greeter.GreeterAlias)
	}
	out, err := g.Invoke("Hello")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out[0])

	s, ok := a.Get(greeter.StatusAlias)
	if !ok {
		return errors.Errorf("%q is not registered", greeter.StatusAlias)
	}
	out, err = s.Invoke("Working")
	if err != nil {
		return err
	}
	if err, _ := out[1].(error); err != nil {
		return err
	}
	fmt.Fprintln(w, out[0])
	return nil
}

func listAliases(a *app.Application, w io.Writer) {
	for _, alias := range a.Aliases() {
		fmt.Fprintf(w, "%-10s locked=%-5t resolved=%t\n", alias, a.Locked(alias), a.Resolved(alias))
	}
}
