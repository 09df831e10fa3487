package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temcen/animerec/internal/app"
	"github.com/temcen/animerec/internal/controller"
	"github.com/temcen/animerec/internal/view"
)

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recommendation page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			if port != "" {
				rt.config.Server.Port = port
			}

			application, err := app.New(rt.config)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return application.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides server.port)")
	return cmd
}

func newTitleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "title <anime title...>",
		Short: "Recommend anime similar to a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, func(ctrl *controller.Controller, count int) *controller.Call {
				return ctrl.RequestByTitle(strings.Join(args, " "), count)
			})
		},
	}
}

func newFeaturesCommand() *cobra.Command {
	var genres, themes, demographics string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Recommend anime by genres, themes and demographics",
		Long: `Each flag takes a comma-separated list. Omitting every flag asks for
recommendations across all anime.`,
		Example: `  animerec features --genres action,comedy --demographics shounen`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, func(ctrl *controller.Controller, count int) *controller.Call {
				return ctrl.RequestByFeatures(genres, themes, demographics, count)
			})
		},
	}

	cmd.Flags().StringVar(&genres, "genres", "", "comma-separated genres")
	cmd.Flags().StringVar(&themes, "themes", "", "comma-separated themes")
	cmd.Flags().StringVar(&demographics, "demographics", "", "comma-separated demographics")
	return cmd
}

func newCategoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "category <name>",
		Short: "Browse one category, or everything with \"All\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, func(ctrl *controller.Controller, count int) *controller.Call {
				return ctrl.RequestByCategory(args[0], count)
			})
		},
	}
}

func newSuggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <partial title>",
		Short: "List known titles containing the input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			ctrl, err := rt.controller()
			if err != nil {
				return err
			}

			if err := ctrl.LoadTitles(cmd.Context()); err != nil {
				view.WriteTerminal(cmd.OutOrStdout(), view.Failure("", err))
				return ErrRequestFailed
			}

			for _, title := range ctrl.ShowSuggestions(strings.Join(args, " ")) {
				fmt.Fprintln(cmd.OutOrStdout(), title)
			}
			return nil
		},
	}
}

// runCall issues one request on a fresh controller and prints the loading line and the result.
func runCall(cmd *cobra.Command, issue func(ctrl *controller.Controller, count int) *controller.Call) error {
	rt, err := runtimeFrom(cmd.Context())
	if err != nil {
		return err
	}
	ctrl, err := rt.controller()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	call := issue(ctrl, rt.count)
	if call.Sent() {
		view.WriteTerminal(out, call.Initial)
	}

	state, _ := call.Wait(cmd.Context())
	view.WriteTerminal(out, state)
	if state.Failed() {
		return ErrRequestFailed
	}
	return nil
}
