package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/temcen/animerec/internal/app"
	"github.com/temcen/animerec/internal/backend"
	"github.com/temcen/animerec/internal/config"
	"github.com/temcen/animerec/internal/controller"
	"github.com/temcen/animerec/internal/messaging"
)

// ErrRequestFailed is returned after a failed request has already been printed.
var ErrRequestFailed = errors.New("request failed")

type contextKey string

const runtimeKey contextKey = "runtime"

// runtime is what every subcommand shares once flags and config are resolved.
type runtime struct {
	config    *config.Config
	logger    *logrus.Logger
	backend   *backend.Client
	publisher messaging.Publisher
	count     int
}

type rootOptions struct {
	configPath string
	backendURL string
	count      int
}

// NewRootCommand builds the animerec command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "animerec",
		Short: "Anime recommendations from the command line or the browser",
		Long: `animerec asks a recommendation backend for anime similar to a title, or matching
genres, themes and demographics. It serves the recommendation page with "serve"
and offers the same requests as commands and an interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}

			rt, err := opts.resolve(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey, rt))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return nil
			}
			return rt.publisher.Close()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config/app.yaml)")
	root.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "recommendation backend URL (overrides backend.url)")
	root.PersistentFlags().IntVar(&opts.count, "count", 0, "number of recommendations (default page.default_count)")

	root.AddCommand(
		newServeCommand(),
		newTitleCommand(),
		newFeaturesCommand(),
		newCategoryCommand(),
		newSuggestCommand(),
		newMenuCommand(),
	)

	return root
}

func (o *rootOptions) resolve(logOut io.Writer) (*runtime, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.backendURL != "" {
		cfg.Backend.URL = o.backendURL
	}
	if o.count < 0 {
		return nil, fmt.Errorf("--count must be positive, got %d", o.count)
	}

	logger := app.NewLogger(cfg.Logging)
	logger.SetOutput(logOut)

	client, err := backend.NewClient(backend.Options{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		config:    cfg,
		logger:    logger,
		backend:   client,
		publisher: messaging.NewPublisher(cfg.Kafka, logger),
		count:     o.count,
	}, nil
}

func runtimeFrom(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*runtime)
	if !ok || rt == nil {
		return nil, fmt.Errorf("command runtime not initialized")
	}
	return rt, nil
}

// controller builds a fresh page controller for one command run.
func (rt *runtime) controller() (*controller.Controller, error) {
	return controller.New(controller.Options{
		Backend:         rt.backend,
		Publisher:       rt.publisher,
		SessionID:       "cli",
		DefaultCount:    rt.config.Page.DefaultCount,
		Categories:      rt.config.Page.Categories,
		InitialCategory: rt.config.Page.InitialCategory,
		Logger:          rt.logger,
	})
}
