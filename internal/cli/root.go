package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davicafu/lazygrid/internal/collection"
	"github.com/davicafu/lazygrid/internal/config"
	"github.com/davicafu/lazygrid/pkg/logger"
)

// app es el estado compartido por los subcomandos, resuelto en
// PersistentPreRunE a partir del fichero de configuración y los flags.
type app struct {
	configPath string
	baseURL    string
	collection string
	pageSize   int
	timeout    time.Duration
	token      string
	logLevel   string
	jsonOutput bool

	cfg    config.ClientConfig
	client *collection.HTTPClient[Row]
	log    *zap.Logger

	in  io.Reader
	out io.Writer
}

// NewRootCommand construye el árbol de comandos de lazygrid.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:           "lazygrid",
		Short:         "Browse and edit a remote paginated collection from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd.Context())
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $LAZYGRID_CONFIG or ~/.config/lazygrid.toml)")
	flags.StringVar(&a.baseURL, "base-url", "", "collection service base URL")
	flags.StringVar(&a.collection, "collection", "", "collection name")
	flags.IntVar(&a.pageSize, "page-size", 0, "rows per page")
	flags.DurationVar(&a.timeout, "timeout", 0, "HTTP request timeout")
	flags.StringVar(&a.token, "token", "", "bearer token")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.jsonOutput, "json", false, "output as JSON")

	cobra.EnableCommandSorting = false
	root.AddCommand(
		newBrowseCmd(a),
		newListCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute es el punto de entrada de cmd/lazygrid.
func Execute(ctx context.Context) int {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	logger.InitConsole(a.logLevel)
	a.log = logger.Logger()

	path := a.configPath
	if path == "" {
		p, err := config.ClientConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.LoadClientConfig(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("collection") {
		cfg.Collection = a.collection
	}
	if flags.Changed("page-size") {
		cfg.PageSize = a.pageSize
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: a.timeout}
	}
	if flags.Changed("token") {
		cfg.Token = a.token
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.configPath = path
	a.client = collection.NewHTTPClient[Row](cfg.CollectionURL(),
		collection.WithToken(cfg.Token),
		collection.WithTimeout(cfg.Timeout.Duration),
	)
	a.log.Debug("Client configured",
		zap.String("url", cfg.CollectionURL()),
		zap.Int("size", cfg.PageSize),
	)
	return nil
}

// mount abre una sesión y espera a la primera página. El llamante cierra.
func (a *app) mount(ctx context.Context) (*Session, error) {
	s := NewSession(a.client, a.out, a.cfg.PageSize, a.cfg.Timeout.Duration+time.Second, a.log)
	if _, err := s.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive paginated table (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd.Context())
		},
	}
}

func (a *app) browse(ctx context.Context) error {
	s := NewSession(a.client, a.out, a.cfg.PageSize, a.cfg.Timeout.Duration+time.Second, a.log)
	defer s.Close()

	// una carga fallida no impide entrar: "refresh" la reintenta
	if _, err := s.Start(ctx); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	fmt.Fprintln(a.out, "Type help for commands.")
	return NewShell(s, a.out).Run(ctx, a.in)
}
