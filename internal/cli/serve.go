package cli

import (
	"errors"
	"net/http"
	"runtime"

	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/metrics"
	"github.com/hongjr03/tinymist/internal/server"
	"github.com/hongjr03/tinymist/internal/utils"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

// ServeOptions holds the flags of the serve command. Unset flags fall back
// to the TINYMIST_* environment.
type ServeOptions struct {
	Stdio       bool
	TCP         string
	WebSocket   string
	LogFile     string
	MetricsAddr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the language server",
		Long:         "Run the language server over stdio (the default), TCP or a WebSocket.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadOptions()
			if err != nil {
				return err
			}
			return runServe(rootOpts, opts, env)
		},
	}

	cmd.Flags().BoolVar(&opts.Stdio, "stdio", true, "communicate over stdin and stdout")
	cmd.Flags().StringVar(&opts.TCP, "tcp", "", "listen for a client on this TCP address")
	cmd.Flags().StringVar(&opts.WebSocket, "websocket", "", "listen for a client on this WebSocket address")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file instead of stderr")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.MarkFlagsMutuallyExclusive("tcp", "websocket")

	return cmd
}

// logSettings merges the flags with the environment.
func logSettings(rootOpts *RootOptions, opts *ServeOptions, env config.Options) (int, *string) {
	verbosity := env.LogLevel + rootOpts.Verbose
	path := utils.FirstNonEmpty(opts.LogFile, env.LogFile)
	if path == "" {
		return verbosity, nil
	}
	return verbosity, &path
}

func runServe(rootOpts *RootOptions, opts *ServeOptions, env config.Options) error {
	verbosity, path := logSettings(rootOpts, opts, env)
	commonlog.Configure(verbosity, path)
	log := commonlog.GetLogger("tinymist")

	runtime.GOMAXPROCS(env.MaxProcs)

	m := metrics.New()
	if addr := utils.FirstNonEmpty(opts.MetricsAddr, env.MetricsAddr); addr != "" {
		go func() {
			log.Infof("serving metrics on %s", addr)
			err := http.ListenAndServe(addr, m.Handler())
			if !errors.Is(err, http.ErrServerClosed) {
				utils.LogError(log, err, "metrics server stopped")
			}
		}()
	}

	srv := server.NewServer(server.Options{Version: rootOpts.Version, Metrics: m})
	log.Infof("starting tinymist %s", rootOpts.Version)
	switch {
	case opts.TCP != "":
		return srv.RunTCP(opts.TCP)
	case opts.WebSocket != "":
		return srv.RunWebSocket(opts.WebSocket)
	default:
		return srv.RunStdio()
	}
}
