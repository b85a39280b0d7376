package start

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/internal/di"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/metrics"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

const (
	usage                 = "start"
	short                 = "Start an aesdsocket server"
	long                  = "This command starts an aesdsocket server which appends every received line to a bounded record log and answers each client with the whole log"
	example               = "aesdsocket start --config <path> [--daemon]"
	defaultConfigFilePath = "./aesdsocket.yml"
	configDesc            = "set the path for the aesdsocket YAML configuration file"
	daemonDesc            = "run in the background once the listening socket is bound"

	defaultSignalChanLen = 10
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s"},
		SuggestFor: []string{"boot", "up", "serve"},
		Example:    example,
		RunE:       executeStart,
	}
	// configFilePath set flag for a path to the config file.
	configFilePath string
	// daemonMode set flag to detach from the terminal after binding.
	daemonMode bool

	shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	AddFlags(Cmd.Flags())
}

// AddFlags registers the start flags on fs, so that the root command can
// start the server too.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
	fs.BoolVarP(&daemonMode, "daemon", "d", false, daemonDesc)
}

// executeStart implements the start command.
func executeStart(cmd *cobra.Command, _ []string) error {
	config, err := utils.LoadConfig(configFilePath)
	if err != nil {
		return err
	}

	// Don't output command usage if args are correct.
	cmd.SilenceUsage = true

	if err = configureLogging(config); err != nil {
		return err
	}
	log.Info("using %v for configuration", configFilePath)

	c := di.NewContainer(config)
	inherited, err := inheritedListener()
	if err != nil {
		return err
	}
	if inherited != nil {
		log.Info("running as daemon, pid %d", os.Getpid())
		c.InjectListener(inherited)
		inheritedMetrics, err2 := inheritedMetricsListener()
		if err2 != nil {
			return err2
		}
		if inheritedMetrics != nil {
			c.InjectMetricsListener(inheritedMetrics)
		}
	}

	// Bind before detaching so that address errors reach the terminal.
	ln, err := c.GetListener()
	if err != nil {
		return err
	}
	metricsLn, err := c.GetMetricsListener()
	if err != nil {
		ln.Close()
		return err
	}
	if daemonMode && inherited == nil {
		return daemonize(ln, metricsLn, configFilePath)
	}

	return serve(context.Background(), c)
}

func configureLogging(config *utils.ServerConfig) error {
	log.SetLevel(config.LogLevel)
	if config.LogFile == "" {
		return nil
	}
	if err := log.SetOutput(config.LogFile); err != nil {
		return errors.Wrapf(err, "failed to open log file %s", config.LogFile)
	}
	return nil
}

// serve runs the server built by c until SIGINT or SIGTERM, or until ctx is
// canceled.
func serve(ctx context.Context, c *di.Container) error {
	config := c.GetServerConfig()
	coord, err := c.GetCoordinator()
	if err != nil {
		return err
	}
	// A server without its metrics endpoints must not accept work.
	metricsLn, err := c.GetMetricsListener()
	if err != nil {
		if ln, err2 := c.GetListener(); err2 == nil {
			ln.Close()
		}
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Signal handlers are installed before any worker starts.
	signalChan := make(chan os.Signal, defaultSignalChanLen)
	signal.Notify(signalChan, append(shutdownSignals, stackDumpSignals...)...)
	defer signal.Stop(signalChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-signalChan:
				if isStackDumpSignal(s) {
					log.Info("dumping stack traces due to '%v' request", s)
					if err2 := pprof.Lookup("goroutine").WriteTo(os.Stdout, 1); err2 != nil {
						log.Error("failed to write goroutine pprof: %v", err2)
					}
					continue
				}
				log.Info("caught signal '%v', exiting", s)
				cancel()
			}
		}
	}()

	var metricsDone chan error
	if metricsLn != nil {
		routes := frontend.NewUtilityAPIHandlers(coord, config.StartTime).Routes()
		if hub := c.GetStreamHub(); hub != nil {
			routes = append(routes, metrics.Route{Pattern: "/stream", Handler: hub})
		}
		metricsDone = make(chan error, 1)
		go func() {
			metricsDone <- metrics.ServeListener(ctx, metricsLn, routes...)
		}()
	}

	startupTime := time.Since(config.StartTime)
	metrics.StartupTime.Set(startupTime.Seconds())
	log.Info("startup time: %s", startupTime)

	err = coord.Run(ctx)

	cancel()
	if metricsDone != nil {
		if merr := <-metricsDone; merr != nil {
			log.Error("%v", merr)
			err = multierr.Append(err, merr)
		}
	}
	log.Info("exiting...")
	return err
}

func isStackDumpSignal(s os.Signal) bool {
	for _, d := range stackDumpSignals {
		if s == d {
			return true
		}
	}
	return false
}
