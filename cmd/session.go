package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kcenon/file-manager/build-tools/pkg"
	"github.com/kcenon/file-manager/build-tools/pkg/buildsys"
	"github.com/kcenon/file-manager/build-tools/pkg/config"
	"github.com/kcenon/file-manager/build-tools/pkg/console"
	"github.com/kcenon/file-manager/build-tools/pkg/metrics"
	"github.com/kcenon/file-manager/build-tools/pkg/shell"
)

// newRunner is replaced in tests.
var newRunner = func() shell.Runner {
	return shell.NewShellRunner()
}

// session holds everything a command needs to drive the Builder.
type session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Config
	logger  zerolog.Logger
	builder *buildsys.Builder
	metrics *metrics.PrometheusRecorder
	success bool
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	files := []string{}
	if cfgPath != "" {
		_, err = os.Stat(cfgPath)
		if err != nil {
			return nil, eris.Wrapf(err, "Could not find config file %s", cfgPath)
		}
		files = append(files, cfgPath)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}

	if flags.Changed("root") {
		cfg.ProjectRoot, err = flags.GetString("root")
		if err != nil {
			return nil, err
		}
	}

	if flags.Changed("jobs") {
		cfg.Jobs, err = flags.GetInt("jobs")
		if err != nil {
			return nil, err
		}
	}

	if flags.Changed("build-type") {
		cfg.BuildType, err = flags.GetString("build-type")
		if err != nil {
			return nil, err
		}
	}

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "Failed to retrieve the current working directory")
		}

		cfg.ProjectRoot, err = pkg.GetProjectRoot(wd)
		if err != nil {
			return nil, err
		}
	} else {
		cfg.ProjectRoot, err = filepath.Abs(cfg.ProjectRoot)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to resolve %s", cfg.ProjectRoot)
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	var writer io.Writer
	if cfg.Log.JSON {
		writer = out
		pkg.Output = io.Discard
	} else {
		writer = console.NewConsoleWriter(out)
	}

	return zerolog.New(writer).Level(cfg.LogLevel()).With().Timestamp().Logger()
}

// isTerminal reports whether out is an interactive terminal.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	sess := &session{cfg: cfg}
	sess.logger = newLogger(cfg, cmd.ErrOrStderr())

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	sess.ctx = buildsys.WithLogger(ctx, &sess.logger)
	sess.cancel = cancel

	sess.builder = buildsys.NewBuilder(cfg, newRunner())
	if !cfg.Log.JSON && isTerminal(cmd.ErrOrStderr()) {
		sess.builder.Progress = cmd.ErrOrStderr()
	}

	if cfg.Metrics.Textfile != "" {
		sess.metrics = metrics.NewPrometheusRecorder(nil)
		sess.builder.Recorder = sess.metrics
	}

	sess.logger.Debug().
		Str("root", cfg.ProjectRoot).
		Str("build_dir", sess.builder.BuildDir()).
		Str("run", sess.builder.Report().RunID).
		Msg("Loaded configuration")
	return sess, nil
}

func (s *session) close() {
	defer s.cancel()

	if s.metrics == nil {
		return
	}

	path := s.cfg.ResolvePath(s.cfg.Metrics.Textfile)
	err := s.metrics.WriteTextfile(path)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write metrics")
		return
	}

	s.logger.Debug().Str("path", path).Bool("success", s.success).Msg("Metrics written")
}
