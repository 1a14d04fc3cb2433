package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kcenon/file-manager/build-tools/pkg/buildsys"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "build",
		Aliases: []string{"clean"},
		Short:   "Clean, configure and compile the project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, (*buildsys.Builder).FullBuild)
		},
	}
}

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tests",
		Aliases: []string{"test"},
		Short:   "Run the test executable or CTest in an existing build directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, (*buildsys.Builder).TestRun)
		},
	}
}

var stages = map[string]func(*buildsys.Builder, context.Context) bool{
	"clean":     (*buildsys.Builder).Clean,
	"prepare":   (*buildsys.Builder).Prepare,
	"configure": (*buildsys.Builder).Configure,
	"compile":   (*buildsys.Builder).Compile,
}

func stageNames() []string {
	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func newStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "stage <name>",
		Short:     "Run a single build stage",
		Long:      fmt.Sprintf("Runs one stage of the full build on its own. Available stages: %v", stageNames()),
		ValidArgs: stageNames(),
		Args:      cobra.ExactValidArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := stages[args[0]]
			if !ok {
				return eris.Errorf("Stage %s not found", args[0])
			}

			return runPipeline(cmd, run)
		},
	}
}

func newBackendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Print the backend CMake generated in the build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), buildsys.DetectBackend(cfg.ResolvePath(cfg.BuildDir)))
			return nil
		},
	}
}

func newArtifactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts",
		Short: "List the libraries and executables in the build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			cmd.SilenceUsage = true
			for _, artifact := range sess.builder.ListArtifacts(sess.ctx) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", artifact.Kind, artifact.Path)
			}

			sess.success = true
			return nil
		},
	}
}
