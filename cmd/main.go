package cmd

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kcenon/file-manager/build-tools/pkg/buildsys"
	"github.com/kcenon/file-manager/build-tools/pkg/config"
)

var errBuildFailed = eris.New("Build failed")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fmbuild",
		Short: "Build tool for the file manager project",
		Long: `This command cleans, configures and compiles the file manager project with CMake.
Without a subcommand it runs a full build, "fmbuild --tests" only runs the tests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			clean, err := cmd.Flags().GetBool("clean")
			if err != nil {
				return err
			}

			tests, err := cmd.Flags().GetBool("tests")
			if err != nil {
				return err
			}

			if clean && tests {
				return eris.New("--clean and --tests can't be combined")
			}

			if tests {
				return runPipeline(cmd, (*buildsys.Builder).TestRun)
			}
			return runPipeline(cmd, (*buildsys.Builder).FullBuild)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is "+config.DefaultFile+" in the working directory)")
	flags.String("root", "", "project to build (default is detected from the working directory)")
	flags.IntP("jobs", "j", 0, "parallel make jobs (default is the CPU count)")
	flags.String("build-type", "", "CMAKE_BUILD_TYPE (default is Release)")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.Flags().Bool("clean", false, "run a clean full build (the default)")
	rootCmd.Flags().Bool("tests", false, "only run the tests")

	rootCmd.AddCommand(newBuildCmd(), newTestsCmd(), newStageCmd(), newBackendCmd(), newArtifactsCmd())
	return rootCmd
}

// runPipeline executes one of the Builder's run methods and maps its result
// to the exit status.
func runPipeline(cmd *cobra.Command, run func(*buildsys.Builder, context.Context) bool) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	cmd.SilenceUsage = true
	sess.success = run(sess.builder, sess.ctx)
	if !sess.success {
		return errBuildFailed
	}

	return nil
}

func Execute() {
	cobra.CheckErr(newRootCmd().ExecuteContext(context.Background()))
}
