package pkg

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// Output receives the task banners. It is a variable so the CLI can silence
// banners when logging JSON.
var Output io.Writer = os.Stdout

// GetProjectRoot resolves the project to build starting at dir. A directory
// with a CMakeLists.txt is used as is, otherwise the closest ancestor that
// contains .git is returned.
func GetProjectRoot(dir string) (string, error) {
	mypath, err := filepath.Abs(dir)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to resolve %s", dir)
	}

	_, err = os.Stat(filepath.Join(mypath, "CMakeLists.txt"))
	if err == nil {
		return mypath, nil
	}

	for {
		gitPath := filepath.Join(mypath, ".git")
		_, err := os.Stat(gitPath)
		if err == nil {
			return mypath, nil
		}

		if !os.IsNotExist(err) {
			return "", eris.Wrap(err, "Error ocurred while searching for project root")
		}

		nextPath := filepath.Dir(mypath)
		if mypath == nextPath {
			break
		}
		mypath = nextPath
	}

	return "", eris.New("Project root not found")
}

func PrintTask(msg string) {
	colorstring.Fprintf(Output, "[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Fprintf(Output, "[green][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Fprintf(Output, "[red][bold]  ->[reset] %s\n", msg)
}
