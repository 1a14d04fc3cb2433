// Package console renders zerolog events as colored, human readable lines.
package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DebugEnv enables field dumps and error stack traces when set.
const DebugEnv = "FMBUILD_DEBUG"

type ConsoleWriter struct {
	out    io.Writer
	wd     string
	buffer strings.Builder
	lock   sync.Mutex
}

// NewConsoleWriter returns a writer that prints to out (os.Stderr if nil).
// Paths below the working directory are shortened in messages.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	if out == nil {
		out = os.Stderr
	}

	wd, _ := os.Getwd()
	return &ConsoleWriter{out: out, wd: wd}
}

// simplifyPath returns path relative to the working directory if it lies
// below it.
func (w *ConsoleWriter) simplifyPath(path string) string {
	if w.wd == "" || !filepath.IsAbs(path) {
		return path
	}

	rel, err := filepath.Rel(w.wd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}

	return rel
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt[zerolog.LevelFieldName] {
	case "fatal":
		fallthrough
	case "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug":
		fallthrough
	case "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if stage, ok := evt["stage"].(string); ok {
		w.buffer.WriteString(stage + ": ")
	}

	if evt[zerolog.LevelFieldName] == "error" {
		w.buffer.WriteString("Error: ")
	}

	msg, _ := evt[zerolog.MessageFieldName].(string)
	if path, ok := evt["path"].(string); ok && path != "" {
		msg = strings.ReplaceAll(msg, path, w.simplifyPath(path))
	}
	w.buffer.WriteString(msg)

	if errorDetails, ok := evt[zerolog.ErrorFieldName].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if os.Getenv(DebugEnv) != "" {
		w.buffer.WriteString("\n")
		names := make([]string, 0, len(evt))
		for name := range evt {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, evt[name]))
		}
	}

	w.buffer.WriteString("[reset]\n")
	_, err = colorstring.Fprint(w.out, w.buffer.String())
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv(DebugEnv) != "")
	}
}
