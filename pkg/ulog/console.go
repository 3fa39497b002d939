package ulog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ConsoleWriter turns zerolog's JSON events into short console lines. The
// run and step fields the pipeline attaches become line prefixes so the
// output of concurrent matrix legs stays attributable.
type ConsoleWriter struct {
	out  io.Writer
	lock sync.Mutex
}

func NewConsoleWriter() *ConsoleWriter {
	return &ConsoleWriter{out: os.Stderr}
}

var levelColors = map[string]string{
	"trace": "[dark_gray]",
	"debug": "[dark_gray]",
	"warn":  "[yellow]",
	"error": "[red]",
	"fatal": "[red][bold]",
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err := d.Decode(&evt)
	if err != nil {
		return 0, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	level, _ := evt["level"].(string)
	color, ok := levelColors[level]
	if !ok {
		color = "[green]"
	}

	var line strings.Builder
	line.WriteString(color)

	if run, ok := evt["run"].(string); ok {
		line.WriteString("[dark_gray]" + run + color + " ")
	}
	if step, ok := evt["step"].(string); ok {
		line.WriteString(step + ": ")
	}
	if level == "error" || level == "fatal" {
		line.WriteString("Error: ")
	}

	msg, _ := evt["message"].(string)
	line.WriteString(msg)

	// the wrapped error chain, one indented line per cause
	if details, ok := evt["error"].(string); ok {
		for _, part := range strings.Split(details, "\n") {
			line.WriteString("\n    " + part)
		}
	}

	if os.Getenv("COLLAPSE_DEBUG") != "" {
		for name, value := range evt {
			switch name {
			case "level", "message", "run", "step", "error":
			default:
				line.WriteString(fmt.Sprintf("\n    %s=%v", name, value))
			}
		}
	}

	line.WriteString("[reset]\n")

	w.lock.Lock()
	defer w.lock.Unlock()
	return colorstring.Fprint(w.out, line.String())
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("COLLAPSE_DEBUG") != "")
	}
}
