package commands

import (
	"errors"
	"io"
	"os"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// writeJSON writes obj as an indented JSON document to the root writer.
func writeJSON(c *cli.Command, obj any) error {
	var ew io.Writer = os.Stderr
	if root := c.Root(); root.ErrWriter != nil {
		ew = root.ErrWriter
	}
	return iojson.Write(c.Root().Writer, ew, obj)
}

// WriteError reports err to w as a JSON error envelope. Failed task
// operations carry their reason code.
func WriteError(w io.Writer, err error) error {
	e := iojson.Error{Message: err.Error()}

	var opErr *task.OpError
	if errors.As(err, &opErr) {
		e.Reason = string(opErr.Reason)
		e.Data = map[string]any{"op": opErr.Op}
		if opErr.TaskID != "" {
			e.Data["task_id"] = opErr.TaskID
		}
	}

	return iojson.WriteError(w, e)
}
