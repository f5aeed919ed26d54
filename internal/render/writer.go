package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/picongpu/picci/internal/matrix"
	"github.com/picongpu/picci/internal/stage"
)

// WritePipeline writes the stages header followed by one block per job.
// jobs must already be in stage order.
func WritePipeline(w io.Writer, stageCount int, jobs []JobDescriptor) error {
	var buf bytes.Buffer

	buf.WriteString("stages:\n")
	for s := range stageCount {
		fmt.Fprintf(&buf, "  - job_%d\n", s)
	}
	buf.WriteString("\n")

	for _, j := range jobs {
		fmt.Fprintf(&buf, "%s:\n", j.Name)
		fmt.Fprintf(&buf, "  stage: job_%d\n", j.Stage)
		buf.WriteString("  variables:\n")
		for _, v := range j.Variables {
			fmt.Fprintf(&buf, "    %s: %s\n", v.Key, quote(v.Value))
		}
		buf.WriteString("  before_script:\n")
		for _, line := range j.BeforeScript {
			fmt.Fprintf(&buf, "    - %s\n", line)
		}
		fmt.Fprintf(&buf, "  extends: %s\n", j.Extends)
		buf.WriteString("\n")
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteCompact writes a "---" line per stage followed by the stage's jobs
// as "index: tuple".
func WriteCompact(w io.Writer, stages []stage.Stage[matrix.Job]) error {
	var buf bytes.Buffer

	for _, s := range stages {
		buf.WriteString("---\n")
		for _, e := range s.Entries {
			fmt.Fprintf(&buf, "%2d: %s\n", e.Index, e.Value)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// quote renders s as a YAML single-quoted scalar.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
