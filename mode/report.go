package mode

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/khaledhikmat/proctor-go/pipeline"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	alertColor  = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

func printReport(w io.Writer, result pipeline.Result) {
	r := result.Totals.Report()

	headerColor.Fprintf(w, "Session %s (%s)\n", result.Session.ID, result.Session.Source)
	fmt.Fprintf(w, "  strategy: %s, frames: %d, malformed: %d, alerts: %d\n",
		result.Totals.Strategy, result.Totals.Frames, r.MalformedFrames, result.Alerts)

	c := okColor
	if r.GazeViolations+r.HeadTurnViolations+r.AbsenceViolations > 0 {
		c = alertColor
	}
	c.Fprint(w, r.Text())
}
