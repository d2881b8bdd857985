package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/bartekus/pipewright/internal/runner"
)

// NewStepProgress creates the bar shown on w while a run executes. Step
// output still streams to stdout, so w is normally stderr.
func NewStepProgress(total int, w io.Writer) runner.Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Running steps")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}
