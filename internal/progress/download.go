package progress

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// NewDownloadBar creates a byte-counting bar for a single download.
// Unknown sizes (-1) render a spinner. On non-TTY output the bar is
// silent and the caller's log lines carry the outcome.
func NewDownloadBar(size int64, description string) *progressbar.ProgressBar {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return progressbar.DefaultBytesSilent(size, description)
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			os.Stderr.WriteString("\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
}

// CopyWithBar copies src to dst while advancing the bar.
func CopyWithBar(dst io.Writer, src io.Reader, bar *progressbar.ProgressBar) (int64, error) {
	return io.Copy(io.MultiWriter(dst, bar), src)
}
