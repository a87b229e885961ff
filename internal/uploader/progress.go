package uploader

import (
	"io"
	"math"
	"sync/atomic"
)

// progressReader wraps the file reader handed to the storage PUT and
// reports whole-percent progress as bytes leave the client.
type progressReader struct {
	r        io.Reader
	total    int64
	sent     atomic.Int64
	lastPct  atomic.Int64
	onChange func(percent int)
}

func newProgressReader(r io.Reader, total int64, onChange func(percent int)) *progressReader {
	pr := &progressReader{r: r, total: total, onChange: onChange}
	pr.lastPct.Store(-1)
	return pr
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		sent := pr.sent.Add(int64(n))
		pct := percentOf(sent, pr.total)
		// Only report whole-percent changes; byte-level callbacks would
		// flood the store on large files
		if int64(pct) != pr.lastPct.Load() {
			pr.lastPct.Store(int64(pct))
			if pr.onChange != nil {
				pr.onChange(pct)
			}
		}
	}
	return n, err
}

// percentOf rounds sent/total to the nearest whole percent. Zero-byte
// files report 100 immediately; there is nothing to send.
func percentOf(sent, total int64) int {
	if total <= 0 {
		return 100
	}
	pct := int(math.Round(float64(sent) * 100 / float64(total)))
	if pct > 100 {
		pct = 100
	}
	return pct
}
