// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// progressInterval limits how often a progress line is redrawn.
const progressInterval = 100 * time.Millisecond

// progress redraws a single "\r"-terminated status line as bytes move.
// A nil *progress is valid and reports nothing.
type progress struct {
	out   io.Writer
	label string
	total int64
	done  int64
	drawn time.Time
}

func (c *Client) track(label string, total int64) *progress {
	if c.config.Progress == nil {
		return nil
	}
	return &progress{out: c.config.Progress, label: label, total: total}
}

// reader returns r with its reads counted.
func (p *progress) reader(r io.Reader) io.Reader {
	if p == nil {
		return r
	}
	return io.TeeReader(r, p)
}

func (p *progress) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if p.done >= p.total || time.Since(p.drawn) >= progressInterval {
		p.draw()
	}
	return len(b), nil
}

func (p *progress) draw() {
	p.drawn = time.Now()
	percent := 100.0
	if p.total > 0 {
		percent = float64(p.done) * 100 / float64(p.total)
	}
	fmt.Fprintf(p.out, "\r%s: %s / %s (%.1f%%)", p.label,
		humanize.IBytes(uint64(p.done)), humanize.IBytes(uint64(p.total)), percent)
}

// finish ends the status line.
func (p *progress) finish() {
	if p == nil || p.drawn.IsZero() {
		return
	}
	fmt.Fprintln(p.out)
}
