package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// progressPrinter renders a single self-overwriting status line while a
// port scan runs.
type progressPrinter struct {
	w        io.Writer
	total    int
	name     string
	mu       sync.Mutex
	open     int
	closed   int
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newProgressPrinter(w io.Writer, total int, name string) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		w:       w,
		total:   total,
		name:    name,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Increment records one finished port. Safe for concurrent use.
func (p *progressPrinter) Increment(open bool) {
	p.mu.Lock()
	if open {
		p.open++
	} else {
		p.closed++
	}
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		// The final line is written only after the loop has exited.
		p.wg.Wait()
		p.print()
		p.mu.Lock()
		fmt.Fprintln(p.w)
		p.mu.Unlock()
	})
}

func (p *progressPrinter) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()

	completed := p.open + p.closed
	if completed > p.total {
		p.total = completed
	}
	percent := (float64(completed) / float64(p.total)) * 100

	line := fmt.Sprintf("[%s] Progress: %d/%d (%.1f%%) Open:%d Closed:%d",
		p.name, completed, p.total, percent, p.open, p.closed)
	fmt.Fprintf(p.w, "\r%s\r%s", strings.Repeat(" ", 80), line)
}
