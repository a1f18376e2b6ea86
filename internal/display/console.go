package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// redrawDelay batches a burst of label updates into a single page redraw.
const redrawDelay = 20 * time.Millisecond

// Console renders pages as plain text blocks to a writer. It stands in for
// the wearable's LCD on a development host: label updates coalesce into one
// redraw shortly after the last change.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	page    *consolePage
	pending bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) OpenPage(title, status string) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = &consolePage{owner: c, title: title, status: status}
	return c.page, nil
}

func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = nil
	fmt.Fprintln(c.w)
}

// scheduleRedraw arms a one-shot redraw unless one is already pending.
// Caller holds c.mu.
func (c *Console) scheduleRedraw() {
	if c.pending {
		return
	}
	c.pending = true
	time.AfterFunc(redrawDelay, c.redraw)
}

func (c *Console) redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	p := c.page
	if p == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "== %s | %s ==\n", p.title, p.status)
	for _, l := range p.ordered() {
		fmt.Fprintf(&b, "  %s\n", l.text)
	}
	fmt.Fprint(c.w, b.String())
}

type consolePage struct {
	owner  *Console
	title  string
	status string
	labels []*consoleLabel
	seq    int
}

func (p *consolePage) CreateLabel() Label {
	p.owner.mu.Lock()
	defer p.owner.mu.Unlock()
	l := &consoleLabel{page: p, order: p.seq}
	p.seq++
	p.labels = append(p.labels, l)
	return l
}

func (p *consolePage) Close() {
	p.owner.mu.Lock()
	defer p.owner.mu.Unlock()
	p.labels = nil
	if p.owner.page == p {
		p.owner.page = nil
	}
}

// ordered returns labels by position when set, else by creation order.
func (p *consolePage) ordered() []*consoleLabel {
	out := make([]*consoleLabel, len(p.labels))
	copy(out, p.labels)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].y != out[j].y {
			return out[i].y < out[j].y
		}
		if out[i].x != out[j].x {
			return out[i].x < out[j].x
		}
		return out[i].order < out[j].order
	})
	return out
}

type consoleLabel struct {
	page  *consolePage
	order int
	x, y  int
	text  string
	dead  bool
}

func (l *consoleLabel) SetText(s string) {
	c := l.page.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	if l.dead || l.text == s {
		return
	}
	l.text = s
	c.scheduleRedraw()
}

func (l *consoleLabel) SetPosition(x, y int) {
	c := l.page.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	l.x, l.y = x, y
}

func (l *consoleLabel) Delete() {
	c := l.page.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	l.dead = true
	for i, cand := range l.page.labels {
		if cand == l {
			l.page.labels = append(l.page.labels[:i], l.page.labels[i+1:]...)
			break
		}
	}
}
