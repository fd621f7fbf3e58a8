// Package output renders live terminal progress for running acquisitions
// and a final error summary.
package output

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/sumwave/otodl/internal/acquire"
	"github.com/sumwave/otodl/internal/errclass"
	"github.com/sumwave/otodl/internal/utils"
)

// entry is one tracked acquisition.
type entry struct {
	index    int
	label    string
	status   utils.Status
	percent  float64
	message  string
	err      error
	complete bool
	updated  time.Time
}

type Manager struct {
	mu       sync.RWMutex
	entries  map[int]*entry
	count    int
	numLines int
	doneCh   chan struct{}
	wg       sync.WaitGroup
	tick     time.Duration
}

func NewManager() *Manager {
	return &Manager{
		entries: make(map[int]*entry),
		doneCh:  make(chan struct{}),
		tick:    300 * time.Millisecond,
	}
}

// Register adds a tracked acquisition and returns its handle.
func (m *Manager) Register(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	m.entries[m.count] = &entry{
		index:   m.count,
		label:   label,
		status:  utils.StatusLoading,
		updated: time.Now(),
	}
	return m.count
}

// Update records a status transition. It has utils.StatusFunc shape when
// bound to an id with a closure.
func (m *Manager) Update(id int, status utils.Status, body utils.StatusBody) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.status = status
		if body.Percent != nil {
			e.percent = *body.Percent
		}
		e.updated = time.Now()
	}
}

// StatusFunc returns a callback that feeds status events into entry id.
func (m *Manager) StatusFunc(id int) utils.StatusFunc {
	return func(status utils.Status, body utils.StatusBody) {
		m.Update(id, status, body)
	}
}

// Complete marks the acquisition finished with a result message.
func (m *Manager) Complete(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.complete = true
		e.status = utils.StatusDone
		e.percent = 100
		e.message = message
		e.updated = time.Now()
	}
}

// Fail marks the acquisition failed.
func (m *Manager) Fail(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.complete = true
		e.err = err
		e.updated = time.Now()
	}
}

func (m *Manager) StartDisplay() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.render()
			case <-m.doneCh:
				m.render()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.wg.Wait()
	m.printSummary()
}

func (m *Manager) sorted() []*entry {
	all := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].index < all[j].index })
	return all
}

func (m *Manager) render() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, termHeight, _ := term.GetSize(int(os.Stdout.Fd()))
	if termHeight <= 0 {
		termHeight = 24
	}
	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}
	lines := 0
	for _, e := range m.sorted() {
		if lines >= termHeight-2 {
			break
		}
		fmt.Println(m.renderLine(e))
		lines++
	}
	m.numLines = lines
}

func (m *Manager) renderLine(e *entry) string {
	switch {
	case e.err != nil:
		return fmt.Sprintf("%s %s %s", errorStyle.Render(StyleSymbols["fail"]), e.label, debugStyle.Render("failed"))
	case e.complete:
		msg := e.message
		if msg == "" {
			msg = "done"
		}
		return fmt.Sprintf("%s %s %s", successStyle.Render(StyleSymbols["pass"]), e.label, debugStyle.Render(msg))
	default:
		bar := progressBar(e.percent, 30)
		return fmt.Sprintf("%s %s %s %s", pendingStyle.Render(StyleSymbols["pending"]), e.label, bar, debugStyle.Render(string(e.status)))
	}
}

// printSummary lists every failure with its classified explanation.
func (m *Manager) printSummary() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var failed []*entry
	for _, e := range m.sorted() {
		if e.err != nil {
			failed = append(failed, e)
		}
	}
	if len(failed) == 0 {
		return
	}
	PrintHeader(fmt.Sprintf("%d acquisition(s) failed", len(failed)))
	for _, e := range failed {
		PrintError(fmt.Sprintf("%s %s", StyleSymbols["fail"], e.label))
		var aerr *acquire.AcquireError
		if errors.As(e.err, &aerr) {
			tri := aerr.Triage()
			for _, code := range tri.Main {
				d := errclass.Describe(code)
				fmt.Println("   " + warningStyle.Render(d.Title+": "+d.Description))
			}
			if len(tri.Main) == 0 {
				d := errclass.Describe(errclass.Unknown)
				fmt.Println("   " + warningStyle.Render(d.Title+": "+d.Description))
			}
		} else {
			fmt.Println("   " + debugStyle.Render(e.err.Error()))
		}
	}
}

func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	bar := strings.Repeat("━", filled) + strings.Repeat(" ", width-filled)
	return fmt.Sprintf("[%s] %5.1f%%", infoStyle.Render(bar), percent)
}
