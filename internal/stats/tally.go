// Package stats keeps per-guild play counts keyed by track title.
package stats

import (
	"sort"
	"sync"
)

// DefaultTopN is how many entries /top shows.
const DefaultTopN = 10

// Entry is one row of a top list.
type Entry struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

type counter struct {
	count int
	seq   int
}

type guildTally struct {
	titles map[string]*counter
	next   int
}

// Tally is the in-memory play counter. Titles are identity keys, so two
// different tracks with the same title share a counter.
type Tally struct {
	mu     sync.Mutex
	guilds map[string]*guildTally
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{guilds: make(map[string]*guildTally)}
}

// RecordPlay increments the counter for title in guildID and returns the new count.
func (t *Tally) RecordPlay(guildID, title string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	g := t.guild(guildID)
	c, ok := g.titles[title]
	if !ok {
		c = &counter{seq: g.next}
		g.next++
		g.titles[title] = c
	}
	c.count++
	return c.count
}

// Top returns at most n entries sorted by count descending. Ties keep the
// order in which titles were first played.
func (t *Tally) Top(guildID string, n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.guilds[guildID]
	if !ok || n <= 0 {
		return []Entry{}
	}

	type row struct {
		Entry
		seq int
	}
	rows := make([]row, 0, len(g.titles))
	for title, c := range g.titles {
		rows = append(rows, row{Entry: Entry{Title: title, Count: c.count}, seq: c.seq})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].seq < rows[j].seq
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.Entry
	}
	return out
}

// Snapshot returns every title of guildID in first-play order.
func (t *Tally) Snapshot(guildID string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]Entry, len(g.titles))
	for title, c := range g.titles {
		out[c.seq] = Entry{Title: title, Count: c.count}
	}
	return out
}

// Restore replaces the tally of guildID with entries, keeping their order as
// first-play order.
func (t *Tally) Restore(guildID string, entries []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g := &guildTally{titles: make(map[string]*counter, len(entries))}
	for _, e := range entries {
		if c, dup := g.titles[e.Title]; dup {
			c.count += e.Count
			continue
		}
		g.titles[e.Title] = &counter{count: e.Count, seq: g.next}
		g.next++
	}
	t.guilds[guildID] = g
}

func (t *Tally) guild(guildID string) *guildTally {
	g, ok := t.guilds[guildID]
	if !ok {
		g = &guildTally{titles: make(map[string]*counter)}
		t.guilds[guildID] = g
	}
	return g
}
