package symtab

import (
	"fmt"

	"ember/internal/types"
)

type Entry struct {
	Name string
	Type types.Datatype
}

// Table maps identifiers to entry ids. Entries are appended and never
// removed, so an id stays valid for the lifetime of the table.
type Table struct {
	entries []Entry
	index   map[string]int
}

func New() *Table {
	return &Table{index: map[string]int{}}
}

// Add returns the id for name, creating an entry when the name is new.
// The type of an existing entry is left untouched.
func (t *Table) Add(name string, dt types.Datatype) int {
	if id, ok := t.index[name]; ok {
		return id
	}
	id := len(t.entries)
	t.entries = append(t.entries, Entry{Name: name, Type: dt})
	t.index[name] = id
	return id
}

func (t *Table) Get(name string) (int, bool) {
	id, ok := t.index[name]
	return id, ok
}

// Lookup panics on an id the table never handed out.
func (t *Table) Lookup(id int) Entry {
	if id < 0 || id >= len(t.entries) {
		panic(fmt.Sprintf("symtab: entry id %d out of range [0,%d)", id, len(t.entries)))
	}
	return t.entries[id]
}

func (t *Table) Name(id int) string {
	return t.Lookup(id).Name
}

// SetType patches the datatype of an entry, used once a function's return
// type has been parsed.
func (t *Table) SetType(id int, dt types.Datatype) {
	t.Lookup(id)
	t.entries[id].Type = dt
}

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
