package module

// InstanceTable is the mutable id→name enumeration shared between the
// dispatcher, which replaces it wholesale on every refresh, and the
// owning module, which keeps a back-reference for instance bookkeeping.
// Calls are serial, so no locking.
type InstanceTable struct {
	byID map[int]string
}

// NewInstanceTable returns an empty table.
func NewInstanceTable() *InstanceTable {
	return &InstanceTable{byID: make(map[int]string)}
}

// Replace swaps the table contents for the given enumeration. Previous
// entries are dropped, not merged.
func (t *InstanceTable) Replace(instances map[int]string) {
	t.byID = make(map[int]string, len(instances))
	for id, name := range instances {
		t.byID[id] = name
	}
}

// Name returns the name for an instance id, if present.
func (t *InstanceTable) Name(id int) (string, bool) {
	name, ok := t.byID[id]
	return name, ok
}

// Len returns the number of instances currently enumerated.
func (t *InstanceTable) Len() int { return len(t.byID) }

// Snapshot returns a copy of the current enumeration.
func (t *InstanceTable) Snapshot() map[int]string {
	out := make(map[int]string, len(t.byID))
	for id, name := range t.byID {
		out[id] = name
	}
	return out
}
