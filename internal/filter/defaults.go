package filter

import (
	"github.com/moznion/go-optional"
)

// Defaults are the filters every strategy runs with unless it names them itself.
type Defaults struct {
	// ContractSize is the number of contracts opened per leg.
	ContractSize int
	// EntryDTM picks the entry date per contract series by days to maturity.
	EntryDTM Value
	// ExitDTM closes positions by days to maturity. None holds every exit observation.
	ExitDTM optional.Option[Value]
}

// NewDefaults returns the baseline: 10 contracts, entry around 30 days to maturity and no
// maturity-based exit.
func NewDefaults() Defaults {
	return Defaults{
		ContractSize: 10,
		EntryDTM:     Range(27, 30, 31),
		ExitDTM:      optional.None[Value](),
	}
}

// Set returns the defaults as a filter set, in declaration order.
func (d Defaults) Set() Set {
	set := NewSet(
		Entry{Name: definitions[KindContractSize].name, Spec: ValueSpec(Integer(d.ContractSize))},
		Entry{Name: definitions[KindEntryDTM].name, Spec: ValueSpec(d.EntryDTM)},
	)

	if d.ExitDTM.IsSome() {
		set.Put(definitions[KindExitDTM].name, ValueSpec(d.ExitDTM.Unwrap()))
	}

	return set
}

// Merge overlays declared on top of the defaults. A declared filter replaces the default of the
// same name at the default's position; the remaining declared filters follow in their order.
func (d Defaults) Merge(declared Set) Set {
	merged := d.Set()

	for _, e := range declared.entries {
		merged.Put(e.Name, e.Spec)
	}

	return merged
}
