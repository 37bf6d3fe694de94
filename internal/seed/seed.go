// Package seed loads the default reference data - shift catalog, demo
// guard roster, initial user directory, and built-in report templates -
// from an embedded CUE document. CUE gives the catalog a schema (time
// patterns, role enums, non-empty ids) enforced at load time instead of
// scattered runtime checks.
package seed

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/guardianhq/guardian/internal/state"
)

//go:embed schema.cue
var schemaCUE string

//go:embed seed.cue
var seedCUE string

// Data is the decoded default reference data.
type Data struct {
	Shifts    []state.Shift          `json:"shifts"`
	Guards    []state.Guard          `json:"guards"`
	Users     []state.User           `json:"users"`
	Templates []state.ReportTemplate `json:"templates"`
}

// Load compiles and validates the embedded catalog. The shift list must
// contain the off-duty sentinel; everything else is the CUE schema's job.
func Load() (Data, error) {
	return loadSource(seedCUE)
}

// loadSource unifies a data document with the embedded schema, validates
// that everything is concrete, and decodes it.
func loadSource(src string) (Data, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE + "\n" + src)
	if err := v.Err(); err != nil {
		return Data{}, fmt.Errorf("compile seed data: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Data{}, fmt.Errorf("validate seed data: %w", err)
	}

	var data Data
	if err := v.Decode(&data); err != nil {
		return Data{}, fmt.Errorf("decode seed data: %w", err)
	}

	if !hasShift(data.Shifts, state.ShiftOff) {
		return Data{}, fmt.Errorf("seed data missing the %q sentinel shift", state.ShiftOff)
	}
	return data, nil
}

func hasShift(shifts []state.Shift, id string) bool {
	for _, sh := range shifts {
		if sh.ID == id {
			return true
		}
	}
	return false
}
