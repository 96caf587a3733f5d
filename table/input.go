package table

import (
	"fmt"
	"strings"
)

// Input is the star list of a run. Columns other than the identifier are
// carried through to the raw table.
type Input struct {
	Extra []string
	Rows  []InputRow
}

// InputRow is one star of the input list.
type InputRow struct {
	ID string
	// Extra holds the passthrough values, aligned with Input.Extra.
	Extra []string
}

// ExtraMap returns the passthrough values of r keyed by column.
func (in Input) ExtraMap(r InputRow) map[string]string {
	m := make(map[string]string, len(in.Extra))
	for i, c := range in.Extra {
		if i < len(r.Extra) {
			m[c] = r.Extra[i]
		}
	}
	return m
}

// ReadInput reads the input star list. The identifier column is TIC, or ID
// when there is no TIC column; its name is matched case-insensitively.
// Identifiers are trimmed and rows without one are dropped.
func ReadInput(path string) (Input, error) {
	fr, err := ReadFrame(path)
	if err != nil {
		return Input{}, err
	}
	return inputFromFrame(fr)
}

func inputFromFrame(fr Frame) (Input, error) {
	idCol := -1
	for _, want := range []string{"tic", "id"} {
		for i, h := range fr.Header {
			if strings.EqualFold(h, want) {
				idCol = i
				break
			}
		}
		if idCol >= 0 {
			break
		}
	}
	if idCol < 0 {
		return Input{}, fmt.Errorf("%w (header %v)", ErrMissingIDColumn, fr.Header)
	}

	var in Input
	keep := make([]int, 0, len(fr.Header))
	for i, h := range fr.Header {
		if i == idCol || h == "" {
			continue
		}
		if _, _, ok := ParseSectorColumn(h); ok {
			continue
		}
		keep = append(keep, i)
		in.Extra = append(in.Extra, h)
	}

	for _, rec := range fr.Records {
		id := strings.TrimSpace(rec[idCol])
		if id == "" {
			continue
		}
		row := InputRow{ID: id, Extra: make([]string, len(keep))}
		for j, i := range keep {
			row.Extra[j] = rec[i]
		}
		in.Rows = append(in.Rows, row)
	}
	return in, nil
}
