// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/household-tax/pkg/advisory"
)

// FindNote finds a note by code in the notes slice.
// Returns a pointer to the note if found, nil otherwise.
func FindNote(notes []advisory.Note, code advisory.Code) *advisory.Note {
	for i := range notes {
		if notes[i].Code == code {
			return &notes[i]
		}
	}
	return nil
}

// Codes returns the codes of notes in order.
func Codes(notes []advisory.Note) []advisory.Code {
	out := make([]advisory.Code, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Code)
	}
	return out
}
