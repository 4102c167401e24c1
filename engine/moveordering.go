package engine

import (
	"hpchess/oracle"
)

/*
	Move ordering only has to bring captures to the front so alpha-beta finds
	its cutoffs early. Within the capture and quiet groups the generator's
	order is kept, so the ordering is stable and the search deterministic.
*/
func orderMoves(moves []oracle.Move) []oracle.Move {
	ordered := make([]oracle.Move, 0, len(moves))
	for _, m := range moves {
		if m.IsCapture() {
			ordered = append(ordered, m)
		}
	}
	for _, m := range moves {
		if !m.IsCapture() {
			ordered = append(ordered, m)
		}
	}
	return ordered
}
