package oracle

// Perft counts the leaf nodes of the legal move tree to the given depth. It
// walks the tree through Push so it also exercises the undo stack.
func Perft(b *Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := b.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		undo := b.Push(m)
		nodes += Perft(b, depth-1)
		undo()
	}
	return nodes
}

// PerftDivide returns the perft count below each root move, keyed by move text.
func PerftDivide(b *Board, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth <= 0 {
		return out
	}
	for _, m := range b.LegalMoves() {
		undo := b.Push(m)
		out[m.String()] = Perft(b, depth-1)
		undo()
	}
	return out
}
