package rules

const (
	fileA uint64 = 0x0101010101010101
	fileB        = fileA << 1
	fileG        = fileA << 6
	fileH        = fileA << 7

	notAFile  = ^fileA
	notHFile  = ^fileH
	notABFile = ^(fileA | fileB)
	notGHFile = ^(fileG | fileH)
)

// Empty-board attack and push tables, indexed [color][square] for pawns.
var (
	pawnAttacks   [2][64]uint64
	pawnPushes    [2][64]uint64
	knightAttacks [64]uint64
	kingAttacks   [64]uint64
)

func init() {
	initPawnTables()
	initKnightAttacks()
	initKingAttacks()
}

func initPawnTables() {
	for sq := 0; sq < 64; sq++ {
		bb := uint64(1) << uint(sq)
		file, rank := sq&7, sq>>3

		if rank < 7 {
			if file > 0 {
				pawnAttacks[0][sq] |= bb << 7
			}
			if file < 7 {
				pawnAttacks[0][sq] |= bb << 9
			}
			pawnPushes[0][sq] = bb << 8
			if rank == 1 {
				pawnPushes[0][sq] |= bb << 16
			}
		}
		if rank > 0 {
			if file < 7 {
				pawnAttacks[1][sq] |= bb >> 7
			}
			if file > 0 {
				pawnAttacks[1][sq] |= bb >> 9
			}
			pawnPushes[1][sq] = bb >> 8
			if rank == 6 {
				pawnPushes[1][sq] |= bb >> 16
			}
		}
	}
}

func initKnightAttacks() {
	for sq := 0; sq < 64; sq++ {
		bb := uint64(1) << uint(sq)
		var a uint64
		a |= (bb << 17) & notAFile
		a |= (bb << 15) & notHFile
		a |= (bb << 10) & notABFile
		a |= (bb << 6) & notGHFile
		a |= (bb >> 6) & notABFile
		a |= (bb >> 10) & notGHFile
		a |= (bb >> 15) & notAFile
		a |= (bb >> 17) & notHFile
		knightAttacks[sq] = a
	}
}

func initKingAttacks() {
	for sq := 0; sq < 64; sq++ {
		bb := uint64(1) << uint(sq)
		var a uint64
		a |= (bb << 9) & notAFile
		a |= bb << 8
		a |= (bb << 7) & notHFile
		a |= (bb << 1) & notAFile
		a |= (bb >> 1) & notHFile
		a |= (bb >> 7) & notAFile
		a |= bb >> 8
		a |= (bb >> 9) & notHFile
		kingAttacks[sq] = a
	}
}
