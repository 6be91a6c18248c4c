package database

import (
	"context"
	"strconv"

	"github.com/ardanlabs/autochain/foundation/blockchain/signature"
)

// ValidProof checks that the hash of the last proof, the proof and the last
// hash, concatenated as text, starts with difficulty 0's.
func ValidProof(lastProof uint64, proof uint64, lastHash string, difficulty uint) bool {
	guess := strconv.FormatUint(lastProof, 10) + strconv.FormatUint(proof, 10) + lastHash
	return isHashSolved(difficulty, signature.Digest([]byte(guess)))
}

// Solve performs the work of mining. Candidate proofs are tried in order
// starting at 0 until one satisfies ValidProof, so the result is the
// smallest valid proof. There is no upper bound on the search, it only
// ends early when the context is cancelled.
func Solve(ctx context.Context, lastProof uint64, lastHash string, difficulty uint, ev func(v string, args ...any)) (uint64, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: Solve: MINING: started: lastProof[%d]: difficulty[%d]", lastProof, difficulty)
	defer ev("database: Solve: MINING: completed")

	var proof uint64
	for {
		if proof%1_000_000 == 0 && proof > 0 {
			ev("database: Solve: MINING: attempts[%d]", proof)
		}

		// Did we get cancelled trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: Solve: MINING: CANCELLED: attempts[%d]", proof)
			return 0, ctx.Err()
		}

		if ValidProof(lastProof, proof, lastHash, difficulty) {
			ev("database: Solve: MINING: SOLVED: proof[%d]", proof)
			return proof, nil
		}

		proof++
	}
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if difficulty > uint(len(hash)) {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}
