package depot

import (
	"slices"

	"github.com/TheBitDrifter/mask"
)

// Signature is the canonical cache key of a set of component types: one bit per type id.
// The order and repetition of the requested types do not change it.
type Signature = mask.Mask

// signatureOf returns the signature of ids and the canonical form of the set: ascending
// and without duplicates. ids is not modified.
func signatureOf(ids []TypeID) (Signature, []TypeID) {
	var sig Signature
	canonical := slices.Clone(ids)
	for _, id := range ids {
		sig.Mark(uint32(id))
	}
	slices.Sort(canonical)
	return sig, slices.Compact(canonical)
}
