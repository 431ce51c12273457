package ksv

// RevocationSet is a caller-supplied list of revoked KSVs.
//
// The engine only ever tests membership; it never retains or mutates the set.
type RevocationSet []KSV

// IsRevoked reports whether candidate is byte-for-byte equal to any entry.
// The scan stops at the first match.
func (s RevocationSet) IsRevoked(candidate KSV) bool {
	for _, k := range s {
		if k == candidate {
			return true
		}
	}
	return false
}

// FirstRevoked returns the index of the first KSV in list that appears in the
// set, or -1 if none do.
func (s RevocationSet) FirstRevoked(list []KSV) int {
	if len(s) == 0 {
		return -1
	}
	for i, k := range list {
		if s.IsRevoked(k) {
			return i
		}
	}
	return -1
}

// Len returns the number of revoked KSVs.
func (s RevocationSet) Len() int {
	return len(s)
}
