package rules

// CanonicalPair orders two user ids so an unordered relationship maps to a
// single storage key: (A,B) and (B,A) collide on (low,high).
func CanonicalPair(userA, userB int64) (int64, int64) {
	if userA > userB {
		return userB, userA
	}
	return userA, userB
}
