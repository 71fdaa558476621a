package enums

import "strings"

type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierGold    Tier = "gold"
)

func ParseTier(input string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(input))) {
	case TierFree:
		return TierFree, true
	case TierBasic:
		return TierBasic, true
	case TierPremium:
		return TierPremium, true
	case TierGold:
		return TierGold, true
	default:
		return "", false
	}
}
