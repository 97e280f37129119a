package models

// ReferralStatus is the snapshot returned to handlers after a status refresh.
// ReferralCount is always the live count of child records, never the cached column.
type ReferralStatus struct {
	ReferralCount int64 `json:"referral_count"`
	Rewarded      bool  `json:"rewarded"`
}

// Remaining возвращает, сколько приглашений не хватает до порога.
func (s ReferralStatus) Remaining(threshold int64) int64 {
	if s.ReferralCount >= threshold {
		return 0
	}
	return threshold - s.ReferralCount
}

// LeaderboardEntry is one aggregated row of the referral leaderboard.
type LeaderboardEntry struct {
	ReferrerID  int64  `json:"referrer_id"`
	Count       int64  `json:"count"`
	DisplayName string `json:"display_name"`
}
