// Package report derives dashboard views from ledger rows alone.
package report

import (
	"cmp"
	"slices"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/naming"
	"github.com/okian/rollcall/internal/domain/similarity"
	"github.com/okian/rollcall/internal/domain/types"
)

// scoreDesc orders rows by score, highest first; missing scores sort last.
// Ties fall back to player name so views are stable.
func scoreDesc(a, b *model.EventRecord) int {
	if c := cmp.Compare(scoreOf(b), scoreOf(a)); c != 0 {
		return c
	}
	return cmp.Compare(a.PlayerName, b.PlayerName)
}

func scoreOf(r *model.EventRecord) int64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

func playerID(r *model.EventRecord) string {
	if r.Ghost() {
		return model.UnmatchedPlayerID
	}
	return *r.PlayerID
}

// EventDetail lists the rows of one event day with ranks recalculated by score.
// rows are expected to share event and day.
func EventDetail(rows []*model.EventRecord) types.EventDetail {
	var d types.EventDetail
	if len(rows) == 0 {
		return d
	}
	d.EventName, d.EventType, d.Day = rows[0].EventName, rows[0].EventType, rows[0].DayKey

	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, scoreDesc)

	d.Players = make([]types.PlayerResult, 0, len(sorted))
	for i, r := range sorted {
		tag, name, _ := naming.ParseTag(r.PlayerName)
		d.Players = append(d.Players, types.PlayerResult{
			CalculatedRank:    i + 1,
			PlayerName:        name,
			AllianceTag:       tag,
			PlayerID:          playerID(r),
			Matched:           !r.Ghost(),
			Rank:              r.Rank,
			RankInferred:      r.RankInferred,
			Score:             r.Score,
			OCRConfidence:     similarity.Round2(r.OCRConfidence),
			VerificationCount: r.VerificationCount,
			DataConfidence:    r.DataConfidence,
			ImageSource:       r.ImageSource,
		})
		d.TotalScore += scoreOf(r)
		if r.Ghost() {
			d.Ghosts++
		} else {
			d.Matched++
		}
	}
	return d
}

// calculatedRanks maps each row to its score rank within its event day.
func calculatedRanks(rows []*model.EventRecord) map[*model.EventRecord]int {
	byEvent := map[[2]string][]*model.EventRecord{}
	for _, r := range rows {
		k := [2]string{r.EventName, r.DayKey}
		byEvent[k] = append(byEvent[k], r)
	}
	ranks := make(map[*model.EventRecord]int, len(rows))
	for _, group := range byEvent {
		slices.SortFunc(group, scoreDesc)
		for i, r := range group {
			ranks[r] = i + 1
		}
	}
	return ranks
}

// Ghosts aggregates unmatched rows by player name, most appearances first.
func Ghosts(rows []*model.EventRecord) []types.GhostPlayer {
	ranks := calculatedRanks(rows)
	byName := map[string]*types.GhostPlayer{}
	verifications := map[string]int{}

	for _, r := range rows {
		if !r.Ghost() {
			continue
		}
		g, ok := byName[r.PlayerName]
		if !ok {
			tag, _, _ := naming.ParseTag(r.PlayerName)
			g = &types.GhostPlayer{PlayerName: r.PlayerName, AllianceTag: tag}
			byName[r.PlayerName] = g
		}
		g.Appearances++
		g.TotalScore += scoreOf(r)
		if r.Score != nil && (g.BestScore == nil || *r.Score > *g.BestScore) {
			g.BestScore = model.Int64Ptr(*r.Score)
		}
		if rk := ranks[r]; g.BestRank == nil || rk < *g.BestRank {
			g.BestRank = model.IntPtr(rk)
		}
		if r.UpdatedAt.After(g.LastSeen) {
			g.LastSeen = r.UpdatedAt
		}
		event := model.EventSessionKey(r.EventName, r.EventDate)
		if !slices.Contains(g.Events, event) {
			g.Events = append(g.Events, event)
		}
		verifications[r.PlayerName] += r.VerificationCount
	}

	out := make([]types.GhostPlayer, 0, len(byName))
	for name, g := range byName {
		g.AvgVerification = similarity.Round2(float64(verifications[name]) / float64(g.Appearances))
		slices.Sort(g.Events)
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b types.GhostPlayer) int {
		if c := cmp.Compare(b.Appearances, a.Appearances); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerName, b.PlayerName)
	})
	return out
}

// TopPlayers ranks players by total score across all rows.
func TopPlayers(rows []*model.EventRecord, limit int) []types.TopPlayer {
	ranks := calculatedRanks(rows)
	byName := map[string]*types.TopPlayer{}
	events := map[string]map[string]struct{}{}
	verifications := map[string]int{}

	for _, r := range rows {
		p, ok := byName[r.PlayerName]
		if !ok {
			tag, name, _ := naming.ParseTag(r.PlayerName)
			p = &types.TopPlayer{PlayerName: name, AllianceTag: tag, PlayerID: model.UnmatchedPlayerID}
			byName[r.PlayerName] = p
			events[r.PlayerName] = map[string]struct{}{}
		}
		if !r.Ghost() {
			p.PlayerID = *r.PlayerID
		}
		p.TotalScore += scoreOf(r)
		if rk := ranks[r]; p.BestRank == nil || rk < *p.BestRank {
			p.BestRank = model.IntPtr(rk)
		}
		events[r.PlayerName][model.EventSessionKey(r.EventName, r.EventDate)] = struct{}{}
		verifications[r.PlayerName] += r.VerificationCount
	}

	out := make([]types.TopPlayer, 0, len(byName))
	for key, p := range byName {
		p.EventCount = len(events[key])
		p.AvgVerification = similarity.Round2(float64(verifications[key]) / float64(p.EventCount))
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b types.TopPlayer) int {
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerName, b.PlayerName)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Verification buckets rows by how many sessions confirmed them.
func Verification(rows []*model.EventRecord) types.VerificationStats {
	s := types.VerificationStats{TotalRecords: len(rows)}
	if len(rows) == 0 {
		return s
	}
	total := 0.0
	for _, r := range rows {
		switch {
		case r.VerificationCount >= 3:
			s.High++
		case r.VerificationCount == 2:
			s.Medium++
		default:
			s.Low++
		}
		total += r.DataConfidence
	}
	s.AvgConfidence = similarity.Round2(total / float64(len(rows)))
	return s
}
