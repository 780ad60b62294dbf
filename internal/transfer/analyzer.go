package transfer

import (
	"context"
	"errors"
	"sort"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/squad"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// ErrEmptySquad is returned when there is nothing to analyze
var ErrEmptySquad = errors.New("held squad is empty")

// Config tunes the transfer search
type Config struct {
	// IncludeBank adds Bank to the budget freed by each sale
	IncludeBank bool           `yaml:"include_bank" json:"include_bank"`
	Bank        contracts.Cost `yaml:"bank" json:"bank"`

	DoubleOutCandidates int     `yaml:"double_out_candidates" json:"double_out_candidates"` // k: 가성비 하위 k명만 방출 후보
	DoubleInCandidates  int     `yaml:"double_in_candidates" json:"double_in_candidates"`   // m: 첫 슬롯 상위 m명
	MinDoubleGain       float64 `yaml:"min_double_gain" json:"min_double_gain"`

	ReasoningConcurrency int `yaml:"reasoning_concurrency" json:"reasoning_concurrency"`
}

// DefaultConfig returns k=8, m=20 and no bank
func DefaultConfig() Config {
	return Config{
		DoubleOutCandidates:  8,
		DoubleInCandidates:   20,
		MinDoubleGain:        0,
		ReasoningConcurrency: 8,
	}
}

// Recorder receives suggestion counts (pkg/metrics.Manager satisfies it)
type Recorder interface {
	ObserveSuggestions(kind string, n int)
	ReasoningFailed()
}

// Analyzer recommends captaincy and transfers for a held squad
type Analyzer struct {
	held     contracts.Squad
	rules    squad.Rules
	cfg      Config
	log      *logger.Logger
	reasoner contracts.ReasonGenerator
	recorder Recorder

	// 보유하지 않은 후보, 포지션별 점수 내림차순
	candidates map[contracts.Category][]contracts.ScoredPlayer
}

// NewAnalyzer indexes the pool against the held squad
func NewAnalyzer(held contracts.Squad, pool []contracts.ScoredPlayer, rules squad.Rules, cfg Config, log *logger.Logger) *Analyzer {
	a := &Analyzer{
		held:       held.Clone(),
		rules:      rules,
		cfg:        cfg,
		log:        log.Component("transfer"),
		candidates: make(map[contracts.Category][]contracts.ScoredPlayer),
	}

	seen := make(map[int]bool, len(pool))
	for _, p := range pool {
		if held.Contains(p.ID) || seen[p.ID] || !p.Category.Valid() {
			continue
		}
		seen[p.ID] = true
		a.candidates[p.Category] = append(a.candidates[p.Category], p)
	}
	for _, list := range a.candidates {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Score != list[j].Score {
				return list[i].Score > list[j].Score
			}
			return list[i].ID < list[j].ID
		})
	}
	return a
}

// WithReasoner attaches the reasoning text collaborator
func (a *Analyzer) WithReasoner(r contracts.ReasonGenerator) *Analyzer {
	a.reasoner = r
	return a
}

// WithRecorder attaches a metrics recorder
func (a *Analyzer) WithRecorder(r Recorder) *Analyzer {
	a.recorder = r
	return a
}

func (a *Analyzer) freed(out ...contracts.ScoredPlayer) contracts.Cost {
	var total contracts.Cost
	for _, p := range out {
		total += p.Cost
	}
	if a.cfg.IncludeBank {
		total += a.cfg.Bank
	}
	return total
}

// SuggestCaptain picks the two highest scorers; either may be nil
func (a *Analyzer) SuggestCaptain() contracts.CaptainPick {
	ranked := a.held.Clone()
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var pick contracts.CaptainPick
	if len(ranked) > 0 {
		captain := ranked[0]
		pick.Captain = &captain
	}
	if len(ranked) > 1 {
		vice := ranked[1]
		pick.ViceCaptain = &vice
	}
	return pick
}

// SuggestTransfers returns up to n improving single swaps, best gain first.
// No player id appears in more than one suggestion, in either role.
func (a *Analyzer) SuggestTransfers(n int) []contracts.Transfer {
	if n <= 0 {
		return nil
	}

	teams := a.held.CountByTeam()
	var pairs []contracts.Transfer
	for _, out := range a.held {
		budget := a.freed(out)
		teams[out.Team]--
		for _, in := range a.candidates[out.Category] {
			gain := in.Score - out.Score
			if gain <= 0 {
				break // 점수 내림차순
			}
			if in.Cost > budget || teams[in.Team] >= a.rules.TeamCap {
				continue
			}
			pairs = append(pairs, contracts.Transfer{Out: out, In: in, ScoreGain: gain})
		}
		teams[out.Team]++
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].ScoreGain != pairs[j].ScoreGain {
			return pairs[i].ScoreGain > pairs[j].ScoreGain
		}
		if pairs[i].Out.ID != pairs[j].Out.ID {
			return pairs[i].Out.ID < pairs[j].Out.ID
		}
		return pairs[i].In.ID < pairs[j].In.ID
	})

	used := make(map[int]bool)
	var selected []contracts.Transfer
	for _, t := range pairs {
		if len(selected) == n {
			break
		}
		if used[t.Out.ID] || used[t.In.ID] {
			continue
		}
		used[t.Out.ID] = true
		used[t.In.ID] = true
		selected = append(selected, t)
	}
	return selected
}

// SuggestDoubleTransfer searches paired swaps among the k worst-value
// members, pruning the first slot to the top m candidates. Nil when no
// pair beats MinDoubleGain.
func (a *Analyzer) SuggestDoubleTransfer() *contracts.DoubleTransfer {
	outs := a.weakestByValue(a.cfg.DoubleOutCandidates)

	var best *contracts.DoubleTransfer
	for i := 0; i < len(outs); i++ {
		for j := i + 1; j < len(outs); j++ {
			for _, order := range [][2]contracts.ScoredPlayer{{outs[i], outs[j]}, {outs[j], outs[i]}} {
				if cand := a.bestPairFor(order[0], order[1]); cand != nil {
					if best == nil || cand.ScoreGain > best.ScoreGain {
						best = cand
					}
				}
			}
		}
	}

	if best == nil || best.ScoreGain <= a.cfg.MinDoubleGain || best.ScoreGain <= 0 {
		return nil
	}
	return best
}

// bestPairFor replaces first then second; the first slot is limited to the
// top m candidates, the second takes the best affordable partner
func (a *Analyzer) bestPairFor(first, second contracts.ScoredPlayer) *contracts.DoubleTransfer {
	freed := a.freed(first, second)
	teams := a.held.CountByTeam()
	teams[first.Team]--
	teams[second.Team]--

	firstPool := a.candidates[first.Category]
	if m := a.cfg.DoubleInCandidates; m > 0 && len(firstPool) > m {
		firstPool = firstPool[:m]
	}

	var best *contracts.DoubleTransfer
	for _, in1 := range firstPool {
		if in1.Cost > freed || teams[in1.Team] >= a.rules.TeamCap {
			continue
		}
		remaining := freed - in1.Cost
		teams[in1.Team]++

		for _, in2 := range a.candidates[second.Category] {
			if in2.ID == in1.ID || in2.Cost > remaining || teams[in2.Team] >= a.rules.TeamCap {
				continue
			}
			gain := in1.Score + in2.Score - first.Score - second.Score
			if best == nil || gain > best.ScoreGain {
				best = &contracts.DoubleTransfer{
					Out:         [2]contracts.ScoredPlayer{first, second},
					In:          [2]contracts.ScoredPlayer{in1, in2},
					ScoreGain:   gain,
					Cost:        in1.Cost + in2.Cost,
					FreedBudget: freed,
				}
			}
			break // 점수 내림차순이므로 첫 적격 후보가 최선
		}

		teams[in1.Team]--
	}
	return best
}

// weakestByValue returns the k members with the lowest score per cost
func (a *Analyzer) weakestByValue(k int) []contracts.ScoredPlayer {
	ranked := a.held.Clone()
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := ranked[i].ValuePerCost(), ranked[j].ValuePerCost()
		if vi != vj {
			return vi < vj
		}
		return ranked[i].ID < ranked[j].ID
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Analyze runs every suggestion and attaches reasoning text concurrently
func (a *Analyzer) Analyze(ctx context.Context, n int) (*contracts.SquadAnalysis, error) {
	if len(a.held) == 0 {
		return nil, ErrEmptySquad
	}

	analysis := &contracts.SquadAnalysis{
		Captain:        a.SuggestCaptain(),
		Transfers:      a.SuggestTransfers(n),
		DoubleTransfer: a.SuggestDoubleTransfer(),
		SquadScore:     a.held.TotalScore(),
	}

	if lineup, err := squad.BestLineup(a.held, a.rules.Formations); err == nil {
		analysis.Lineup = lineup
	} else {
		a.log.WithError(err).Debug("held squad has no legal formation")
	}

	if a.recorder != nil {
		a.recorder.ObserveSuggestions("single", len(analysis.Transfers))
		if analysis.DoubleTransfer != nil {
			a.recorder.ObserveSuggestions("double", 1)
		}
	}

	if a.reasoner != nil {
		a.attachReasons(ctx, analysis)
	}

	a.log.WithFields(map[string]interface{}{
		"transfers": len(analysis.Transfers),
		"double":    analysis.DoubleTransfer != nil,
	}).Info("squad analyzed")

	return analysis, nil
}
