package contracts

// Transfer is a single swap recommendation
type Transfer struct {
	Out       ScoredPlayer `json:"out"`
	In        ScoredPlayer `json:"in"`
	ScoreGain float64      `json:"score_gain"`
	Reason    string       `json:"reason"`
}

// CostDelta is the incoming minus outgoing price
func (t Transfer) CostDelta() Cost {
	return t.In.Cost - t.Out.Cost
}

// DoubleTransfer is a paired swap; Out[i] is replaced by In[i]
type DoubleTransfer struct {
	Out         [2]ScoredPlayer `json:"out"`
	In          [2]ScoredPlayer `json:"in"`
	ScoreGain   float64         `json:"score_gain"`
	Cost        Cost            `json:"cost"`         // 영입 두 명 합계
	FreedBudget Cost            `json:"freed_budget"` // 방출 두 명 합계 (+ bank)
	Reason      string          `json:"reason"`
}

// CaptainPick holds the armband suggestions; either may be nil
type CaptainPick struct {
	Captain     *ScoredPlayer `json:"captain"`
	ViceCaptain *ScoredPlayer `json:"vice_captain"`
}

// SquadAnalysis is the full recommendation set for a held squad
type SquadAnalysis struct {
	Captain        CaptainPick     `json:"captain"`
	Transfers      []Transfer      `json:"transfers"`
	DoubleTransfer *DoubleTransfer `json:"double_transfer,omitempty"`
	Lineup         *Lineup         `json:"lineup,omitempty"`
	SquadScore     float64         `json:"squad_score"`
}
