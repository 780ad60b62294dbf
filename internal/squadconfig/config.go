package squadconfig

import (
	"github.com/wonny/fpl-squad/backend/internal/scoring"
	"github.com/wonny/fpl-squad/backend/internal/squad"
	"github.com/wonny/fpl-squad/backend/internal/transfer"
)

// Config는 스쿼드 최적화 전체 튜닝 설정
type Config struct {
	Scoring  scoring.Config      `yaml:"scoring" json:"scoring"`
	Genetic  squad.GeneticConfig `yaml:"genetic" json:"genetic"`
	Random   Random              `yaml:"random" json:"random"`
	Transfer transfer.Config     `yaml:"transfer" json:"transfer"`
}

// Random 랜덤 빌더 설정
type Random struct {
	Attempts int `yaml:"attempts" json:"attempts"` // 탐욕 패스 시도 횟수
}

// Default returns the built-in tuning used when no file is given
func Default() *Config {
	return &Config{
		Scoring:  scoring.DefaultConfig(),
		Genetic:  squad.DefaultGeneticConfig(),
		Random:   Random{Attempts: 100},
		Transfer: transfer.DefaultConfig(),
	}
}
