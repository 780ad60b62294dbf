package squadconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Scoring ===
	s := cfg.Scoring
	weights := []struct {
		field string
		value float64
	}{
		{"scoring.form_weight", s.FormWeight},
		{"scoring.ict_weight", s.ICTWeight},
		{"scoring.fixture_weight", s.FixtureWeight},
	}
	for _, w := range weights {
		if w.value < 0 || math.IsNaN(w.value) {
			return ValidationError{w.field, "must be >= 0"}
		}
	}
	if s.FormWeight+s.ICTWeight == 0 {
		return ValidationError{"scoring", "form_weight + ict_weight must be > 0"}
	}
	if s.FormReference <= 0 {
		return ValidationError{"scoring.form_reference", "must be > 0"}
	}
	if s.ICTReference <= 0 {
		return ValidationError{"scoring.ict_reference", "must be > 0"}
	}
	if s.Horizon < 1 || s.Horizon > 38 {
		return ValidationError{"scoring.horizon", "must be in [1, 38]"}
	}
	if s.MinutesReference < 0 || s.MinutesBonus < 0 {
		return ValidationError{"scoring.minutes", "minutes_reference and minutes_bonus must be >= 0"}
	}

	// === Genetic ===
	if err := cfg.Genetic.Validate(); err != nil {
		return ValidationError{"genetic", err.Error()}
	}

	// === Random ===
	if cfg.Random.Attempts < 1 {
		return ValidationError{"random.attempts", "must be >= 1"}
	}

	// === Transfer ===
	t := cfg.Transfer
	if t.Bank < 0 {
		return ValidationError{"transfer.bank", "must be >= 0"}
	}
	if t.DoubleOutCandidates < 2 {
		return ValidationError{"transfer.double_out_candidates", "must be >= 2"}
	}
	if t.DoubleInCandidates < 1 {
		return ValidationError{"transfer.double_in_candidates", "must be >= 1"}
	}
	if t.MinDoubleGain < 0 {
		return ValidationError{"transfer.min_double_gain", "must be >= 0"}
	}
	if t.ReasoningConcurrency < 1 {
		return ValidationError{"transfer.reasoning_concurrency", "must be >= 1"}
	}

	return nil
}

// Warnings returns recommendation violations (경고만, 실행은 계속)
func Warnings(cfg *Config) []Warning {
	var warnings []Warning

	s := cfg.Scoring
	if sum := s.FormWeight + s.ICTWeight; math.Abs(sum-0.8) > 1e-6 && math.Abs(sum-1.0) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "SCORING_WEIGHTS",
			Message: fmt.Sprintf("form_weight + ict_weight = %.2f, scores are not comparable with the default scale", sum),
		})
	}

	g := cfg.Genetic
	if g.PopulationSize < 50 {
		warnings = append(warnings, Warning{
			Code:    "GENETIC_SMALL_POPULATION",
			Message: fmt.Sprintf("population_size %d is small, results vary a lot between seeds", g.PopulationSize),
		})
	}
	if g.MutationRate == 0 {
		warnings = append(warnings, Warning{
			Code:    "GENETIC_NO_MUTATION",
			Message: "mutation_rate 0 relies on crossover alone",
		})
	}

	if cfg.Transfer.IncludeBank && cfg.Transfer.Bank == 0 {
		warnings = append(warnings, Warning{
			Code:    "TRANSFER_EMPTY_BANK",
			Message: "include_bank is set but bank is 0",
		})
	}

	return warnings
}
