package config

// EvaluationConfig controls evaluation access checks.
type EvaluationConfig struct {
	// RequireCheckIn requires attendees to have checked in before they can
	// view or answer an evaluation. When false, registration is sufficient.
	RequireCheckIn bool `env:"EVALUATION_REQUIRE_CHECK_IN" envDefault:"false"`
}
