package model

// Prediction is the analysis of one participant.
type Prediction struct {
	ParticipantName string  `json:"horseName"`
	Gate            int     `json:"gate,omitempty"`
	WinProbability  float64 `json:"winProbability"`
	Reasoning       string  `json:"reasoning"`
	// PredictedPosition is one of lead, forward, midfield, backend.
	PredictedPosition string `json:"predictedPosition,omitempty"`
	StarRating        int    `json:"starRating"`
	KeyFactor         string `json:"keyFactor"`
	RiskFactor        string `json:"riskFactor"`
}

// Betting holds recommended combinations.
type Betting struct {
	TopFive      []string `json:"topFiveNames"`
	Quinella     []string `json:"quinella"`
	Trio         []string `json:"trio"`
	StrategyNote string   `json:"strategyNote"`
}

// Source is a reference consulted while producing a Result.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Result is the output of a per-event analysis.
type Result struct {
	Summary               string       `json:"summary"`
	PaceAnalysis          string       `json:"paceAnalysis"`
	Predictions           []Prediction `json:"predictions"`
	Betting               Betting      `json:"bettingRecommendations"`
	ConfidenceScore       int          `json:"confidenceScore"`
	KeyVariable           string       `json:"keyVariable"`
	Sources               []Source     `json:"sources,omitempty"`
	AppliedWeather        string       `json:"appliedWeather"`
	AppliedTrackCondition string       `json:"appliedTrackCondition"`
}
