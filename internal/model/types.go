package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// StrategyRecord is the persisted form of one strategy instance.
type StrategyRecord struct {
	Kind   string             `json:"kind"`
	Params map[string]float64 `json:"params,omitempty"`
}

// PopulationSnapshot is the ordered population at the end of a generation.
type PopulationSnapshot struct {
	VersionedRecord
	ID         string           `json:"id"`
	RunID      string           `json:"run_id"`
	Generation int              `json:"generation"`
	Strategies []StrategyRecord `json:"strategies"`
}

// ClassCount is the number of individuals sharing a behavioral class.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

type GenerationDiagnostics struct {
	Generation    int          `json:"generation"`
	BestFitness   float64      `json:"best_fitness"`
	MeanFitness   float64      `json:"mean_fitness"`
	MinFitness    float64      `json:"min_fitness"`
	MedianFitness float64      `json:"median_fitness"`
	Threshold     float64      `json:"threshold"`
	Survivors     int          `json:"survivors"`
	Offspring     int          `json:"offspring"`
	Pairs         int          `json:"pairs"`
	Census        []ClassCount `json:"census,omitempty"`
}
