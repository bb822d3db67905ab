package model

// DocumentAnalysis is the six-field structured summary used as synthesis input.
// Every list field is non-empty once produced by the analyzer.
type DocumentAnalysis struct {
	Summary           string   `json:"summary" yaml:"summary"`
	KeyPoints         []string `json:"keyPoints" yaml:"key_points"`
	ImportantConcepts []string `json:"importantConcepts" yaml:"important_concepts"`
	Procedures        []string `json:"procedures" yaml:"procedures"`
	Responsibilities  []string `json:"responsibilities" yaml:"responsibilities"`
	Compliance        []string `json:"compliance" yaml:"compliance"`
}

// TextFeatures is the result of deterministic (rule-based) text analysis
type TextFeatures struct {
	Keywords []string `json:"keywords"` // Top-5 frequent words
	Numbers  []string `json:"numbers"`  // First 3 number+unit matches
	Roles    []string `json:"roles"`    // Up to 3 organizational roles
	Topics   []string `json:"topics"`   // Up to 5 operational topics
}
