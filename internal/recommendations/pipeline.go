package recommendations

// Pipeline runs the full quality pass over raw LLM output: extraction,
// normalization, validation, conflict annotation, and ROI enrichment. It is
// stateless between runs; callers may share one Pipeline across goroutines as
// long as each call gets its own input.
type Pipeline struct {
	annotator *Annotator
}

// NewPipeline builds a Pipeline with the default conflict table.
func NewPipeline() *Pipeline {
	return &Pipeline{annotator: NewAnnotator(nil)}
}

// NewPipelineWithConflicts builds a Pipeline with a custom conflict table.
func NewPipelineWithConflicts(groups map[string][]string) *Pipeline {
	return &Pipeline{annotator: NewAnnotator(groups)}
}

// Process turns raw LLM text into the final enriched recommendation list.
// A hard extraction failure surfaces as ErrMalformedResponse; a response that
// parses but leaves nothing after validation surfaces as
// ErrEmptyRecommendations so callers can re-prompt instead of failing the run.
func (p *Pipeline) Process(raw string, metrics StoreMetrics) ([]Recommendation, error) {
	objects, err := ExtractObjects(raw)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeAll(objects)
	validated := Validate(normalized)
	if len(validated) == 0 {
		return nil, ErrEmptyRecommendations
	}

	annotated := p.annotator.Annotate(validated)
	for i := range annotated {
		calc, err := CalculateRealisticROI(annotated[i].ImpactScore, annotated[i].EffortScore, annotated[i].Category, metrics)
		if err != nil {
			return nil, err
		}
		annotated[i].ROI = &calc
		annotated[i].EstimatedUplift = calc.EstimatedLift
		annotated[i].EstimatedROI = calc.MonthlyRevenue + "/month"
	}
	return annotated, nil
}
