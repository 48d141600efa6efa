package ports

// Stage is an engine-owned handle to a merge/normalize stage.
type Stage interface {
	ID() string
}

// Engine is the visualization collaborator that owns the scene graph.
type Engine interface {
	// CreateMergeStage builds a stage; input may be nil when the channel has
	// no producer yet.
	CreateMergeStage(name string, input Producer, mergePartitionsOnly bool) (Stage, error)
	RebindInput(stage Stage, p Producer) error
	Reveal(stage Stage) error
}
