package logger

const (
	Main       = "main"
	Engine     = "engine"
	Validation = "engine.validation"
	Drift      = "engine.drift"
	Events     = "events"
	Source     = "source"
	Exporter   = "exporter"
	Reconciler = "reconciler"
)
