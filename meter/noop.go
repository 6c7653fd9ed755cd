package meter

import "github.com/shelfscan/shelfscan"

// NoopMeter discards all events.
type NoopMeter struct{}

var _ shelfscan.Meter = (*NoopMeter)(nil)

func (*NoopMeter) OnAttempt(shelfscan.AttemptEvent) {}
func (*NoopMeter) OnResult(shelfscan.ResultEvent)   {}
