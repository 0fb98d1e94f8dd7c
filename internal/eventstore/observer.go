package eventstore

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/observability"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

const appendTimeout = 5 * time.Second

// Observer appends run events to a Store and, when set, applies them to a
// projection. Append failures are logged and never affect the run.
type Observer struct {
	Store      Store
	Projection *RunHistoryProjection
	now        func() time.Time
}

// NewObserver creates an event-log observer.
func NewObserver(store Store, projection *RunHistoryProjection) *Observer {
	return &Observer{Store: store, Projection: projection, now: time.Now}
}

func (o *Observer) record(ec *models.ExecutionContext, event *BaseEvent, err error) {
	ctx := context.Background()
	if ec != nil {
		ctx = observability.WithRunID(ctx, ec.RunID)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to build run event", logfields.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()
	if err := o.Store.Append(ctx, event.RunID(), event.Type(), event.Timestamp(), event.Payload(), event.Metadata()); err != nil {
		observability.WarnContext(ctx, "Failed to append run event",
			slog.String("event_type", event.Type()),
			logfields.Error(err))
		return
	}
	if o.Projection != nil {
		o.Projection.Apply(event)
	}
}

func (o *Observer) OnRunStart(ec *models.ExecutionContext) {
	ev, err := NewRunStarted(ec)
	o.record(ec, ev, err)
}

func (o *Observer) OnStageStart(_ *models.ExecutionContext, _ models.StageID) {}

func (o *Observer) OnStageComplete(ec *models.ExecutionContext, result models.StageResult) {
	ev, err := NewStageEvent(ec.RunID, result)
	o.record(ec, ev, err)
}

func (o *Observer) OnMaterialize(ec *models.ExecutionContext, entityID string, matErr error) {
	ev, err := NewArticleMaterialized(ec.RunID, o.now(), entityID, matErr)
	o.record(ec, ev, err)
}

func (o *Observer) OnRunComplete(ec *models.ExecutionContext, result *models.RunResult) {
	if result == nil {
		return
	}
	ev, err := NewRunCompleted(result)
	o.record(ec, ev, err)
}
