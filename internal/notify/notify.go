// Package notify publishes run lifecycle notifications to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/observability"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// Subject suffixes appended to the configured prefix.
const (
	SubjectRunStarted   = "run.started"
	SubjectStage        = "stage" // followed by the stage status
	SubjectMaterialized = "article.materialized"
	SubjectRunCompleted = "run.completed"
)

const defaultTimeout = 5 * time.Second

// Publisher sends one message. msgID identifies the message for de-duplication
// where the transport supports it.
type Publisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
	Close() error
}

// Message is the JSON body of every notification.
type Message struct {
	Event      string              `json:"event"`
	RunID      string              `json:"run_id"`
	TenantID   string              `json:"tenant_id,omitempty"`
	Keyword    string              `json:"keyword,omitempty"`
	ProductRef string              `json:"product_ref,omitempty"`
	Stage      *models.StageResult `json:"stage,omitempty"`
	EntityID   string              `json:"entity_id,omitempty"`
	Error      string              `json:"error,omitempty"`
	Status     models.RunStatus    `json:"status,omitempty"`
	Progress   *int                `json:"progress,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Notifier is a models.RunObserver that publishes run events. Publish
// failures are logged and never affect the run.
type Notifier struct {
	pub     Publisher
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewNotifier creates a Notifier publishing under prefix.
func NewNotifier(pub Publisher, prefix string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		pub:     pub,
		prefix:  strings.TrimSuffix(prefix, "."),
		timeout: timeout,
		now:     time.Now,
	}
}

// Subject returns the full subject for suffix.
func (n *Notifier) Subject(suffix string) string {
	if n.prefix == "" {
		return suffix
	}
	return n.prefix + "." + suffix
}

func (n *Notifier) send(ec *models.ExecutionContext, suffix string, msg Message) {
	if ec != nil {
		msg.RunID = ec.RunID
		msg.TenantID = ec.TenantID
		msg.Keyword = ec.Keyword
		msg.ProductRef = ec.ProductRef
	}
	msg.Timestamp = n.now()

	ctx := context.Background()
	if msg.RunID != "" {
		ctx = observability.WithRunID(ctx, msg.RunID)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		observability.WarnContext(ctx, "Failed to marshal notification", logfields.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	subject := n.Subject(suffix)
	if err := n.pub.Publish(ctx, subject, msg.RunID+":"+suffix, data); err != nil {
		observability.WarnContext(ctx, "Failed to publish notification",
			slog.String("subject", subject),
			logfields.Error(err))
		return
	}
	observability.DebugContext(ctx, "Published notification", slog.String("subject", subject))
}

func (n *Notifier) OnRunStart(ec *models.ExecutionContext) {
	n.send(ec, SubjectRunStarted, Message{Event: SubjectRunStarted})
}

func (n *Notifier) OnStageStart(_ *models.ExecutionContext, _ models.StageID) {}

func (n *Notifier) OnStageComplete(ec *models.ExecutionContext, result models.StageResult) {
	suffix := SubjectStage + "." + string(result.Status)
	n.send(ec, suffix+"."+string(result.StageID), Message{Event: suffix, Stage: &result})
}

func (n *Notifier) OnMaterialize(ec *models.ExecutionContext, entityID string, err error) {
	msg := Message{Event: SubjectMaterialized, EntityID: entityID}
	if err != nil {
		msg.Error = err.Error()
	}
	n.send(ec, SubjectMaterialized, msg)
}

func (n *Notifier) OnRunComplete(ec *models.ExecutionContext, result *models.RunResult) {
	if result == nil {
		return
	}
	progress := result.Progress
	msg := Message{
		Event:    SubjectRunCompleted,
		RunID:    result.RunID,
		Status:   result.Status,
		Progress: &progress,
		Error:    result.Error,
		Summary:  result.Summary(),
	}
	if result.Result != nil {
		msg.EntityID = result.Result.EntityID
	}
	n.send(ec, SubjectRunCompleted, msg)
}
