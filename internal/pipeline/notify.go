package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/Mavwarf/iconset/internal/history"
	"github.com/Mavwarf/iconset/internal/mqtt"
	"github.com/Mavwarf/iconset/internal/webhook"
)

// Summary is the JSON document sent to notice targets after a run.
type Summary struct {
	RunID      string         `json:"run_id"`
	Status     history.Status `json:"status"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Idioms     string         `json:"idioms"`
	Entries    int            `json:"entries"`
	Sizes      []int          `json:"sizes"`
	Failed     []FailedSize   `json:"failed,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// FailedSize names a size that could not be rendered.
type FailedSize struct {
	Size  int    `json:"size"`
	Error string `json:"error"`
}

// NewSummary builds the notice payload for a finished run.
func NewSummary(rep *Report, o Options) Summary {
	s := Summary{
		RunID:      rep.RunID,
		Status:     rep.Status(),
		Source:     o.Source,
		Target:     rep.Layout.CatalogDir(),
		Idioms:     o.Idioms,
		Entries:    len(rep.Entries),
		Sizes:      rep.Sizes,
		DurationMS: rep.Duration.Milliseconds(),
	}
	for _, res := range rep.Results {
		if res.Err != nil {
			s.Failed = append(s.Failed, FailedSize{Size: res.Size, Error: res.Err.Error()})
		}
	}
	return s
}

// Notifier delivers a run summary somewhere.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, payload []byte) error
}

// MQTTNotifier publishes the summary to a broker topic.
type MQTTNotifier struct {
	Options mqtt.Options
}

func (n MQTTNotifier) Name() string { return "mqtt" }

func (n MQTTNotifier) Notify(_ context.Context, payload []byte) error {
	return mqtt.Publish(n.Options, payload)
}

// WebhookNotifier POSTs the summary to a URL.
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
}

func (n WebhookNotifier) Name() string { return "webhook" }

func (n WebhookNotifier) Notify(ctx context.Context, payload []byte) error {
	return webhook.Send(ctx, n.URL, payload, n.Headers)
}

// notifyAll sends the summary to every notifier. Delivery is best-effort:
// failures are logged and do not affect the run result.
func notifyAll(ctx context.Context, notifiers []Notifier, s Summary, log zerolog.Logger) {
	if len(notifiers) == 0 {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		log.Warn().Err(err).Msg("notify: encode summary")
		return
	}
	for _, n := range notifiers {
		if err := n.Notify(ctx, payload); err != nil {
			log.Warn().Str("target", n.Name()).Err(err).Msg("notify failed")
			continue
		}
		log.Debug().Str("target", n.Name()).Msg("notice sent")
	}
}
