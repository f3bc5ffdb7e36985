// Package notification delivers scan summaries to external channels
// (Telegram, generic webhooks) once a universe scan completes.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"signalscan/internal/metrics"
	"signalscan/internal/model"
	"signalscan/internal/scanner"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Name identifies the channel, used as a metric label.
	Name() string
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Broadcaster fans an alert out to every configured channel. Delivery
// failures are logged per channel and never abort the others.
type Broadcaster struct {
	notifiers []Notifier
	metrics   *metrics.Metrics
}

// NewBroadcaster creates a broadcaster; m may be nil.
func NewBroadcaster(m *metrics.Metrics, notifiers ...Notifier) *Broadcaster {
	return &Broadcaster{notifiers: notifiers, metrics: m}
}

// Broadcast sends the alert to all channels.
func (b *Broadcaster) Broadcast(ctx context.Context, alert Alert) {
	for _, n := range b.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] %s delivery failed: %v", n.Name(), err)
			continue
		}
		if b.metrics != nil {
			b.metrics.NotificationsSent.WithLabelValues(n.Name()).Inc()
		}
	}
}

// maxSummaryRows bounds the per-alert symbol listing.
const maxSummaryRows = 10

// Summarize condenses a scan report into one alert: coverage counts,
// then the top matches by % change with their recommendations.
func Summarize(rep *scanner.Report) Alert {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scanned %d/%d symbols, %d with recent crossovers.\n",
		rep.Processed, rep.TotalSymbols, len(rep.Rows))

	buys := rep.Filter("", model.ActionBuy)
	sells := rep.Filter("", model.ActionSell)
	fmt.Fprintf(&sb, "BUY: %d  SELL: %d\n", len(buys.Rows), len(sells.Rows))

	for i, row := range rep.Rows {
		if i == maxSummaryRows {
			fmt.Fprintf(&sb, "… and %d more\n", len(rep.Rows)-maxSummaryRows)
			break
		}
		fmt.Fprintf(&sb, "%s %s %+.2f%% RSI %.1f → %s\n",
			row.Symbol, row.CrossKind, row.ChangePct, row.RSI, row.Recommendation.Action)
	}

	level := AlertInfo
	if rep.Partial() {
		level = AlertWarning
	}
	title := "Scan complete"
	if rep.Partial() {
		title = "Scan incomplete"
	}
	return Alert{Level: level, Title: title, Message: sb.String()}
}
