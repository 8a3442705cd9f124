package Slack

import (
	"context"
	"fmt"
	"strings"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/slack-go/slack"
)

// maxListed caps the items spelled out in one message.
const maxListed = 10

// Notifier posts checklist alerts to one Slack channel.
type Notifier struct {
	api     *slack.Client
	channel string
}

func New(botToken, channelID string, options ...slack.Option) *Notifier {
	return &Notifier{
		api:     slack.New(botToken, options...),
		channel: channelID,
	}
}

// NotifyNonConformity posts the NOK answers of a submitted checklist.
func (n *Notifier) NotifyNonConformity(ctx context.Context, r Checklist.Report) error {
	var b strings.Builder
	listed := 0
	for _, row := range r.Rows {
		if row.Status != Models.StatusNOK {
			continue
		}
		if listed == maxListed {
			fmt.Fprintf(&b, "... and %d more\n", r.Stats.NOK-listed)
			break
		}
		fmt.Fprintf(&b, "*%d.* %s\n> %s\n", row.Number, row.Text, row.Justification)
		listed++
	}

	where := r.Context.Area
	if r.Context.ProductionLine != "" {
		where += " / " + r.Context.ProductionLine
	}
	if r.Context.Operation != "" {
		where += " / " + r.Context.Operation
	}

	attachment := slack.Attachment{
		Color: "danger",
		Title: fmt.Sprintf("%d non-conformit%s reported", r.Stats.NOK, plural(r.Stats.NOK, "y", "ies")),
		Text:  b.String(),
		Fields: []slack.AttachmentField{
			{Title: "Shift", Value: r.ShiftLabel, Short: true},
			{Title: "Responsible", Value: r.Responsible, Short: true},
			{Title: "Location", Value: where},
			{Title: "Result", Value: fmt.Sprintf("OK %d%% / NOK %d%% / N/A %d%%", r.Stats.OKPercent, r.Stats.NOKPercent, r.Stats.NAPercent)},
		},
		Footer: r.SessionID.String(),
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fmt.Sprintf(":warning: Checklist with NOK answers submitted for %s", where), false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("posting non-conformity alert: %w", err)
	}
	return nil
}

// NotifyOrphans reports sessions whose answers were saved but that were
// never marked complete.
func (n *Notifier) NotifyOrphans(ctx context.Context, orphans []Store.OrphanedSession) error {
	if len(orphans) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: %d checklist session%s saved answers but never completed:\n",
		len(orphans), plural(len(orphans), "", "s"))
	for i, o := range orphans {
		if i == maxListed {
			fmt.Fprintf(&b, "... and %d more\n", len(orphans)-maxListed)
			break
		}
		fmt.Fprintf(&b, "- `%s` %s, %s, %d answers, started %s\n",
			o.Session.ID, o.Session.Shift.Label(), o.Session.Area.Label(),
			o.AnswerCount, o.Session.StartedAt.Format("2006-01-02 15:04"))
	}

	if _, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(b.String(), false)); err != nil {
		return fmt.Errorf("posting orphan alert: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
