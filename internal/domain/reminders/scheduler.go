package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"perfhub/internal/domain/notifications"
	"perfhub/internal/domain/reviewcycle"
	"perfhub/internal/platform/clock"
)

const (
	phaseFeedbackRequest = "feedback_request"
	kindCadence          = "cadence"
	kindBroadcast        = "feedback_broadcast"
)

// Scheduler runs one reminder pass per tick over every organisation.
type Scheduler struct {
	store    StoreAPI
	cycles   Cycles
	sender   Sender
	clock    clock.Clock
	settings Settings
	observer Observer
}

func NewScheduler(store StoreAPI, cycles Cycles, sender Sender, clk clock.Clock, settings Settings) *Scheduler {
	return &Scheduler{store: store, cycles: cycles, sender: sender, clock: clk, settings: settings}
}

func (s *Scheduler) WithObserver(o Observer) *Scheduler {
	s.observer = o
	return s
}

// Tick evaluates every organisation against the same instant. A failing or panicking
// organisation is logged and counted, and the walk continues with the next one.
func (s *Scheduler) Tick(ctx context.Context) (Summary, error) {
	orgs, err := s.store.ListOrganisations(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list organisations: %w", err)
	}

	now := s.clock.Now()
	summary := Summary{Organisations: len(orgs)}
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := s.runIsolated(ctx, org, now)
		summary.Sent += res.Sent
		summary.Unpublished += res.Unpublished
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", org.ID, err))
			slog.Warn("reminder organisation failed", "organisationId", org.ID, "err", err)
		}
	}
	return summary, nil
}

// RunOnce runs a single organisation by id at the current instant.
func (s *Scheduler) RunOnce(ctx context.Context, orgID string) (OrganisationResult, error) {
	org, err := s.store.GetOrganisation(ctx, orgID)
	if err != nil {
		return OrganisationResult{}, err
	}
	return s.runIsolated(ctx, org, s.clock.Now())
}

func (s *Scheduler) runIsolated(ctx context.Context, org Organisation, now time.Time) (res OrganisationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.RunOrganisation(ctx, org, now)
}

// RunOrganisation unpublishes finished cycles, sends the review and feedback request
// reminders on the tick that crosses the reminder hour, and sends the bi-weekly
// broadcast when it is due.
func (s *Scheduler) RunOrganisation(ctx context.Context, org Organisation, now time.Time) (OrganisationResult, error) {
	var res OrganisationResult
	loc, err := clock.LoadZone(org.TimeZone)
	if err != nil {
		return res, fmt.Errorf("organisation time zone: %w", err)
	}
	today := clock.TodayIn(now, loc)

	n, err := s.cycles.UnpublishExpired(ctx, org.ID, today)
	if err != nil {
		return res, fmt.Errorf("unpublish expired cycles: %w", err)
	}
	res.Unpublished = n

	if JustCrossedTargetHour(now, loc, s.settings.ReminderHour, s.settings.Tick) {
		sent, err := s.reviewReminders(ctx, org, today)
		res.Sent += sent
		if err != nil {
			return res, fmt.Errorf("review reminders: %w", err)
		}

		sent, err = s.feedbackRequestReminders(ctx, org, today, loc)
		res.Sent += sent
		if err != nil {
			return res, fmt.Errorf("feedback request reminders: %w", err)
		}
	}

	sent, err := s.broadcast(ctx, org, now, loc)
	res.Sent += sent
	if err != nil {
		return res, fmt.Errorf("feedback broadcast: %w", err)
	}
	return res, nil
}

func (s *Scheduler) reviewReminders(ctx context.Context, org Organisation, today time.Time) (int, error) {
	published := true
	cycles, err := s.cycles.List(ctx, org.ID, reviewcycle.ListFilter{Published: &published})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range cycles {
		for _, phase := range reviewcycle.AllPhases {
			w := c.PhaseWindow(phase)
			kind := ShouldRemind(today, w.End)
			if kind == None || w.StateOn(today) != reviewcycle.StateActive {
				continue
			}

			marker := Marker{OrganisationID: org.ID, Subject: c.ID, Phase: string(phase), Kind: string(kind), SentOn: today}
			title, body := reviewMessage(c, phase, kind)
			ok, err := s.deliverOnce(ctx, marker, func() (bool, error) {
				recipients, err := s.store.Recipients(ctx, org.ID, phase)
				if err != nil {
					return false, err
				}
				if len(recipients) == 0 {
					return true, nil
				}
				delivered := s.sender.NotifyUsers(ctx, org.ID, recipients, notifications.TypeReviewReminder, title, body)
				if org.SlackWebhookURL != "" {
					s.sender.PostChannel(ctx, org.SlackWebhookURL, body)
				}
				return delivered, nil
			})
			if err != nil {
				return sent, err
			}
			if ok {
				sent++
			}
		}
	}
	return sent, nil
}

func (s *Scheduler) feedbackRequestReminders(ctx context.Context, org Organisation, today time.Time, loc *time.Location) (int, error) {
	since := today.AddDate(0, 0, -(feedbackMaxDays + 2))
	pending, err := s.store.PendingFeedbackRequests(ctx, org.ID, since)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range pending {
		createdOn := clock.DateOf(p.CreatedAt.In(loc))
		if !FeedbackRequestReminderDue(createdOn, today) {
			continue
		}
		days := clock.DaysBetween(createdOn, today)
		marker := Marker{OrganisationID: org.ID, Subject: p.ID, Phase: phaseFeedbackRequest, Kind: kindCadence, SentOn: today}
		ok, err := s.deliverOnce(ctx, marker, func() (bool, error) {
			return s.sender.NotifyUsers(ctx, org.ID, []string{p.RequesteeID}, notifications.TypeFeedbackRequestReminder,
				"Feedback request pending",
				fmt.Sprintf("A colleague asked for your feedback %d days ago and is still waiting.", days)), nil
		})
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// broadcast posts to the organisation's Slack webhook and falls back to in-app
// notifications when nothing was posted. The last-sent instant only moves after a
// confirmed delivery.
func (s *Scheduler) broadcast(ctx context.Context, org Organisation, now time.Time, loc *time.Location) (int, error) {
	settings := BroadcastSettings{
		Enabled: org.BroadcastEnabled,
		Weekday: s.settings.BroadcastWeekday,
		Hour:    s.settings.BroadcastHour,
	}
	if !BroadcastDue(now, loc, settings, org.LastFeedbackReminderSentAt) {
		return 0, nil
	}

	const text = "Take a few minutes this week to share feedback with your colleagues."
	var ok bool
	if org.SlackWebhookURL != "" {
		ok = s.sender.PostChannel(ctx, org.SlackWebhookURL, text)
	}
	if !ok {
		users, err := s.store.ActiveUserIDs(ctx, org.ID)
		if err != nil {
			return 0, err
		}
		ok = s.sender.NotifyUsers(ctx, org.ID, users, notifications.TypeFeedbackBroadcast, "Time to share feedback", text)
	}
	s.observe(kindBroadcast, ok)
	if !ok {
		return 0, nil
	}
	if err := s.store.SetLastFeedbackReminderSentAt(ctx, org.ID, now); err != nil {
		return 1, err
	}
	return 1, nil
}

// deliverOnce skips the send when the marker already exists and records it only after
// a successful send.
func (s *Scheduler) deliverOnce(ctx context.Context, m Marker, send func() (bool, error)) (bool, error) {
	exists, err := s.store.MarkerExists(ctx, m)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	ok, err := send()
	if err != nil {
		return false, err
	}
	s.observe(m.Kind, ok)
	if !ok {
		return false, nil
	}
	if err := s.store.RecordMarker(ctx, m); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Scheduler) observe(kind string, ok bool) {
	if s.observer != nil {
		s.observer.ReminderDelivered(kind, ok)
	}
}

func reviewMessage(c reviewcycle.ReviewCycle, phase reviewcycle.Phase, kind Reminder) (string, string) {
	end := c.PhaseWindow(phase).End.Format("2006-01-02")
	if kind == LastDayReminder {
		return fmt.Sprintf("%s closes today", phase.Label()),
			fmt.Sprintf("Today is the last day of %s for %s (%s).", phase.Label(), c.Name, end)
	}
	return fmt.Sprintf("%s closes in 5 days", phase.Label()),
		fmt.Sprintf("%s for %s closes on %s.", phase.Label(), c.Name, end)
}
