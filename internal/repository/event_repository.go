package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles persistence for all three event kinds.
type EventRepository struct {
	db
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db{pool: pool}}
}

const eventColumns = `
uid, kind, title, topic_uid, hidden, created_at, changed_at,
display_title, subtitle, description, additional_terms, owner_uid,
price_regular::float8, price_regular_early::float8, price_special::float8, price_special_early::float8,
begin_at, end_at, early_bird_deadline, registration_deadline,
registration_required, waiting_list, min_registrations, max_registrations, offline_registrations,
status, automatic_status_change`

// eventRow mirrors one row of the events table before it is turned into a
// model variant.
type eventRow struct {
	kind     model.Kind
	topicUID *int64
	record   model.Record
	details  model.Details
	schedule model.Schedule
}

func scanEvent(row pgx.Row) (eventRow, error) {
	var r eventRow
	var begin, end, earlyBird, regDeadline *time.Time
	err := row.Scan(
		&r.record.UID, &r.kind, &r.record.Title, &r.topicUID, &r.record.Hidden, &r.record.Created, &r.record.Changed,
		&r.details.DisplayTitle, &r.details.Subtitle, &r.details.Description, &r.details.AdditionalTerms, &r.details.OwnerUID,
		&r.details.StandardPrice, &r.details.EarlyBirdPrice, &r.details.SpecialPrice, &r.details.SpecialEarlyBirdPrice,
		&begin, &end, &earlyBird, &regDeadline,
		&r.schedule.RegistrationRequired, &r.schedule.WaitingList,
		&r.schedule.MinimumRegistrations, &r.schedule.MaximumRegistrations, &r.schedule.OfflineRegistrations,
		&r.schedule.Status, &r.schedule.AutomaticStatusChange,
	)
	if err != nil {
		return eventRow{}, err
	}
	r.schedule.Start = timeOrZero(begin)
	r.schedule.End = timeOrZero(end)
	r.schedule.EarlyBirdDeadline = timeOrZero(earlyBird)
	r.schedule.RegistrationDeadline = timeOrZero(regDeadline)
	return r, nil
}

func (r eventRow) build(topic *model.Topic) (model.Event, error) {
	switch r.kind {
	case model.KindTopic:
		return &model.Topic{Record: r.record, Details: r.details}, nil
	case model.KindSingleEvent:
		return &model.SingleEvent{Record: r.record, Details: r.details, Schedule: r.schedule}, nil
	case model.KindDate:
		return &model.Date{Record: r.record, Schedule: r.schedule, Topic: topic}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", r.kind)
}

// GetByID returns a single non-deleted event of any kind or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, uid int64) (model.Event, error) {
	return r.get(ctx, uid, false)
}

// GetBookable returns an event that can be registered for. A topic yields
// ErrNotBookable and a hidden event ErrNotFound.
func (r *EventRepository) GetBookable(ctx context.Context, uid int64) (model.Bookable, error) {
	event, err := r.get(ctx, uid, false)
	if err != nil {
		return nil, err
	}
	return asBookable(event)
}

// LockBookable is GetBookable with a row lock held until the surrounding
// transaction ends. It must be called inside WithTx.
func (r *EventRepository) LockBookable(ctx context.Context, uid int64) (model.Bookable, error) {
	if txFromContext(ctx) == nil {
		return nil, errors.New("lock event: no transaction in context")
	}
	event, err := r.get(ctx, uid, true)
	if err != nil {
		return nil, err
	}
	return asBookable(event)
}

func asBookable(event model.Event) (model.Bookable, error) {
	if !model.IsNil(event) && event.Base().Hidden {
		return nil, ErrNotFound
	}
	b, ok := model.AsBookable(event)
	if !ok {
		return nil, ErrNotBookable
	}
	return b, nil
}

func (r *EventRepository) get(ctx context.Context, uid int64, forUpdate bool) (model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE uid = $1 AND NOT deleted`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	row, err := scanEvent(r.queryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	topic, err := r.topicFor(ctx, row)
	if err != nil {
		return nil, err
	}
	return row.build(topic)
}

// topicFor loads the topic of a date row. A missing topic is not an error.
func (r *EventRepository) topicFor(ctx context.Context, row eventRow) (*model.Topic, error) {
	if row.kind != model.KindDate || row.topicUID == nil {
		return nil, nil
	}

	topicRow, err := scanEvent(r.queryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE uid = $1 AND kind = 'topic' AND NOT deleted`,
		*row.topicUID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return &model.Topic{Record: topicRow.record, Details: topicRow.details}, nil
}

// ListAutomaticStatusCandidates returns the visible, planned, bookable events
// that have automatic status changes enabled, soonest first.
func (r *EventRepository) ListAutomaticStatusCandidates(ctx context.Context) ([]model.Bookable, error) {
	rows, err := r.query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE kind <> 'topic'
		   AND status = 'planned'
		   AND automatic_status_change
		   AND NOT hidden AND NOT deleted
		 ORDER BY begin_at ASC NULLS LAST, uid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list status candidates: %w", err)
	}

	var scanned []eventRow
	for rows.Next() {
		row, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan event: %w", err)
		}
		scanned = append(scanned, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list status candidates: %w", err)
	}

	topics := make(map[int64]*model.Topic)
	events := make([]model.Bookable, 0, len(scanned))
	for _, row := range scanned {
		var topic *model.Topic
		if row.topicUID != nil {
			cached, ok := topics[*row.topicUID]
			if !ok {
				if cached, err = r.topicFor(ctx, row); err != nil {
					return nil, err
				}
				topics[*row.topicUID] = cached
			}
			topic = cached
		}
		event, err := row.build(topic)
		if err != nil {
			return nil, err
		}
		b, err := asBookable(event)
		if err != nil {
			return nil, err
		}
		events = append(events, b)
	}
	return events, nil
}

// Create inserts an event of any kind and sets its uid and timestamps.
func (r *EventRepository) Create(ctx context.Context, event model.Event) error {
	var (
		details  = event.Info()
		schedule model.Schedule
		topicUID *int64
	)
	switch e := event.(type) {
	case *model.Topic:
	case *model.SingleEvent:
		schedule = e.Schedule
	case *model.Date:
		schedule = e.Schedule
		topicUID = nullUID(e.TopicUID())
		// A date's descriptive columns stay empty; they are read from the topic.
		details = model.Details{}
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	if schedule.Status == "" {
		schedule.Status = model.StatusPlanned
	}

	base := event.Base()
	now := time.Now().UTC()
	err := r.queryRow(ctx,
		`INSERT INTO events (
			kind, title, topic_uid, hidden, created_at, changed_at,
			display_title, subtitle, description, additional_terms, owner_uid,
			price_regular, price_regular_early, price_special, price_special_early,
			begin_at, end_at, early_bird_deadline, registration_deadline,
			registration_required, waiting_list, min_registrations, max_registrations, offline_registrations,
			status, automatic_status_change
		) VALUES (
			$1, $2, $3, $4, $5, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22, $23,
			$24, $25
		) RETURNING uid`,
		event.Kind(), base.Title, topicUID, base.Hidden, now,
		details.DisplayTitle, details.Subtitle, details.Description, details.AdditionalTerms, details.OwnerUID,
		details.StandardPrice, details.EarlyBirdPrice, details.SpecialPrice, details.SpecialEarlyBirdPrice,
		nullTime(schedule.Start), nullTime(schedule.End), nullTime(schedule.EarlyBirdDeadline), nullTime(schedule.RegistrationDeadline),
		schedule.RegistrationRequired, schedule.WaitingList,
		schedule.MinimumRegistrations, schedule.MaximumRegistrations, schedule.OfflineRegistrations,
		schedule.Status, schedule.AutomaticStatusChange,
	).Scan(&base.UID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	base.Created, base.Changed = now, now
	if b, ok := model.AsBookable(event); ok {
		b.Timing().Status = schedule.Status
	}
	return nil
}

// UpdateStatus persists the status of a bookable event.
func (r *EventRepository) UpdateStatus(ctx context.Context, event model.Bookable) error {
	tag, err := r.exec(ctx,
		`UPDATE events SET status = $2, changed_at = NOW() WHERE uid = $1 AND NOT deleted`,
		event.Base().UID, event.Timing().Status,
	)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
