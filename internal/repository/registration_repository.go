package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/capacity"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db
	events *EventRepository
}

// NewRegistrationRepository constructs a RegistrationRepository. Events are
// resolved through the given EventRepository.
func NewRegistrationRepository(pool *pgxpool.Pool, events *EventRepository) *RegistrationRepository {
	return &RegistrationRepository{db: db{pool: pool}, events: events}
}

const registrationColumns = `
r.uid, r.reference::text, r.title, r.event_uid, r.status, r.seats,
r.registered_themselves, r.attendees_names, r.price_code, r.price, r.total_price::float8,
r.attendance_mode, r.order_reference,
r.billing_company, r.billing_name, r.billing_street, r.billing_zip, r.billing_city,
r.billing_country, r.billing_phone, r.billing_email,
r.interests, r.expectations, r.comments, r.known_from, r.background_knowledge,
r.consent_terms, r.consent_additional, r.consent_data_sharing,
r.hidden, r.deleted, r.created_at, r.changed_at,
u.uid, u.name, u.email`

const registrationFrom = `
FROM registrations r
LEFT JOIN users u ON u.uid = r.user_uid`

func scanRegistration(row pgx.Row) (*model.Registration, *int64, error) {
	var (
		reg       model.Registration
		eventUID  *int64
		status    int
		mode      int
		priceCode string
		userUID   *int64
		userName  *string
		userEmail *string
	)
	err := row.Scan(
		&reg.UID, &reg.Reference, &reg.Title, &eventUID, &status, &reg.Seats,
		&reg.RegisteredThemselves, &reg.AttendeesNames, &priceCode, &reg.Price, &reg.TotalPrice,
		&mode, &reg.OrderReference,
		&reg.Billing.Company, &reg.Billing.FullName, &reg.Billing.Street, &reg.Billing.ZIP, &reg.Billing.City,
		&reg.Billing.Country, &reg.Billing.PhoneNumber, &reg.Billing.Email,
		&reg.Interests, &reg.Expectations, &reg.Comments, &reg.KnownFrom, &reg.BackgroundKnowledge,
		&reg.ConsentToTerms, &reg.ConsentToAdditional, &reg.ConsentToDataSharing,
		&reg.Hidden, &reg.Deleted, &reg.Created, &reg.Changed,
		&userUID, &userName, &userEmail,
	)
	if err != nil {
		return nil, nil, err
	}
	reg.Status = model.RegistrationStatus(status)
	reg.AttendanceMode = model.AttendanceMode(mode)
	reg.SetPriceCode(model.PriceCode(priceCode))
	if userUID != nil {
		reg.User = &model.User{UID: *userUID}
		if userName != nil {
			reg.User.Name = *userName
		}
		if userEmail != nil {
			reg.User.Email = *userEmail
		}
	}
	return &reg, eventUID, nil
}

// Create inserts a registration and assigns its uid and public reference. A
// zero creation time is set to now.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}

	reg.Reference = uuid.New().String()
	if reg.Created.IsZero() {
		reg.Created = time.Now().UTC()
	}
	reg.Changed = reg.Created

	err := r.queryRow(ctx,
		`INSERT INTO registrations (
			reference, title, event_uid, user_uid, status, seats,
			registered_themselves, attendees_names, price_code, price, total_price,
			attendance_mode, order_reference,
			billing_company, billing_name, billing_street, billing_zip, billing_city,
			billing_country, billing_phone, billing_email,
			interests, expectations, comments, known_from, background_knowledge,
			consent_terms, consent_additional, consent_data_sharing,
			hidden, created_at, changed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, $21,
			$22, $23, $24, $25, $26,
			$27, $28, $29,
			$30, $31, $31
		) RETURNING uid`,
		reg.Reference, reg.Title, nullUID(reg.EventUID()), nullUID(reg.UserUID()), int(reg.Status), reg.Seats,
		reg.RegisteredThemselves, reg.AttendeesNames, string(reg.PriceCode()), reg.Price, reg.TotalPrice,
		int(reg.AttendanceMode), reg.OrderReference,
		reg.Billing.Company, reg.Billing.FullName, reg.Billing.Street, reg.Billing.ZIP, reg.Billing.City,
		reg.Billing.Country, reg.Billing.PhoneNumber, reg.Billing.Email,
		reg.Interests, reg.Expectations, reg.Comments, reg.KnownFrom, reg.BackgroundKnowledge,
		reg.ConsentToTerms, reg.ConsentToAdditional, reg.ConsentToDataSharing,
		reg.Hidden, reg.Created,
	).Scan(&reg.UID)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByReference returns an active registration with its event and user.
// A registration whose event is gone is returned with a nil Event.
func (r *RegistrationRepository) GetByReference(ctx context.Context, ref string) (*model.Registration, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, ErrInvalidReference
	}

	reg, eventUID, err := scanRegistration(r.queryRow(ctx,
		`SELECT `+registrationColumns+registrationFrom+`
		 WHERE r.reference = $1 AND NOT r.hidden AND NOT r.deleted`,
		ref,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isInvalidUUID(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}

	if eventUID != nil {
		event, err := r.events.GetByID(ctx, *eventUID)
		switch {
		case err == nil:
			reg.Event = event
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	return reg, nil
}

// ListByEvent returns the active registrations of an event, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, event model.Bookable) ([]*model.Registration, error) {
	rows, err := r.query(ctx,
		`SELECT `+registrationColumns+registrationFrom+`
		 WHERE r.event_uid = $1 AND NOT r.hidden AND NOT r.deleted
		 ORDER BY r.created_at DESC, r.uid DESC`,
		event.Base().UID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []*model.Registration
	for rows.Next() {
		reg, _, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.Event = event
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// SumSeats returns the regular and waiting-list seat totals of an event with
// the same rules as capacity.Sum.
func (r *RegistrationRepository) SumSeats(ctx context.Context, eventUID int64) (capacity.Counts, error) {
	var c capacity.Counts
	err := r.queryRow(ctx,
		`SELECT
			COALESCE(SUM(seats) FILTER (WHERE status = $2), 0),
			COALESCE(SUM(seats) FILTER (WHERE status = $3), 0)
		 FROM registrations
		 WHERE event_uid = $1 AND seats > 0 AND NOT hidden AND NOT deleted`,
		eventUID, int(model.RegistrationRegular), int(model.RegistrationWaitingList),
	).Scan(&c.Regular, &c.WaitingList)
	if err != nil {
		return capacity.Counts{}, fmt.Errorf("sum seats: %w", err)
	}
	return c, nil
}

// Exists reports whether userUID holds an active registration for eventUID.
// Non-positive user uids never match.
func (r *RegistrationRepository) Exists(ctx context.Context, eventUID, userUID int64) (bool, error) {
	if userUID <= 0 {
		return false, nil
	}
	var exists bool
	err := r.queryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE event_uid = $1 AND user_uid = $2 AND NOT hidden AND NOT deleted
		)`,
		eventUID, userUID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

// UpdateStatus persists the status and the price fields derived with it.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, reg *model.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	tag, err := r.exec(ctx,
		`UPDATE registrations
		 SET status = $2, price_code = $3, price = $4, total_price = $5, changed_at = NOW()
		 WHERE uid = $1 AND NOT deleted`,
		reg.UID, int(reg.Status), string(reg.PriceCode()), reg.Price, reg.TotalPrice,
	)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUser returns a front-end user or ErrNotFound.
func (r *RegistrationRepository) GetUser(ctx context.Context, uid int64) (*model.User, error) {
	var u model.User
	err := r.queryRow(ctx, `SELECT uid, name, email FROM users WHERE uid = $1`, uid).
		Scan(&u.UID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
