package handler

import (
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/service"
)

// BillingRequest is the optional invoice address of a booking.
type BillingRequest struct {
	Company     string `json:"company" validate:"max=255"`
	FullName    string `json:"full_name" validate:"max=255"`
	Street      string `json:"street" validate:"max=255"`
	ZIP         string `json:"zip" validate:"max=20"`
	City        string `json:"city" validate:"max=255"`
	Country     string `json:"country" validate:"max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=50"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// RegisterRequest is the body of POST /events/{uid}/registrations.
type RegisterRequest struct {
	UserUID              int64                `json:"user_uid" validate:"required,gt=0"`
	Seats                int                  `json:"seats" validate:"omitempty,min=1,max=100"`
	PriceCode            model.PriceCode      `json:"price_code"`
	AttendanceMode       model.AttendanceMode `json:"attendance_mode"`
	RegisteredThemselves bool                 `json:"registered_themselves"`
	AttendeesNames       string               `json:"attendees_names" validate:"max=2000"`
	Billing              BillingRequest       `json:"billing"`
	Interests            string               `json:"interests" validate:"max=2000"`
	Expectations         string               `json:"expectations" validate:"max=2000"`
	Comments             string               `json:"comments" validate:"max=2000"`
	KnownFrom            string               `json:"known_from" validate:"max=255"`
	BackgroundKnowledge  string               `json:"background_knowledge" validate:"max=2000"`
	ConsentToTerms       bool                 `json:"consent_to_terms" validate:"eq=true"`
	ConsentToAdditional  bool                 `json:"consent_to_additional_terms"`
	ConsentToDataSharing bool                 `json:"consent_to_data_sharing"`
}

func (r RegisterRequest) input(eventUID int64) service.RegisterInput {
	return service.RegisterInput{
		EventUID:             eventUID,
		UserUID:              r.UserUID,
		Seats:                r.Seats,
		PriceCode:            r.PriceCode,
		AttendanceMode:       r.AttendanceMode,
		RegisteredThemselves: r.RegisteredThemselves,
		AttendeesNames:       r.AttendeesNames,
		Billing: model.BillingAddress{
			Company:     r.Billing.Company,
			FullName:    r.Billing.FullName,
			Street:      r.Billing.Street,
			ZIP:         r.Billing.ZIP,
			City:        r.Billing.City,
			Country:     r.Billing.Country,
			PhoneNumber: r.Billing.PhoneNumber,
			Email:       r.Billing.Email,
		},
		Interests:            r.Interests,
		Expectations:         r.Expectations,
		Comments:             r.Comments,
		KnownFrom:            r.KnownFrom,
		BackgroundKnowledge:  r.BackgroundKnowledge,
		ConsentToTerms:       r.ConsentToTerms,
		ConsentToAdditional:  r.ConsentToAdditional,
		ConsentToDataSharing: r.ConsentToDataSharing,
	}
}

// RegistrationResponse is the public view of a registration.
type RegistrationResponse struct {
	Reference      string                   `json:"reference"`
	Title          string                   `json:"title"`
	EventUID       int64                    `json:"event_uid"`
	UserUID        int64                    `json:"user_uid"`
	Status         model.RegistrationStatus `json:"status"`
	Seats          int                      `json:"seats"`
	AttendanceMode model.AttendanceMode     `json:"attendance_mode"`
	PriceCode      model.PriceCode          `json:"price_code"`
	Price          string                   `json:"price"`
	TotalPrice     float64                  `json:"total_price"`
	CreatedAt      time.Time                `json:"created_at"`
}

func newRegistrationResponse(r *model.Registration) RegistrationResponse {
	return RegistrationResponse{
		Reference:      r.Reference,
		Title:          r.Title,
		EventUID:       r.EventUID(),
		UserUID:        r.UserUID(),
		Status:         r.Status,
		Seats:          r.Seats,
		AttendanceMode: r.AttendanceMode,
		PriceCode:      r.PriceCode(),
		Price:          r.Price,
		TotalPrice:     r.TotalPrice,
		CreatedAt:      r.Created,
	}
}

// StatisticsResponse reports the seat counters of a bookable event.
// SeatsLimit and Vacancies are null for events without a seat limit.
type StatisticsResponse struct {
	EventUID            int64             `json:"event_uid"`
	Kind                model.Kind        `json:"kind"`
	Title               string            `json:"title"`
	Status              model.EventStatus `json:"status"`
	RegularSeats        int               `json:"regular_seats"`
	OnlineRegularSeats  int               `json:"online_regular_seats"`
	OfflineRegularSeats int               `json:"offline_regular_seats"`
	WaitingListSeats    int               `json:"waiting_list_seats"`
	MinimumSeats        int               `json:"minimum_seats"`
	SeatsLimit          *int              `json:"seats_limit"`
	Vacancies           *int              `json:"vacancies"`
	FullyBooked         bool              `json:"fully_booked"`
	EnoughRegistrations bool              `json:"enough_registrations"`
}

func newStatisticsResponse(event model.Bookable, s model.EventStatistics) StatisticsResponse {
	resp := StatisticsResponse{
		EventUID:            event.Base().UID,
		Kind:                event.Kind(),
		Title:               event.Info().DisplayTitle,
		Status:              event.Timing().Status,
		RegularSeats:        s.RegularSeatsCount(),
		OnlineRegularSeats:  s.OnlineRegularSeatsCount(),
		OfflineRegularSeats: s.OfflineRegularSeatsCount(),
		WaitingListSeats:    s.WaitingListSeatsCount(),
		MinimumSeats:        s.MinimumSeats(),
		FullyBooked:         s.IsFullyBooked(),
		EnoughRegistrations: s.HasEnoughRegistrations(),
	}
	if resp.Title == "" {
		resp.Title = event.Base().Title
	}
	if resp.Status == "" {
		resp.Status = model.StatusPlanned
	}
	if v, ok := s.Vacancies(); ok {
		limit := s.SeatsLimit()
		resp.SeatsLimit = &limit
		resp.Vacancies = &v
	}
	return resp
}
