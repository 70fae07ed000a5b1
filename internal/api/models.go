package api

import (
	"time"

	"github.com/parleyhq/parley-api/internal/domain"
	"github.com/parleyhq/parley-api/internal/service"
)

// UserResponse represents the response data for a participant.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Topic     string      `json:"topic,omitempty"`
	Gender    string      `json:"gender,omitempty"`
	Age       int         `json:"age,omitempty"`
	Education string      `json:"education,omitempty"`
	Job       string      `json:"job,omitempty"`
	TimeSlots []time.Time `json:"time_slots,omitempty"`
	Scored    bool        `json:"scored"`
	Matched   bool        `json:"matched"`
	CreatedAt time.Time   `json:"created_at"`
}

// PartnerResponse is the anonymized view of a matched partner.
type PartnerResponse struct {
	Gender    string `json:"gender,omitempty"`
	Age       int    `json:"age,omitempty"`
	Education string `json:"education,omitempty"`
	Job       string `json:"job,omitempty"`
}

// MatchStatusResponse represents the response data for a match status.
type MatchStatusResponse struct {
	Matched        bool             `json:"matched"`
	MeetingID      string           `json:"meeting_id,omitempty"`
	Partner        *PartnerResponse `json:"partner,omitempty"`
	Slot           *time.Time       `json:"slot,omitempty"`
	MatchedAt      *time.Time       `json:"matched_at,omitempty"`
	Arrived        bool             `json:"arrived"`
	PartnerArrived bool             `json:"partner_arrived"`
}

// DimensionResponse represents one survey dimension. Weights are internal
// tuning and are not exposed.
type DimensionResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Ordinal     int    `json:"ordinal"`
	Description string `json:"description,omitempty"`
}

// SlotsResponse lists the bookable meeting slots.
type SlotsResponse struct {
	Slots []time.Time `json:"slots"`
}

// ScoresResponse carries a participant's stored survey answers.
type ScoresResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// AvailabilityResponse is returned after an availability submission: the
// updated profile plus the outcome of the immediate match attempt.
type AvailabilityResponse struct {
	User  UserResponse        `json:"user"`
	Match MatchStatusResponse `json:"match"`
}

// userToResponse converts a domain.User to a UserResponse.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Topic:     user.Topic,
		Gender:    user.Gender,
		Age:       user.Age,
		Education: user.Education,
		Job:       user.Job,
		TimeSlots: user.TimeSlots,
		Scored:    user.Scored,
		Matched:   user.HasPartner,
		CreatedAt: user.CreatedAt,
	}
}

// statusToResponse converts a service.MatchStatus to a MatchStatusResponse.
func statusToResponse(status *service.MatchStatus) MatchStatusResponse {
	resp := MatchStatusResponse{
		Matched:        status.Matched,
		Slot:           status.Slot,
		MatchedAt:      status.MatchedAt,
		Arrived:        status.Arrived,
		PartnerArrived: status.PartnerArrived,
	}
	if status.MeetingID != nil {
		resp.MeetingID = status.MeetingID.String()
	}
	if status.Partner != nil {
		resp.Partner = &PartnerResponse{
			Gender:    status.Partner.Gender,
			Age:       status.Partner.Age,
			Education: status.Partner.Education,
			Job:       status.Partner.Job,
		}
	}
	return resp
}

// dimensionToResponse converts a domain.OpinionDimension to a DimensionResponse.
func dimensionToResponse(d *domain.OpinionDimension) DimensionResponse {
	return DimensionResponse{
		Name:        d.Name,
		DisplayName: d.DisplayName,
		Category:    string(d.Category),
		Ordinal:     d.Ordinal,
		Description: d.Description,
	}
}
