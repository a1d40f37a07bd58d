package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/policy"
	"github.com/careloop/booking-api/internal/repository"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

const (
	ratingCacheTTL     = 30 * time.Second
	ratingCacheCleanup = 5 * time.Minute
)

// Service attaches feedback to appointments and aggregates doctor
// ratings on demand.
type Service struct {
	repo    repository.FeedbackRepository
	aptRepo repository.AppointmentRepository
	ratings *cache.Cache
}

func NewService(repo repository.FeedbackRepository, aptRepo repository.AppointmentRepository) *Service {
	return &Service{
		repo:    repo,
		aptRepo: aptRepo,
		ratings: cache.New(ratingCacheTTL, ratingCacheCleanup),
	}
}

// Create attaches a feedback row to an appointment. Only the patient
// the appointment references may submit; at most one feedback per
// appointment.
func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateFeedbackRequest) (*model.AppointmentFeedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.BadRequest("rating must be between 1 and 5", nil)
	}

	apt, err := s.aptRepo.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	if !policy.CanSubmitFeedback(actor, apt) {
		return nil, apperrors.BadRequest("you can only provide feedback for your own appointments", nil)
	}

	feedback := &model.AppointmentFeedback{
		AppointmentID: apt.ID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}

	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, err
	}

	// The new row changes the submitter's, the doctor's, and the
	// global cached averages for this doctor.
	s.ratings.Delete(ratingKey(policy.ScopeFor(actor), apt.DoctorID))
	s.ratings.Delete("d:" + apt.DoctorID.String() + ":" + apt.DoctorID.String())
	s.ratings.Delete("all:" + apt.DoctorID.String())

	return feedback, nil
}

// Get returns the feedback row when its appointment is within the
// actor's scope.
func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.AppointmentFeedback, error) {
	feedback, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	apt, err := s.aptRepo.Get(ctx, feedback.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewFeedback(actor, apt) {
		return nil, apperrors.NotFound("feedback", nil)
	}
	return feedback, nil
}

// List returns the feedback rows visible under the actor's scope.
func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.AppointmentFeedback, error) {
	feedback, err := s.repo.List(ctx, policy.ScopeFor(actor))
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

// AverageRating computes the mean rating for a doctor over the
// feedback rows visible to the caller. Staff get a global average;
// other roles get the average of their own visible subset. Returns
// nil when no rows match. Results are cached briefly per scope.
func (s *Service) AverageRating(ctx context.Context, actor *model.User, doctorID uuid.UUID) (*float64, error) {
	scope := policy.ScopeFor(actor)
	key := ratingKey(scope, doctorID)

	if cached, ok := s.ratings.Get(key); ok {
		return cached.(*float64), nil
	}

	avg, err := s.repo.AverageRatingForDoctor(ctx, scope, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}

	s.ratings.Set(key, avg, cache.DefaultExpiration)
	return avg, nil
}

func ratingKey(scope policy.Scope, doctorID uuid.UUID) string {
	switch {
	case scope.All:
		return "all:" + doctorID.String()
	case scope.PatientID != nil:
		return "p:" + scope.PatientID.String() + ":" + doctorID.String()
	case scope.DoctorID != nil:
		return "d:" + scope.DoctorID.String() + ":" + doctorID.String()
	default:
		return "none:" + doctorID.String()
	}
}
