package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/policy"
)

// All repository interfaces in one file
type (
	// UserRepository handles identity storage. Create inserts the
	// matching role profile in the same transaction when the user
	// carries a role; AssignRole performs the one-time unassigned to
	// patient/doctor transition together with profile creation.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) error
		UpdateEmailVerified(ctx context.Context, userID uuid.UUID, verified bool) error
		UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	}

	// ProfileRepository reads and updates role profiles. Profile rows
	// are created by UserRepository inside the registration and
	// role-assignment transactions, never here.
	ProfileRepository interface {
		GetPatientProfile(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
		GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
		UpdatePatientProfile(ctx context.Context, profile *model.PatientProfile) error
		UpdateDoctorProfile(ctx context.Context, profile *model.DoctorProfile) error
		ListDoctorProfiles(ctx context.Context, filters *model.DoctorFilters) ([]*model.DoctorProfile, error)
	}

	// AppointmentRepository persists appointments. The WithEvent
	// variants insert the outbox event in the same transaction as the
	// appointment write.
	AppointmentRepository interface {
		CreateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, scope policy.Scope, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	FeedbackRepository interface {
		Create(ctx context.Context, feedback *model.AppointmentFeedback) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentFeedback, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.AppointmentFeedback, error)
		List(ctx context.Context, scope policy.Scope) ([]*model.AppointmentFeedback, error)
		AverageRatingForDoctor(ctx context.Context, scope policy.Scope, doctorID uuid.UUID) (*float64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	TokenRepository interface {
		StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error)
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateToken(ctx context.Context, token string) error
	}
)
