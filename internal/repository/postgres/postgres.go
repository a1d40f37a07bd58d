package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/careloop/booking-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

type profileRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type feedbackRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewFeedbackRepository(db *sqlx.DB) repository.FeedbackRepository {
	return &feedbackRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}
