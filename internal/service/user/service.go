package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/repository"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

// Service handles identity and profile operations. Profile creation is
// an explicit step of registration and role assignment, executed in
// the same transaction as the role write.
type Service struct {
	repo        repository.UserRepository
	profileRepo repository.ProfileRepository
}

func NewService(repo repository.UserRepository, profileRepo repository.ProfileRepository) *Service {
	return &Service{
		repo:        repo,
		profileRepo: profileRepo,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

// GetWithProfile returns the user with their role profile embedded.
func (s *Service) GetWithProfile(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &model.UserResponse{User: user}
	switch user.Role {
	case model.RolePatient:
		profile, err := s.profileRepo.GetPatientProfile(ctx, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to load patient profile: %w", err)
		}
		resp.PatientProfile = profile
	case model.RoleDoctor:
		profile, err := s.profileRepo.GetDoctorProfile(ctx, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to load doctor profile: %w", err)
		}
		resp.DoctorProfile = profile
	}
	return resp, nil
}

// SetRole performs the one-time role selection. The matching profile
// is created in the same transaction; choosing a role twice is
// rejected.
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	if !role.Assignable() {
		return apperrors.BadRequest("role must be patient or doctor", nil)
	}
	return s.repo.AssignRole(ctx, userID, role)
}

// UpdateSelf applies a user's own updates, including their role
// profile when one is present.
func (s *Service) UpdateSelf(ctx context.Context, userID uuid.UUID, req *model.UpdateUserRequest) (*model.UserResponse, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if user.Role == model.RolePatient && req.PatientProfile != nil {
		if err := s.updatePatientProfile(ctx, userID, req.PatientProfile); err != nil {
			return nil, err
		}
	}
	if user.Role == model.RoleDoctor && req.DoctorProfile != nil {
		if err := s.updateDoctorProfile(ctx, userID, req.DoctorProfile); err != nil {
			return nil, err
		}
	}

	return s.GetWithProfile(ctx, userID)
}

func (s *Service) updatePatientProfile(ctx context.Context, userID uuid.UUID, req *model.UpdatePatientProfile) error {
	profile, err := s.profileRepo.GetPatientProfile(ctx, userID)
	if err != nil {
		return err
	}
	if req.DateOfBirth != nil {
		profile.DateOfBirth = req.DateOfBirth
	}
	if req.ImageURL != nil {
		profile.ImageURL = req.ImageURL
	}
	return s.profileRepo.UpdatePatientProfile(ctx, profile)
}

func (s *Service) updateDoctorProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateDoctorProfile) error {
	profile, err := s.profileRepo.GetDoctorProfile(ctx, userID)
	if err != nil {
		return err
	}
	if req.Specialization != nil {
		if !req.Specialization.Valid() {
			return apperrors.BadRequest("invalid specialization", nil)
		}
		profile.Specialization = *req.Specialization
	}
	if req.Availability != nil {
		profile.Availability = *req.Availability
	}
	if req.ImageURL != nil {
		profile.ImageURL = req.ImageURL
	}
	return s.profileRepo.UpdateDoctorProfile(ctx, profile)
}

// GetPatientProfile returns a patient profile, restricted to staff or
// the owner.
func (s *Service) GetPatientProfile(ctx context.Context, actor *model.User, userID uuid.UUID) (*model.PatientProfile, error) {
	if actor.Role != model.RoleStaff && actor.ID != userID {
		return nil, apperrors.NotFound("patient profile", nil)
	}
	return s.profileRepo.GetPatientProfile(ctx, userID)
}

// GetDoctorProfile returns a doctor profile. Doctor profiles are
// readable by any authenticated user so patients can browse doctors.
func (s *Service) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	return s.profileRepo.GetDoctorProfile(ctx, userID)
}

// ListDoctors returns doctor profiles filtered by specialization or
// availability.
func (s *Service) ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.DoctorProfile, error) {
	if filters != nil && filters.Specialization != "" && !filters.Specialization.Valid() {
		return nil, apperrors.BadRequest("invalid specialization", nil)
	}
	return s.profileRepo.ListDoctorProfiles(ctx, filters)
}
