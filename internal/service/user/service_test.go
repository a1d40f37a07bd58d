package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/booking-api/internal/model"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

type fakeUserRepo struct {
	users    map[uuid.UUID]*model.User
	profiles *fakeProfileRepo
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperrors.Conflict("email already registered", nil)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return r.profiles.ensureFor(user)
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) AssignRole(_ context.Context, userID uuid.UUID, role model.Role) error {
	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user", nil)
	}
	if u.Role != model.RoleUnassigned {
		return apperrors.BadRequest("role cannot be changed once set", nil)
	}
	u.Role = role
	return r.profiles.ensureFor(u)
}

func (r *fakeUserRepo) UpdateEmailVerified(_ context.Context, userID uuid.UUID, verified bool) error {
	if u, ok := r.users[userID]; ok {
		u.EmailVerified = verified
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}

type fakeProfileRepo struct {
	patients map[uuid.UUID]*model.PatientProfile
	doctors  map[uuid.UUID]*model.DoctorProfile
}

// ensureFor mirrors the idempotent profile insert the real user
// repository performs inside its transactions.
func (r *fakeProfileRepo) ensureFor(user *model.User) error {
	switch user.Role {
	case model.RolePatient:
		if _, ok := r.patients[user.ID]; !ok {
			r.patients[user.ID] = &model.PatientProfile{UserID: user.ID}
		}
	case model.RoleDoctor:
		if _, ok := r.doctors[user.ID]; !ok {
			r.doctors[user.ID] = &model.DoctorProfile{
				UserID:         user.ID,
				Specialization: model.SpecializationGeneral,
				Availability:   true,
			}
		}
	}
	return nil
}

func (r *fakeProfileRepo) GetPatientProfile(_ context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	p, ok := r.patients[userID]
	if !ok {
		return nil, apperrors.NotFound("patient profile", nil)
	}
	return p, nil
}

func (r *fakeProfileRepo) GetDoctorProfile(_ context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	p, ok := r.doctors[userID]
	if !ok {
		return nil, apperrors.NotFound("doctor profile", nil)
	}
	return p, nil
}

func (r *fakeProfileRepo) UpdatePatientProfile(_ context.Context, profile *model.PatientProfile) error {
	r.patients[profile.UserID] = profile
	return nil
}

func (r *fakeProfileRepo) UpdateDoctorProfile(_ context.Context, profile *model.DoctorProfile) error {
	r.doctors[profile.UserID] = profile
	return nil
}

func (r *fakeProfileRepo) ListDoctorProfiles(_ context.Context, filters *model.DoctorFilters) ([]*model.DoctorProfile, error) {
	var out []*model.DoctorProfile
	for _, p := range r.doctors {
		if filters != nil && filters.Specialization != "" && p.Specialization != filters.Specialization {
			continue
		}
		if filters != nil && filters.AvailableOnly && !p.Availability {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func setup() (*Service, *fakeUserRepo, *fakeProfileRepo) {
	profiles := &fakeProfileRepo{
		patients: make(map[uuid.UUID]*model.PatientProfile),
		doctors:  make(map[uuid.UUID]*model.DoctorProfile),
	}
	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User), profiles: profiles}
	return NewService(users, profiles), users, profiles
}

func addUser(users *fakeUserRepo, role model.Role) *model.User {
	u := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: uuid.NewString() + "@example.com",
		Name:  "Someone",
		Role:  role,
	}
	users.users[u.ID] = u
	users.profiles.ensureFor(u)
	return u
}

func TestSetRoleOnce(t *testing.T) {
	svc, users, profiles := setup()
	u := addUser(users, model.RoleUnassigned)

	require.NoError(t, svc.SetRole(context.Background(), u.ID, model.RoleDoctor))
	assert.Equal(t, model.RoleDoctor, u.Role)

	_, ok := profiles.doctors[u.ID]
	assert.True(t, ok, "doctor profile created with role assignment")

	// A second selection is rejected, including re-selecting the same
	// role.
	err := svc.SetRole(context.Background(), u.ID, model.RolePatient)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	err = svc.SetRole(context.Background(), u.ID, model.RoleDoctor)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Equal(t, model.RoleDoctor, u.Role)
}

func TestSetRoleRejectsUnassignableRoles(t *testing.T) {
	svc, users, _ := setup()
	u := addUser(users, model.RoleUnassigned)

	for _, role := range []model.Role{model.RoleStaff, model.RoleUnassigned, model.Role("admin")} {
		err := svc.SetRole(context.Background(), u.ID, role)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest), "role %s", role)
	}
}

func TestGetWithProfileEmbedsRoleProfile(t *testing.T) {
	svc, users, _ := setup()
	doctor := addUser(users, model.RoleDoctor)
	patient := addUser(users, model.RolePatient)
	staff := addUser(users, model.RoleStaff)

	resp, err := svc.GetWithProfile(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.DoctorProfile)
	assert.Nil(t, resp.PatientProfile)
	assert.Equal(t, model.SpecializationGeneral, resp.DoctorProfile.Specialization)

	resp, err = svc.GetWithProfile(context.Background(), patient.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.PatientProfile)
	assert.Nil(t, resp.DoctorProfile)

	resp, err = svc.GetWithProfile(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.PatientProfile)
	assert.Nil(t, resp.DoctorProfile)
}

func TestUpdateSelfDoctorProfile(t *testing.T) {
	svc, users, _ := setup()
	doctor := addUser(users, model.RoleDoctor)

	spec := model.SpecializationCardiology
	available := false
	name := "Dr. Updated"
	resp, err := svc.UpdateSelf(context.Background(), doctor.ID, &model.UpdateUserRequest{
		Name: &name,
		DoctorProfile: &model.UpdateDoctorProfile{
			Specialization: &spec,
			Availability:   &available,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Updated", resp.Name)
	require.NotNil(t, resp.DoctorProfile)
	assert.Equal(t, model.SpecializationCardiology, resp.DoctorProfile.Specialization)
	assert.False(t, resp.DoctorProfile.Availability)
}

func TestUpdateSelfRejectsInvalidSpecialization(t *testing.T) {
	svc, users, _ := setup()
	doctor := addUser(users, model.RoleDoctor)

	bad := model.Specialization("XRAY")
	_, err := svc.UpdateSelf(context.Background(), doctor.ID, &model.UpdateUserRequest{
		DoctorProfile: &model.UpdateDoctorProfile{Specialization: &bad},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestGetPatientProfileRestricted(t *testing.T) {
	svc, users, _ := setup()
	patient := addUser(users, model.RolePatient)
	staff := addUser(users, model.RoleStaff)
	doctor := addUser(users, model.RoleDoctor)

	_, err := svc.GetPatientProfile(context.Background(), patient, patient.ID)
	require.NoError(t, err)

	_, err = svc.GetPatientProfile(context.Background(), staff, patient.ID)
	require.NoError(t, err)

	_, err = svc.GetPatientProfile(context.Background(), doctor, patient.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListDoctorsFilters(t *testing.T) {
	svc, users, profiles := setup()
	d1 := addUser(users, model.RoleDoctor)
	d2 := addUser(users, model.RoleDoctor)
	profiles.doctors[d2.ID].Specialization = model.SpecializationDental
	profiles.doctors[d2.ID].Availability = false

	all, err := svc.ListDoctors(context.Background(), &model.DoctorFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	dental, err := svc.ListDoctors(context.Background(), &model.DoctorFilters{Specialization: model.SpecializationDental})
	require.NoError(t, err)
	require.Len(t, dental, 1)
	assert.Equal(t, d2.ID, dental[0].UserID)

	available, err := svc.ListDoctors(context.Background(), &model.DoctorFilters{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, d1.ID, available[0].UserID)

	_, err = svc.ListDoctors(context.Background(), &model.DoctorFilters{Specialization: "NOPE"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
