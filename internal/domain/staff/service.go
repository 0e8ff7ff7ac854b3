package staff

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/area"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/identity"
)

// placeholderName fills first and last name until the lead edits the profile.
const placeholderName = "Pendiente"

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IdentityProvider manages the credential side of staff accounts.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password string) (*identity.User, error)
	UpdatePassword(ctx context.Context, userID, password string) error
	DeleteUser(ctx context.Context, userID string) error
}

type AreaGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*area.Area, error)
}

type Service struct {
	repo     Repository
	identity IdentityProvider
	areas    AreaGetter
	logger   zerolog.Logger
}

func NewService(repo Repository, idp IdentityProvider, areas AreaGetter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, identity: idp, areas: areas, logger: logger}
}

// GetAccount implements auth.AccountLookup.
func (s *Service) GetAccount(ctx context.Context, id string) (*auth.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("staff user not found")
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

func (s *Service) ListAreaLeads(ctx context.Context) ([]*StaffUser, error) {
	out, err := s.repo.ListByRole(ctx, auth.RoleAreaLead)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*StaffUser{}
	}
	return out, nil
}

// TempPassword builds "<local part, up to 8 chars>-<8 random alphanumerics>".
func TempPassword(email string) (string, error) {
	prefix := strings.SplitN(email, "@", 2)[0]
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if prefix == "" {
		prefix = "user"
	}
	suffix := make([]byte, 8)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		suffix[i] = passwordAlphabet[n.Int64()]
	}
	return prefix + "-" + string(suffix), nil
}

// CreateAreaLead provisions the identity account first and the local row
// second. If the local insert fails the identity account is removed again.
func (s *Service) CreateAreaLead(ctx context.Context, in CreateInput) (*Created, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.Validation("invalid email %q", in.Email)
	}
	if _, err := s.areas.Get(ctx, in.AreaID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("a staff user with email %s already exists", email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	password, err := TempPassword(email)
	if err != nil {
		return nil, err
	}
	account, err := s.identity.CreateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(account.ID)
	if err != nil {
		s.rollbackIdentity(ctx, account.ID)
		return nil, fmt.Errorf("identity provider returned invalid user id %q", account.ID)
	}

	areaID := in.AreaID
	u := &StaffUser{
		ID:        uid,
		Email:     email,
		FirstName: placeholderName,
		LastName:  placeholderName,
		Role:      auth.RoleAreaLead,
		AreaID:    &areaID,
		Active:    true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.rollbackIdentity(ctx, account.ID)
		return nil, err
	}

	s.logger.Info().Str("user_id", uid.String()).Str("area_id", areaID.String()).Msg("area lead created")
	return &Created{User: u, TempPassword: password}, nil
}

func (s *Service) rollbackIdentity(ctx context.Context, userID string) {
	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("rollback identity account")
	}
}

func (s *Service) areaLead(ctx context.Context, id uuid.UUID) (*StaffUser, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleAreaLead {
		return nil, apperr.Validation("only AREA_LEAD users can be managed")
	}
	return u, nil
}

func (s *Service) PatchAreaLead(ctx context.Context, id uuid.UUID, in PatchInput) (*StaffUser, error) {
	u, err := s.areaLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.AreaID != nil {
		if _, err := s.areas.Get(ctx, *in.AreaID); err != nil {
			return nil, err
		}
		areaID := *in.AreaID
		u.AreaID = &areaID
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id.String()).Bool("active", u.Active).Msg("area lead updated")
	return u, nil
}

// DeleteAreaLead removes the identity account, then the local row. An id
// unknown locally still has its identity account removed.
func (s *Service) DeleteAreaLead(ctx context.Context, id uuid.UUID) error {
	u, err := s.areaLead(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.identity.DeleteUser(ctx, id.String())
	}
	if err != nil {
		return err
	}
	if err := s.identity.DeleteUser(ctx, u.ID.String()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Msg("area lead deleted")
	return nil
}

func (s *Service) Profile(ctx context.Context, id string) (*StaffUser, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("staff user not found")
	}
	return s.repo.GetByID(ctx, uid)
}

// UpdateProfile edits the caller's own names and phone. Blank names keep the
// current value; a blank phone clears it. A new password goes to the identity
// provider after the local update.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*StaffUser, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if in.FirstName != nil {
		if v := strings.TrimSpace(*in.FirstName); v != "" {
			u.FirstName = v
		}
		changed = true
	}
	if in.LastName != nil {
		if v := strings.TrimSpace(*in.LastName); v != "" {
			u.LastName = v
		}
		changed = true
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
		changed = true
	}
	if changed {
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, err
		}
	}

	if in.NewPassword != "" {
		if err := s.identity.UpdatePassword(ctx, u.ID.String(), in.NewPassword); err != nil {
			return nil, err
		}
	}
	return u, nil
}
