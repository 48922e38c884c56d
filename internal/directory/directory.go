// Package directory lists a clinic's doctors, patients and staff.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Doctor is a clinic doctor.
type Doctor struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Patient is a clinic patient.
type Patient struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// StaffMember is a non-doctor clinic user.
type StaffMember struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

// Backend is the clinic REST backend's directory surface.
type Backend interface {
	Doctors(ctx context.Context, clinicID int64) ([]Doctor, error)
	Patients(ctx context.Context, clinicID int64) ([]Patient, error)
	Staff(ctx context.Context, clinicID int64) ([]StaffMember, error)
	MyPatients(ctx context.Context) ([]Patient, error)
}

// Service reads directories through a short-lived Redis cache.
type Service struct {
	backend Backend
	redis   *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
}

// NewService creates a directory service. A nil redis client disables caching.
func NewService(backend Backend, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, redis: redisClient, ttl: ttl, logger: logger}
}

func cacheKey(kind string, clinicID int64) string {
	return fmt.Sprintf("clinicdesk:directory:%s:%d", kind, clinicID)
}

// cached returns the cached list under key or fetches and stores it.
// Cache failures are logged and bypassed.
func cached[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if s.redis != nil && s.ttl > 0 {
		data, err := s.redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var out []T
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
			s.logger.Warn("directory cache entry unreadable", "key", key)
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("directory cache read failed", "key", key, "error", err)
		}
	}

	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	if s.redis != nil && s.ttl > 0 {
		if data, err := json.Marshal(out); err == nil {
			if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
				s.logger.Warn("directory cache write failed", "key", key, "error", err)
			}
		}
	}
	return out, nil
}

// Doctors lists the clinic's doctors for any member.
func (s *Service) Doctors(ctx context.Context, sess *access.Session, clinicID int64, query string) ([]Doctor, error) {
	if _, ok := sess.Clinic(clinicID); !ok {
		return nil, access.ErrNotMember
	}
	list, err := cached(ctx, s, cacheKey("doctors", clinicID), func(ctx context.Context) ([]Doctor, error) {
		return s.backend.Doctors(ctx, clinicID)
	})
	if err != nil {
		return nil, fmt.Errorf("directory: doctors: %w", err)
	}
	return filter(list, query, func(d Doctor) []string { return []string{d.Name, d.Email, d.Specialty} }), nil
}

// Patients lists the clinic's patients; requires ViewPatients.
func (s *Service) Patients(ctx context.Context, sess *access.Session, clinicID int64, query string) ([]Patient, error) {
	if _, err := sess.Require(clinicID, access.ViewPatients); err != nil {
		return nil, err
	}
	list, err := cached(ctx, s, cacheKey("patients", clinicID), func(ctx context.Context) ([]Patient, error) {
		return s.backend.Patients(ctx, clinicID)
	})
	if err != nil {
		return nil, fmt.Errorf("directory: patients: %w", err)
	}
	return filter(list, query, func(p Patient) []string { return []string{p.Name, p.Email, p.Phone} }), nil
}

// Staff lists the clinic's staff; requires ManageStaff.
func (s *Service) Staff(ctx context.Context, sess *access.Session, clinicID int64, query string) ([]StaffMember, error) {
	if _, err := sess.Require(clinicID, access.ManageStaff); err != nil {
		return nil, err
	}
	list, err := cached(ctx, s, cacheKey("staff", clinicID), func(ctx context.Context) ([]StaffMember, error) {
		return s.backend.Staff(ctx, clinicID)
	})
	if err != nil {
		return nil, fmt.Errorf("directory: staff: %w", err)
	}
	return filter(list, query, func(m StaffMember) []string { return []string{m.Name, m.Email, m.Role} }), nil
}

// MyPatients lists the caller's own patients across clinics. It is never cached.
func (s *Service) MyPatients(ctx context.Context, query string) ([]Patient, error) {
	list, err := s.backend.MyPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory: my patients: %w", err)
	}
	if list == nil {
		list = []Patient{}
	}
	return filter(list, query, func(p Patient) []string { return []string{p.Name, p.Email, p.Phone} }), nil
}

// Invalidate drops the cached lists of a clinic.
func (s *Service) Invalidate(ctx context.Context, clinicID int64) error {
	if s.redis == nil {
		return nil
	}
	keys := []string{cacheKey("doctors", clinicID), cacheKey("patients", clinicID), cacheKey("staff", clinicID)}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("directory: invalidate: %w", err)
	}
	return nil
}

func filter[T any](list []T, query string, fields func(T) []string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := []T{}
	for _, item := range list {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), query) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
