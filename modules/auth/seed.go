package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domain "github.com/kabilangimba/team-task-management-system/domain/user"
)

// SeedFile is the on-disk format of the bootstrap user list.
//
//	users:
//	  - email: admin@example.com
//	    password: change-me-now
//	    name: Admin
//	    role: admin
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one account in a seed file.
type SeedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed file contents and checks every role.
func ParseSeed(data []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, u := range f.Users {
		if _, err := domain.ParseRole(u.Role); err != nil {
			return nil, fmt.Errorf("seed user %d (%s): %w", i, u.Email, ErrInvalidRole)
		}
	}
	return &f, nil
}

// Seed creates every user in f that does not exist yet and returns how many were created.
func (s *AuthService) Seed(ctx context.Context, f *SeedFile) (int, error) {
	created := 0
	for _, u := range f.Users {
		_, err := s.Bootstrap(ctx, NewUser{
			Email:    u.Email,
			Password: u.Password,
			Name:     u.Name,
			Role:     domain.Role(u.Role),
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrUserExists):
			s.logger.Debug("seed user already exists", "email", u.Email)
		default:
			return created, fmt.Errorf("failed to seed %s: %w", u.Email, err)
		}
	}
	return created, nil
}
