// Package users provisions accounts and issues access tokens for them.
// Credential checks are out of scope: whoever can run the provisioning
// command is trusted to mint tokens.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/auth"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
)

type Service struct {
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewService(m repomanager.RepositoryManager, cfg *config.Config) *Service {
	return &Service{
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Provision returns the user with the given name, creating it if needed.
func (s *Service) Provision(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.NewValidationError(common.FieldUsername, common.ReasonRequired)
	}

	repo := s.repomanager.Users(s.repomanager.Conn())

	user, err := repo.GetUserByLogin(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	user, err = repo.Create(ctx, &models.User{UserName: username})
	if err != nil {
		// lost a race with a concurrent provision
		if _, ok := common.IsValidation(err); ok {
			return repo.GetUserByLogin(ctx, username)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// IssueToken provisions username and returns a signed access token for it.
func (s *Service) IssueToken(ctx context.Context, username string) (string, *models.User, error) {
	user, err := s.Provision(ctx, username)
	if err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, user, nil
}
