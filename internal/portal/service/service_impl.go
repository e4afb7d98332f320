package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	portalKeyPrefix      = "pk_live_"
	portalKeySecretBytes = 32
	touchTimeout         = 5 * time.Second
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  portaldomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  portaldomain.Repository
	genID *snowflake.Node
}

func New(p Params) portaldomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("portal.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Verify(ctx context.Context, apiKey, portalSlug string) (snowflake.ID, error) {
	apiKey = strings.TrimSpace(apiKey)
	portalSlug = strings.TrimSpace(portalSlug)
	if apiKey == "" || portalSlug == "" {
		return 0, portaldomain.ErrUnauthorized
	}

	hash := portaldomain.HashPortalKey(apiKey)
	record, err := s.repo.FindActiveKeyByHash(ctx, s.db, hash)
	if err != nil {
		return 0, err
	}
	if record == nil || subtle.ConstantTimeCompare([]byte(record.KeyHash), []byte(hash)) != 1 {
		s.log.Warn("portal key rejected", zap.String("key_prefix", portaldomain.KeyPrefix(apiKey)))
		return 0, portaldomain.ErrUnauthorized
	}

	// A key valid for portal A must not be replayed while claiming portal B.
	if !record.PortalLive || record.PortalSlug != portalSlug {
		s.log.Warn("portal slug mismatch or portal inactive",
			zap.String("claimed", portalSlug),
			zap.Bool("portal_live", record.PortalLive),
		)
		return 0, portaldomain.ErrUnauthorized
	}

	s.touchLastUsed(record.ID)
	return record.PortalID, nil
}

// touchLastUsed stamps last_used_at out of band. The stamp is telemetry,
// not correctness-bearing; a failed touch never fails the request.
func (s *Service) touchLastUsed(keyID snowflake.ID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := s.repo.TouchLastUsed(ctx, s.db, keyID); err != nil {
			s.log.Debug("last_used_at touch failed", zap.Error(err))
		}
	}()
}

func (s *Service) FindBySlug(ctx context.Context, slug string) (*portaldomain.Portal, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, portaldomain.ErrPortalNotFound
	}
	portal, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}
	if portal == nil {
		return nil, portaldomain.ErrPortalNotFound
	}
	return portal, nil
}

func (s *Service) ListActive(ctx context.Context) ([]portaldomain.Portal, error) {
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) IssueKey(ctx context.Context, portalID snowflake.ID, name string) (*portaldomain.SecretResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, portaldomain.ErrInvalidName
	}

	plain, hash, err := generatePortalKey()
	if err != nil {
		return nil, err
	}

	key := &portaldomain.PortalKey{
		ID:        s.genID.Generate(),
		PortalID:  portalID,
		Name:      name,
		KeyHash:   hash,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertKey(ctx, s.db, key); err != nil {
		return nil, err
	}

	return &portaldomain.SecretResponse{KeyID: key.ID, APIKey: plain}, nil
}

func (s *Service) RevokeKey(ctx context.Context, keyID snowflake.ID) error {
	key, err := s.repo.FindKeyByID(ctx, s.db, keyID)
	if err != nil {
		return err
	}
	if key == nil {
		return portaldomain.ErrKeyNotFound
	}

	key.Active = false
	return s.repo.UpdateKey(ctx, s.db, key)
}

func generatePortalKey() (string, string, error) {
	secret := make([]byte, portalKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}

	plain := fmt.Sprintf("%s%s", portalKeyPrefix, hex.EncodeToString(secret))
	return plain, portaldomain.HashPortalKey(plain), nil
}
