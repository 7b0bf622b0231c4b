package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"marketboard/internal/apperr"
	"marketboard/internal/models"
)

// Behavior is one upload side-effect. Behaviors run in registration order;
// the first failure stops the chain without rolling back earlier ones.
type Behavior interface {
	Name() string
	ShouldExecute(p *Parameters) bool
	Execute(ctx context.Context, src *models.TrustedSource, p *Parameters) error
}

type sourceRegistry interface {
	Get(ctx context.Context, apiKey string) (*models.TrustedSource, error)
}

type uploaderBlacklist interface {
	Has(ctx context.Context, uploaderHash string) (bool, error)
}

type worldChecker interface {
	WorldName(id int32) (string, bool)
}

// Pipeline authenticates, sanitizes and commits an upload:
// Received → Authenticated → Hashed → (Blacklisted ⇒ Done) → behaviors →
// Done | Failed.
type Pipeline struct {
	registry  sourceRegistry
	blacklist uploaderBlacklist
	worlds    worldChecker
	behaviors []Behavior
	log       *zap.Logger
}

func NewPipeline(registry sourceRegistry, blacklist uploaderBlacklist, worlds worldChecker, behaviors []Behavior, log *zap.Logger) *Pipeline {
	return &Pipeline{
		registry:  registry,
		blacklist: blacklist,
		worlds:    worlds,
		behaviors: behaviors,
		log:       log.Named("upload"),
	}
}

// Process runs one upload end to end. A nil return means the client sees
// success — including the blacklisted case, which commits nothing.
func (pl *Pipeline) Process(ctx context.Context, apiKey string, body []byte) error {
	src, err := pl.registry.Get(ctx, apiKey)
	if err != nil {
		return apperr.Durable("authenticate upload", err)
	}
	if src == nil {
		return apperr.ErrForbidden
	}

	params, err := ParseParameters(body)
	if err != nil {
		return err
	}
	if params.WorldID != nil {
		if _, ok := pl.worlds.WorldName(*params.WorldID); !ok {
			return apperr.BadRequest(fmt.Sprintf("unknown world id %d", *params.WorldID))
		}
	}

	sum := sha256.Sum256([]byte(params.UploaderID))
	params.UploaderHash = hex.EncodeToString(sum[:])

	flagged, err := pl.blacklist.Has(ctx, params.UploaderHash)
	if err != nil {
		return apperr.Durable("blacklist check", err)
	}
	if flagged {
		// Response stays success; no behavior runs.
		pl.log.Debug("upload suppressed", zap.String("uploader_hash", params.UploaderHash))
		return nil
	}

	for _, b := range pl.behaviors {
		if !b.ShouldExecute(params) {
			continue
		}
		if err := b.Execute(ctx, src, params); err != nil {
			pl.log.Warn("upload behavior failed",
				zap.String("behavior", b.Name()),
				zap.String("source", src.Name),
				zap.Error(err))
			return err
		}
	}
	return nil
}
