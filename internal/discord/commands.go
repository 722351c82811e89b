package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// commandAPI is the application command part of *discordgo.Session.
type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// HashStore remembers the definition hashes last pushed per scope. An empty
// scope means global commands. *storage.Storage implements it.
type HashStore interface {
	CommandHashes(scope string) (map[string]string, error)
	SaveCommandHashes(scope string, hashes map[string]string) error
}

// registrationInterval keeps sequential command writes well under Discord's
// per-route limit.
const registrationInterval = 250 * time.Millisecond

// SyncResult counts what a Sync changed.
type SyncResult struct {
	Created []string
	Deleted []string
}

// CommandSyncer pushes slash command definitions to Discord, touching only
// what changed since the last run.
type CommandSyncer struct {
	api     commandAPI
	hashes  HashStore
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewCommandSyncer(api commandAPI, hashes HashStore, log *zap.Logger) *CommandSyncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandSyncer{
		api:     api,
		hashes:  hashes,
		limiter: rate.NewLimiter(rate.Every(registrationInterval), 1),
		log:     log.Named("commands"),
	}
}

// Sync deletes remote commands that no longer exist locally and creates the
// ones whose hash changed or that are missing remotely.
func (s *CommandSyncer) Sync(ctx context.Context, appID, guildID string, defs []*discordgo.ApplicationCommand) (SyncResult, error) {
	var res SyncResult
	log := s.log.With(zap.String("scope", scopeName(guildID)))

	remote, err := s.api.ApplicationCommands(appID, guildID)
	if err != nil {
		return res, errors.Wrap(err, "list remote commands")
	}
	cached, err := s.hashes.CommandHashes(guildID)
	if err != nil {
		return res, errors.Wrap(err, "load command hashes")
	}

	local := make(map[string]string, len(defs))
	for _, d := range defs {
		local[d.Name] = hashCommand(d)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, rc := range remote {
		remoteByName[rc.Name] = rc
	}

	var errs error
	for name, rc := range remoteByName {
		if _, keep := local[name]; keep {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return res, err
		}
		if err := s.api.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "delete %s", name))
			continue
		}
		delete(cached, name)
		res.Deleted = append(res.Deleted, name)
		log.Info("deleted obsolete command", zap.String("command", name))
	}

	for _, d := range defs {
		_, exists := remoteByName[d.Name]
		if exists && cached[d.Name] == local[d.Name] {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return res, err
		}
		if _, err := s.api.ApplicationCommandCreate(appID, guildID, d); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "create %s", d.Name))
			continue
		}
		cached[d.Name] = local[d.Name]
		res.Created = append(res.Created, d.Name)
		log.Info("registered command", zap.String("command", d.Name))
	}

	if err := s.hashes.SaveCommandHashes(guildID, cached); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "save command hashes"))
	}
	if len(res.Created) == 0 && len(res.Deleted) == 0 {
		log.Debug("commands up to date", zap.Int("count", len(defs)))
	}
	return res, errs
}

// Overwrite replaces the whole command set in one request and resets the
// stored hashes to match.
func (s *CommandSyncer) Overwrite(ctx context.Context, appID, guildID string, defs []*discordgo.ApplicationCommand) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	created, err := s.api.ApplicationCommandBulkOverwrite(appID, guildID, defs)
	if err != nil {
		return errors.Wrap(err, "bulk overwrite commands")
	}

	hashes := make(map[string]string, len(defs))
	for _, d := range defs {
		hashes[d.Name] = hashCommand(d)
	}
	s.log.Info("commands overwritten", zap.String("scope", scopeName(guildID)), zap.Int("count", len(created)))
	return errors.Wrap(s.hashes.SaveCommandHashes(guildID, hashes), "save command hashes")
}

func scopeName(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return guildID
}
