// Package storage keeps per-guild state in a JSON file datastore.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/keshon/datastore"
	"github.com/keshon/rockola/internal/stats"
	"github.com/pkg/errors"
)

const commandHistoryLimit int = 20

// commandScopeGlobal keys the hash record for globally registered commands.
const commandScopeGlobal = "global"

type Storage struct {
	ds     *datastore.DataStore
	cancel context.CancelFunc
	mu     sync.Mutex
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	PlayTally           []stats.Entry          `json:"play_tally"`
}

// commandRecord is stored under "commands:<scope>" and holds the
// definition hashes last pushed to Discord.
type commandRecord struct {
	Hashes map[string]string `json:"hashes"`
}

// New opens the datastore file, creating it and its directory when missing.
// The autosave loop runs until ctx is done or Close is called.
func New(ctx context.Context, filePath string) (*Storage, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create datastore dir %s", dir)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	ds, err := datastore.New(ctx, filePath)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "open datastore %s", filePath)
	}
	return &Storage{ds: ds, cancel: cancel}, nil
}

// Close stops autosave and writes the file one last time.
func (s *Storage) Close() error {
	s.cancel()
	return errors.Wrap(s.ds.Close(), "close datastore")
}

// getOrCreateGuildRecord must be called with s.mu held.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	var record Record
	exists, err := s.ds.Get(guildID, &record)
	if err != nil {
		return nil, errors.Wrapf(err, "load guild %s", guildID)
	}
	if !exists {
		return &Record{
			CommandsHistoryList: []CommandHistoryRecord{},
			PlayTally:           []stats.Entry{},
		}, nil
	}
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	return &record, nil
}

// AppendCommandToHistory appends a command history record for a guild
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistoryList = append(record.CommandsHistoryList, command)
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	return errors.Wrapf(s.ds.Set(guildID, record), "save guild %s", guildID)
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}

// TallySnapshot returns the persisted play tally of a guild.
func (s *Storage) TallySnapshot(guildID string) ([]stats.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return append([]stats.Entry(nil), record.PlayTally...), nil
}

func (s *Storage) SaveTallySnapshot(guildID string, entries []stats.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	record.PlayTally = append([]stats.Entry(nil), entries...)
	return errors.Wrapf(s.ds.Set(guildID, record), "save guild %s", guildID)
}

func commandKey(scope string) string {
	if scope == "" {
		scope = commandScopeGlobal
	}
	return "commands:" + scope
}

// CommandHashes returns the definition hashes stored for a guild, or for the
// global command set when scope is empty.
func (s *Storage) CommandHashes(scope string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec commandRecord
	if _, err := s.ds.Get(commandKey(scope), &rec); err != nil {
		return nil, errors.Wrapf(err, "load command hashes for %s", commandKey(scope))
	}
	if rec.Hashes == nil {
		rec.Hashes = make(map[string]string)
	}
	return rec.Hashes, nil
}

func (s *Storage) SaveCommandHashes(scope string, hashes map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := commandRecord{Hashes: make(map[string]string, len(hashes))}
	for k, v := range hashes {
		rec.Hashes[k] = v
	}
	return errors.Wrapf(s.ds.Set(commandKey(scope), rec), "save command hashes for %s", commandKey(scope))
}
