// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/google/renameio/v2"
)

// FilePublisher writes each packet to <dir>/<sessionId>.json. Readers never
// observe a partially written file.
type FilePublisher struct {
	dir string
}

// NewFilePublisher creates dir if needed.
func NewFilePublisher(dir string) (*FilePublisher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create handoff dir: %w", err)
	}
	return &FilePublisher{dir: dir}, nil
}

// Path returns where the packet for sessionID is written.
func (f *FilePublisher) Path(sessionID string) string {
	return filepath.Join(f.dir, filepath.Base(sessionID)+".json")
}

func (f *FilePublisher) Publish(ctx context.Context, packet domain.EscalationPacket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := xglog.FromContext(ctx)

	pending, err := renameio.NewPendingFile(f.Path(packet.SessionID))
	if err != nil {
		return fmt.Errorf("create pending handoff file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending handoff file")
		}
	}()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(packet); err != nil {
		return fmt.Errorf("encode handoff packet: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace handoff file: %w", err)
	}
	return nil
}

func (f *FilePublisher) Close() error { return nil }
