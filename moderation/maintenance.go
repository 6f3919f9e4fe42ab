package moderation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// RunDailyMaintenance snapshots the database and log files every day at
// 23:59 local time and delivers both to the owner. Runs until the context is
// cancelled; a failed delivery is logged and retried the next day.
func (e *Engine) RunDailyMaintenance(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(untilNext(23, 59) + time.Second):
		}
		if err := e.DeliverBackup(ctx, e.Config.OwnerID); err != nil {
			e.Logger.Error("daily backup failed", "err", err)
		}
		if err := e.DeliverLogExport(ctx, e.Config.OwnerID); err != nil {
			e.Logger.Error("daily log export failed", "err", err)
		}
	}
}

func untilNext(hour, minute int) time.Duration {
	now := time.Now()
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

// CreateBackupFile copies the live database file into backups/ and returns
// the snapshot path.
func (e *Engine) CreateBackupFile() (string, error) {
	if e.Config.DatabasePath == "" {
		return "", fmt.Errorf("no database path configured")
	}
	return snapshotFile(e.Config.DatabasePath, "backups", "warden_backup")
}

// ExportLogsFile copies the current log file into logs_export/ and returns
// the snapshot path.
func (e *Engine) ExportLogsFile() (string, error) {
	if e.Config.LogPath == "" {
		return "", fmt.Errorf("no log path configured")
	}
	return snapshotFile(e.Config.LogPath, "logs_export", "warden_log")
}

func snapshotFile(src, dir, prefix string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, time.Now().Format("20060102_150405"), filepath.Ext(src)))
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return dst, nil
}

// DeliverBackup snapshots the database and sends it to the destination as an
// uploaded document.
func (e *Engine) DeliverBackup(ctx context.Context, destination int64) error {
	if destination == 0 {
		return fmt.Errorf("no destination configured")
	}
	path, err := e.CreateBackupFile()
	if err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}
	ref, err := e.Client.UploadDocument(ctx, destination, path, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("uploading backup: %w", err)
	}
	return e.Client.SendWithAttachment(ctx, destination, []string{ref}, "✅ Database backup")
}

// DeliverLogExport snapshots the log file and sends it to the destination.
func (e *Engine) DeliverLogExport(ctx context.Context, destination int64) error {
	if destination == 0 {
		return fmt.Errorf("no destination configured")
	}
	path, err := e.ExportLogsFile()
	if err != nil {
		return fmt.Errorf("exporting logs: %w", err)
	}
	ref, err := e.Client.UploadDocument(ctx, destination, path, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("uploading logs: %w", err)
	}
	return e.Client.SendWithAttachment(ctx, destination, []string{ref}, "🗒️ Log export")
}

func (e *Engine) cmdBackup(ctx context.Context, evt *MessageEvent) error {
	if !e.allowed(ctx, evt, "backup") {
		return nil
	}
	if err := e.DeliverBackup(ctx, evt.Sender); err != nil {
		e.Logger.Error("backup delivery failed", "err", err)
		e.safeSend(ctx, evt.Conversation, "❌ Backup failed.")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, "✅ Backup created and delivered by direct message.")
	return nil
}

func (e *Engine) cmdExportLogs(ctx context.Context, evt *MessageEvent) error {
	if !e.allowed(ctx, evt, "exportlogs") {
		return nil
	}
	if err := e.DeliverLogExport(ctx, evt.Sender); err != nil {
		e.Logger.Error("log export delivery failed", "err", err)
		e.safeSend(ctx, evt.Conversation, "❌ Log export failed.")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, "✅ Logs exported and delivered by direct message.")
	return nil
}
