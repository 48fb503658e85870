package maintenance

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"
)

const backupTimeFormat = "20060102-150405"

// backupPattern matches snapshot names: history-YYYYMMDD-HHMMSS.db, with
// -N appended for further snapshots taken within the same second.
var backupPattern = regexp.MustCompile(`^history-(\d{8}-\d{6})(?:-(\d+))?\.db$`)

// Backup describes one snapshot file.
type Backup struct {
	Path      string
	Size      int64
	CreatedAt time.Time

	seq int
}

// Backup writes a consistent copy of the database into dir using VACUUM
// INTO and then removes all but the newest keep snapshots. keep <= 0 keeps
// every snapshot.
func (s *Service) Backup(ctx context.Context, dir string, keep int) (*Backup, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	now := time.Now().UTC()
	dest, err := freeName(dir, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return nil, fmt.Errorf("VACUUM INTO: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}
	s.logger.Info("backup complete", "path", dest, "size", info.Size())

	if keep > 0 {
		if err := s.pruneBackups(dir, keep); err != nil {
			return nil, err
		}
	}
	return &Backup{Path: dest, Size: info.Size(), CreatedAt: now}, nil
}

// freeName returns the first snapshot path for t that does not exist yet.
func freeName(dir string, t time.Time) (string, error) {
	stamp := t.Format(backupTimeFormat)
	for seq := 0; seq < 1000; seq++ {
		name := "history-" + stamp + ".db"
		if seq > 0 {
			name = fmt.Sprintf("history-%s-%d.db", stamp, seq)
		}
		path := filepath.Join(dir, name)
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("checking backup name: %w", err)
		}
	}
	return "", fmt.Errorf("too many backups for %s in %s", stamp, dir)
}

// ListBackups returns the snapshots in dir, newest first.
func ListBackups(dir string) ([]Backup, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []Backup
	for _, e := range entries {
		m := backupPattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		ts, err := time.Parse(backupTimeFormat, m[1])
		if err != nil {
			ts = info.ModTime()
		}
		seq, _ := strconv.Atoi(m[2])
		backups = append(backups, Backup{Path: filepath.Join(dir, e.Name()), Size: info.Size(), CreatedAt: ts, seq: seq})
	}

	slices.SortFunc(backups, func(a, b Backup) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	return backups, nil
}

func (s *Service) pruneBackups(dir string, keep int) error {
	backups, err := ListBackups(dir)
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}
	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil {
			s.logger.Warn("removing old backup", "path", b.Path, "error", err)
			continue
		}
		s.logger.Info("pruned old backup", "path", b.Path)
	}
	return nil
}
