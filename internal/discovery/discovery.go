// Package discovery enumerates project directories and their conversation
// logs on disk.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/models"
	"github.com/neilberkman/ccsearch/internal/parser"
)

// LogFile is one conversation log on disk
type LogFile struct {
	ID        string
	ProjectID string
	Path      string
	Size      int64
	ModTime   time.Time
}

// Scanner handles discovery of projects under a root directory
type Scanner struct {
	root   string
	logger *zap.Logger
}

// NewScanner creates a new scanner rooted at root
func NewScanner(root string, logger *zap.Logger) *Scanner {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Scanner{root: root, logger: logging.OrNop(logger)}
}

// Root returns the directory that holds project directories
func (s *Scanner) Root() string {
	return s.root
}

// DecodeProjectName turns a project directory name back into the working
// directory it was created for. The encoding replaces path separators with
// dashes, so dashes inside the original path cannot be recovered.
func DecodeProjectName(id string) string {
	if !strings.HasPrefix(id, "-") {
		return id
	}
	return strings.ReplaceAll(id, "-", "/")
}

// Projects lists every project directory, newest activity first. A missing
// root yields no projects.
func (s *Scanner) Projects() ([]models.Project, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Project{}, nil
		}
		return nil, fmt.Errorf("failed to read projects root %s: %w", s.root, err)
	}

	projects := make([]models.Project, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files, err := s.Conversations(entry.Name())
		if err != nil {
			// Log error but continue with other directories
			s.logger.Warn("failed to scan project", zap.String("project", entry.Name()), zap.Error(err))
			continue
		}
		latest, err := s.LatestModTime(entry.Name())
		if err != nil {
			s.logger.Warn("failed to stat project", zap.String("project", entry.Name()), zap.Error(err))
			continue
		}
		projects = append(projects, models.Project{
			ID:                entry.Name(),
			Name:              DecodeProjectName(entry.Name()),
			Path:              filepath.Join(s.root, entry.Name()),
			ConversationCount: len(files),
			LastModified:      latest,
		})
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].LastModified.Equal(projects[j].LastModified) {
			return projects[i].LastModified.After(projects[j].LastModified)
		}
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

// ProjectDir returns the directory of projectID, or an error wrapping
// models.ErrNotFound.
func (s *Scanner) ProjectDir(projectID string) (string, error) {
	if !validName(projectID) {
		return "", fmt.Errorf("project %q: %w", projectID, models.ErrNotFound)
	}
	dir := filepath.Join(s.root, projectID)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("project %q: %w", projectID, models.ErrNotFound)
		}
		return "", fmt.Errorf("failed to stat project %q: %w", projectID, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project %q: %w", projectID, models.ErrNotFound)
	}
	return dir, nil
}

// Conversations lists the log files of a project, newest first.
func (s *Scanner) Conversations(projectID string) ([]LogFile, error) {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %q: %w", projectID, err)
	}

	files := make([]LogFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != parser.LogExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, LogFile{
			ID:        parser.ConversationID(entry.Name()),
			ProjectID: projectID,
			Path:      filepath.Join(dir, entry.Name()),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	sortNewestFirst(files)
	return files, nil
}

// ConversationPath returns the log file of one conversation, or an error
// wrapping models.ErrNotFound.
func (s *Scanner) ConversationPath(projectID, conversationID string) (string, error) {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return "", err
	}
	if !validName(conversationID) {
		return "", fmt.Errorf("conversation %q: %w", conversationID, models.ErrNotFound)
	}
	path := filepath.Join(dir, conversationID+parser.LogExt)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("conversation %q: %w", conversationID, models.ErrNotFound)
		}
		return "", fmt.Errorf("failed to stat conversation %q: %w", conversationID, err)
	}
	return path, nil
}

// LatestModTime returns the newest modification time among the project
// directory itself and its log files. Appending to an existing log does not
// touch the directory, so the files have to be checked as well.
func (s *Scanner) LatestModTime(projectID string) (time.Time, error) {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat project %q: %w", projectID, err)
	}
	latest := info.ModTime()

	files, err := s.Conversations(projectID)
	if err != nil {
		return time.Time{}, err
	}
	for _, f := range files {
		if f.ModTime.After(latest) {
			latest = f.ModTime
		}
	}
	return latest, nil
}

// Recent returns conversations across all projects modified within since,
// newest first.
func (s *Scanner) Recent(since time.Duration) ([]LogFile, error) {
	projects, err := s.Projects()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-since)
	var recent []LogFile
	for _, p := range projects {
		files, err := s.Conversations(p.ID)
		if err != nil {
			s.logger.Warn("failed to scan project", zap.String("project", p.ID), zap.Error(err))
			continue
		}
		for _, f := range files {
			if f.ModTime.After(cutoff) {
				recent = append(recent, f)
			}
		}
	}

	sortNewestFirst(recent)
	return recent, nil
}

func sortNewestFirst(files []LogFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].ID < files[j].ID
	})
}

// validName rejects identifiers that would escape the projects root.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
