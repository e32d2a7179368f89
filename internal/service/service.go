// Package service is the boundary the CLI and HTTP API call into. It wires
// discovery, parsing, indexing, search, statistics and caching together.
package service

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neilberkman/ccsearch/internal/cache"
	"github.com/neilberkman/ccsearch/internal/discovery"
	"github.com/neilberkman/ccsearch/internal/index"
	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/models"
	"github.com/neilberkman/ccsearch/internal/parser"
	"github.com/neilberkman/ccsearch/internal/search"
	"github.com/neilberkman/ccsearch/internal/stats"
)

// DefaultMaxResults caps search responses when Options.MaxResults is unset.
const DefaultMaxResults = 50

// IndexCache stores built indexes keyed by project ID
type IndexCache interface {
	GetOrBuild(ctx context.Context, key string, build cache.BuildFunc[*index.Index]) (*index.Index, error)
	Invalidate(key string)
}

// Options configures a Service. Only Scanner is required.
type Options struct {
	Scanner    *discovery.Scanner
	Parser     *parser.Parser
	Engine     *search.Engine
	Aggregator *stats.Aggregator
	Indexes    IndexCache
	Snapshots  *cache.SnapshotCache
	Logger     *zap.Logger

	MaxResults  int
	Workers     int
	DefaultMode search.Mode
}

// Service answers listing, search and statistics requests
type Service struct {
	scanner    *discovery.Scanner
	parser     *parser.Parser
	engine     *search.Engine
	aggregator *stats.Aggregator
	indexes    IndexCache
	snapshots  *cache.SnapshotCache
	logger     *zap.Logger

	maxResults  int
	workers     int
	defaultMode search.Mode
}

// New creates a service, filling unset options with defaults.
func New(opts Options) *Service {
	s := &Service{
		scanner:     opts.Scanner,
		parser:      opts.Parser,
		engine:      opts.Engine,
		aggregator:  opts.Aggregator,
		indexes:     opts.Indexes,
		snapshots:   opts.Snapshots,
		logger:      logging.OrNop(opts.Logger),
		maxResults:  opts.MaxResults,
		workers:     opts.Workers,
		defaultMode: opts.DefaultMode,
	}
	if s.parser == nil {
		s.parser = parser.New(parser.WithLogger(s.logger))
	}
	if s.engine == nil {
		s.engine = search.NewEngine(s.logger, 0)
	}
	if s.aggregator == nil {
		s.aggregator = stats.NewAggregator(stats.WithLogger(s.logger))
	}
	if s.indexes == nil {
		s.indexes = cache.NewTTL[*index.Index]("index", 0, 0, s.logger)
	}
	if s.maxResults <= 0 {
		s.maxResults = DefaultMaxResults
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if s.defaultMode == "" {
		s.defaultMode = search.ModePartial
	}
	return s
}

// ListProjects returns every project under the root, newest activity first.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scanner.Projects()
}

// ListConversations returns the headers of every readable conversation in a
// project, most recently updated first.
func (s *Service) ListConversations(ctx context.Context, projectID string) ([]*models.ConversationRecord, error) {
	idx, err := s.projectIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}

	records := idx.Conversations()
	out := make([]*models.ConversationRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Header())
	}
	sortByLastUpdated(out)
	return out, nil
}

// GetConversation parses one conversation in full.
func (s *Service) GetConversation(ctx context.Context, projectID, conversationID string) (*models.ConversationRecord, error) {
	path, err := s.scanner.ConversationPath(projectID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseFile(ctx, path, projectID)
}

// RecentConversations returns headers of conversations modified within since
// across all projects, newest first. A non-positive limit returns all.
func (s *Service) RecentConversations(ctx context.Context, since time.Duration, limit int) ([]*models.ConversationRecord, error) {
	files, err := s.scanner.Recent(since)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	out := make([]*models.ConversationRecord, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.parser.ParseFile(ctx, f.Path, f.ProjectID)
		if err != nil {
			s.logger.Warn("skipping unreadable conversation", zap.String("file", f.Path), zap.Error(err))
			continue
		}
		out = append(out, rec.Header())
	}
	return out, nil
}

// Request describes a search. An empty ProjectID searches every project.
type Request struct {
	ProjectID string
	Query     string
	Mode      string
	Limit     int
}

// Response is a ranked, capped result set
type Response struct {
	Query     string                `json:"query"`
	Mode      search.Mode           `json:"mode"`
	Results   []models.SearchResult `json:"results"`
	Total     int                   `json:"total"`
	Truncated bool                  `json:"truncated"`
}

// Search runs req against one project or, fanned out, against all of them.
// Results are capped to the smaller of req.Limit and the configured maximum.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	mode := s.defaultMode
	if strings.TrimSpace(req.Mode) != "" {
		m, err := search.ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	resp := &Response{Query: req.Query, Mode: mode, Results: []models.SearchResult{}}
	if len(search.Tokenize(req.Query)) == 0 {
		return resp, nil
	}

	var (
		results []models.SearchResult
		err     error
	)
	if req.ProjectID != "" {
		results, err = s.searchProject(ctx, req.ProjectID, req.Query, mode)
	} else {
		results, err = s.searchAll(ctx, req.Query, mode)
	}
	if err != nil {
		return nil, err
	}

	limit := s.maxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	resp.Total = len(results)
	if len(results) > limit {
		results = results[:limit]
		resp.Truncated = true
	}
	resp.Results = results
	return resp, nil
}

func (s *Service) searchProject(ctx context.Context, projectID, query string, mode search.Mode) ([]models.SearchResult, error) {
	idx, err := s.projectIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.engine.Query(idx, query, mode), nil
}

// searchAll runs one independent pass per project and merges the results.
// A project that fails to load is logged and left out.
func (s *Service) searchAll(ctx context.Context, query string, mode search.Mode) ([]models.SearchResult, error) {
	projects, err := s.scanner.Projects()
	if err != nil {
		return nil, err
	}

	perProject := make([][]models.SearchResult, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range projects {
		i, projectID := i, p.ID
		g.Go(func() error {
			results, err := s.searchProject(gctx, projectID, query, mode)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("skipping project in global search", zap.String("project", projectID), zap.Error(err))
				return nil
			}
			perProject[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return search.Merge(perProject...), nil
}

// GetProjectStats returns statistics for a project, served from a snapshot
// while no log in the project has changed since it was computed.
func (s *Service) GetProjectStats(ctx context.Context, projectID string) (*models.ProjectStats, error) {
	modifiedAt, err := s.scanner.LatestModTime(projectID)
	if err != nil {
		return nil, err
	}
	return s.snapshots.GetOrBuild(ctx, projectID, modifiedAt, func(ctx context.Context) (*models.ProjectStats, error) {
		files, err := s.scanner.Conversations(projectID)
		if err != nil {
			return nil, err
		}
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		return s.aggregator.Project(ctx, projectID, paths)
	})
}

// GetConversationStats streams one conversation's log for statistics.
func (s *Service) GetConversationStats(ctx context.Context, projectID, conversationID string) (*models.ConversationStats, error) {
	path, err := s.scanner.ConversationPath(projectID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Conversation(ctx, path, projectID)
}

// InvalidateProject drops the cached index of a project.
func (s *Service) InvalidateProject(projectID string) {
	s.indexes.Invalidate(projectID)
	s.logger.Debug("invalidated project index", zap.String("project", projectID))
}

// projectIndex returns the cached index of a project, building it from every
// readable log on a miss.
func (s *Service) projectIndex(ctx context.Context, projectID string) (*index.Index, error) {
	if _, err := s.scanner.ProjectDir(projectID); err != nil {
		return nil, err
	}
	return s.indexes.GetOrBuild(ctx, projectID, func(ctx context.Context) (*index.Index, error) {
		files, err := s.scanner.Conversations(projectID)
		if err != nil {
			return nil, err
		}

		records := make([]*models.ConversationRecord, 0, len(files))
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := s.parser.ParseFile(ctx, f.Path, projectID)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				s.logger.Warn("skipping unreadable conversation", zap.String("file", f.Path), zap.Error(err))
				continue
			}
			records = append(records, rec)
		}

		idx := index.Build(records)
		s.logger.Debug("built project index",
			zap.String("project", projectID),
			zap.Int("conversations", len(records)),
			zap.Int("entries", idx.Len()),
		)
		return idx, nil
	})
}

func sortByLastUpdated(records []*models.ConversationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].LastUpdated.Equal(records[j].LastUpdated) {
			return records[i].LastUpdated.After(records[j].LastUpdated)
		}
		return records[i].ID < records[j].ID
	})
}
