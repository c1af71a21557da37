// internal/service/definition_service.go
package service

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"gorm.io/gorm"

	"defkeep/internal/index"
	"defkeep/internal/middleware"
	"defkeep/internal/model"
	"defkeep/internal/parser"
	"defkeep/internal/repository"
	"defkeep/internal/vault"
)

// DefinitionService keeps the in-memory definition index consistent with the
// vault and answers lookups.
type DefinitionService interface {
	RebuildAll(ctx context.Context) error
	ReindexFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) error
	Lookup(ctx context.Context, key string) (*model.Definition, error)
	AllKeys(ctx context.Context) []string
	ConsolidatedListing(ctx context.Context) []*model.ConsolidatedFileListing
}

type definitionService struct {
	db       *gorm.DB
	store    *vault.Store
	parser   *parser.FileParser
	index    *index.Index
	cardRepo repository.FlashcardRepository
}

func NewDefinitionService(db *gorm.DB, store *vault.Store, fileParser *parser.FileParser, idx *index.Index, cardRepo repository.FlashcardRepository) DefinitionService {
	return &definitionService{
		db:       db,
		store:    store,
		parser:   fileParser,
		index:    idx,
		cardRepo: cardRepo,
	}
}

// RebuildAll clears the index and re-parses every vault file. Files are
// visited in sorted path order so key collisions resolve the same way on
// every rebuild.
func (s *definitionService) RebuildAll(ctx context.Context) error {
	logger := middleware.GetLogger(ctx)

	paths, err := s.store.ListFiles()
	if err != nil {
		logger.Error("Failed to enumerate vault files", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to enumerate vault files.", "", err)
	}

	files := make(map[string][]*model.Definition, len(paths))
	for _, path := range paths {
		defs, err := s.parseFile(path)
		if err != nil {
			// A file that vanished mid-walk is not an indexing failure.
			logger.Warn("Skipping unreadable vault file", "path", path, "error", err)
			continue
		}
		if len(defs) > 0 {
			files[path] = defs
		}
	}

	s.index.RebuildAll(files)
	logger.Info("Definition index rebuilt", "files", len(files), "keys", len(s.index.AllKeys()))
	return nil
}

// ReindexFile replaces the records owned by one file, e.g. after a change
// notification. A file that no longer exists is removed from the index.
func (s *definitionService) ReindexFile(ctx context.Context, path string) error {
	logger := middleware.GetLogger(ctx).With("path", path)

	defs, err := s.parseFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.RemoveFile(ctx, path)
		}
		logger.Error("Failed to read vault file", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to read vault file.", "", err)
	}

	s.index.ReindexFile(path, defs)
	logger.Debug("File reindexed", "records", len(defs))
	return nil
}

// RemoveFile drops a file's records and the review state attached to them.
func (s *definitionService) RemoveFile(ctx context.Context, path string) error {
	logger := middleware.GetLogger(ctx).With("path", path)

	s.index.RemoveFile(path)
	s.store.DropHeader(path)

	if err := s.cardRepo.DeleteByPath(ctx, s.db, path); err != nil {
		logger.Error("Failed to delete review state for removed file", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to delete review state.", "", err)
	}

	logger.Info("File removed from index")
	return nil
}

func (s *definitionService) Lookup(ctx context.Context, key string) (*model.Definition, error) {
	def, ok := s.index.Lookup(strings.ToLower(key))
	if !ok {
		return nil, model.NewAppError("NOT_FOUND", "No definition found for the given key.", "key", model.ErrNotFound)
	}
	return def, nil
}

func (s *definitionService) AllKeys(ctx context.Context) []string {
	return s.index.AllKeys()
}

// ConsolidatedListing returns every consolidated file with its records, for
// browse mode. Consolidated terms are excluded from scheduling, so this is
// the only way they surface beyond lookup.
func (s *definitionService) ConsolidatedListing(ctx context.Context) []*model.ConsolidatedFileListing {
	paths := s.index.FilesOfType(model.FileTypeConsolidated)
	listings := make([]*model.ConsolidatedFileListing, 0, len(paths))
	for _, path := range paths {
		defs := s.index.DefinitionsOfFile(path)
		if len(defs) == 0 {
			continue
		}
		listings = append(listings, &model.ConsolidatedFileListing{
			FilePath:    path,
			Definitions: defs,
		})
	}
	return listings
}

// parseFile reads raw text, refreshes the header cache, and parses with
// whatever header is then available. Malformed frontmatter leaves the cache
// empty, in which case the parsers fall back to raw-text scanning.
func (s *definitionService) parseFile(path string) ([]*model.Definition, error) {
	raw, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}

	s.store.RefreshHeader(path, raw)
	defs := s.parser.Parse(path, raw, s.store.Header(path))

	out := make([]*model.Definition, 0, len(defs))
	for i := range defs {
		out = append(out, &defs[i])
	}
	return out, nil
}
