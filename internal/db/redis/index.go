package redis

import (
	"context"

	"github.com/kailas-cloud/neumann/internal/db"
)

// CreateIndex runs FT.CREATE for a collection index.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := def.CreateArgs()
	if err != nil {
		return err
	}
	err = s.do(ctx, s.b().Arbitrary(db.OpCreateIndex).Args(args...).Build()).Error()
	if isRedisErr(err, "index already exists") {
		return db.ErrIndexExists
	}
	return db.Wrap(db.OpCreateIndex, def.Name, err)
}

// DropIndex removes a collection index. Indexed hashes are kept, so a
// later CreateIndex re-indexes them.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	err := s.do(ctx, s.b().Arbitrary(db.OpDropIndex).Args(name).Build()).Error()
	if isUnknownIndex(err) {
		return db.ErrIndexNotFound
	}
	return db.Wrap(db.OpDropIndex, name, err)
}

// IndexExists reports whether FT.INFO knows the index.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary(db.OpIndexInfo).Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isUnknownIndex(err):
		return false, nil
	default:
		return false, db.Wrap(db.OpIndexInfo, name, err)
	}
}

// isUnknownIndex matches the missing-index replies of Redis Stack and valkey-search.
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "not found")
}
