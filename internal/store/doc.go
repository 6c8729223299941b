// Package store is the read-only data-access and caching layer over the
// lake knowledge graph.
//
// A Store owns exactly one graph connection. It serializes connection and
// initialization so that concurrent first callers share a single connect
// and a single preload batch, runs every query in its own short-lived
// session, and memoizes the derived datasets:
//
//	s := store.New(client, store.WithLogger(logger))
//	defer s.Close(ctx)
//
//	lakes, err := s.GetAllLakes(ctx, true)
//
// Retrieval operations take a useCache flag. With useCache set, a cached
// snapshot is returned when present; otherwise the query always runs and
// its result replaces the snapshot. Returned values are copies and may be
// modified freely by the caller.
//
// Failure handling differs by operation and is listed in OperationPolicies:
// the headline statistics degrade to empty values, every other operation
// returns the error. WithStrictErrors makes every operation return errors.
package store
