// Package graph provides the read-only graph database client used by the
// lake store.
//
// The package defines a small GraphClient interface with a Neo4j
// implementation and a mock for unit tests. Every query runs in its own
// short-lived Session opened against the client's single driver handle:
//
//	client, err := graph.NewNeo4jClient(graph.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	session, err := client.NewSession(ctx)
//	if err != nil {
//	    return err
//	}
//	defer session.Close(ctx)
//
//	result, err := session.Run(ctx,
//	    "MATCH (l:Lake {name: $name}) RETURN l.name AS name",
//	    map[string]any{"name": "West Lake"},
//	)
//
// # TLS/Encryption
//
// Encryption is controlled via the URI scheme:
//
//   - bolt://     - Unencrypted connection
//   - bolt+s://   - TLS encrypted with system CA verification
//   - neo4j://    - Routing with unencrypted connections
//   - neo4j+s://  - Routing with TLS encryption (Aura)
//
// # Result normalization
//
// Normalize rewrites database-native integer encodings (big integers and
// {low, high} split integers) into plain int64/float64 values, recursively
// over lists and maps. The store applies it to every record it returns.
package graph
