package store

// Cypher statements. Every statement is read-only.
const (
	queryLakeCount      = `MATCH (l:Lake) RETURN count(l) AS count`
	queryGazetteerCount = `MATCH (g:Gazetteer) RETURN count(g) AS count`
	queryPoemCount      = `MATCH (p:Poem) RETURN count(p) AS count`
	queryLocationCount  = `MATCH (l:Lake) WHERE l.location IS NOT NULL RETURN count(DISTINCT l.location) AS count`

	queryLakeStats = `
MATCH (l:Lake)
OPTIONAL MATCH (l)-[:MENTIONED_IN_GAZETTEER]->(g:Gazetteer)
OPTIONAL MATCH (l)-[:MENTIONED_IN_POEM]->(p:Poem)
WITH l,
     count(DISTINCT g) AS gazetteer_count,
     count(DISTINCT p) AS poem_count
RETURN l.name AS lake_name,
       gazetteer_count,
       poem_count,
       (gazetteer_count + poem_count) AS total_mentions
ORDER BY total_mentions DESC, gazetteer_count DESC, poem_count DESC`

	queryLakeDetails = `
MATCH (l:Lake {name: $lakeName})
OPTIONAL MATCH (l)-[:MENTIONED_IN_GAZETTEER]->(g:Gazetteer)
OPTIONAL MATCH (l)-[:MENTIONED_IN_POEM]->(p:Poem)
RETURN l.name AS lake_name,
       l.location AS location,
       collect(DISTINCT {source: g.source, content: g.content}) AS gazetteers,
       collect(DISTINCT {name: p.name, full_text: p.full_text}) AS poems`

	queryAllLakes = `
MATCH (l:Lake)
OPTIONAL MATCH (l)-[:MENTIONED_IN_GAZETTEER]->(g:Gazetteer)
OPTIONAL MATCH (l)-[:MENTIONED_IN_POEM]->(p:Poem)
WITH l,
     count(DISTINCT g) AS gazetteer_count,
     count(DISTINCT p) AS poem_count
RETURN l.name AS name,
       l.location AS location,
       gazetteer_count,
       poem_count,
       (gazetteer_count + poem_count) AS total_mentions
ORDER BY total_mentions DESC`

	queryAllGazetteers = `
MATCH (g:Gazetteer)
OPTIONAL MATCH (l:Lake)-[:MENTIONED_IN_GAZETTEER]->(g)
WITH g, collect(DISTINCT l.name) AS lakes
RETURN g.source AS source,
       g.content AS content,
       lakes,
       size(lakes) AS lake_count
ORDER BY lake_count DESC`

	queryAllPoems = `
MATCH (p:Poem)
OPTIONAL MATCH (l:Lake)-[:MENTIONED_IN_POEM]->(p)
WITH p, collect(DISTINCT l.name) AS lakes
RETURN p.name AS name,
       p.full_text AS full_text,
       lakes,
       size(lakes) AS lake_count
ORDER BY lake_count DESC`

	queryLocationDistribution = `
MATCH (l:Lake)
WHERE l.location IS NOT NULL
WITH l.location AS location, count(l) AS lake_count
RETURN location,
       lake_count
ORDER BY lake_count DESC`
)

// Diagnostic statements.
const (
	queryTotalNodes        = `MATCH (n) RETURN count(n) AS total_nodes`
	queryLabels            = `CALL db.labels() YIELD label RETURN label`
	queryRelationshipTypes = `CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType`
	querySampleNodes       = `MATCH (n) RETURN labels(n) AS labels, keys(n) AS properties LIMIT 5`
)
