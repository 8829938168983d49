// Package storage mirrors built citation graphs into SQLite so they can be
// inspected and queried without re-parsing JSON snapshots.
package storage

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/matsen/citgraph/internal/graph"
	"github.com/matsen/citgraph/internal/paper"
)

// DB wraps a SQLite database holding one citation graph.
type DB struct {
	db *sql.DB
}

// selectNodeFields is the standard field list for node SELECT queries.
const selectNodeFields = `scopus_id, iter_depth, title, authors, year, doi, eid, scopus_url, pub_name`

// OpenDB opens or creates a SQLite graph database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Traversal metadata block
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- Graph nodes keyed by Scopus ID
		CREATE TABLE IF NOT EXISTS nodes (
			scopus_id INTEGER PRIMARY KEY,
			iter_depth INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			doi TEXT,
			eid TEXT,
			scopus_url TEXT,
			pub_name TEXT
		);

		-- Directed citation edges, parent cites child
		CREATE TABLE IF NOT EXISTS edges (
			parent INTEGER NOT NULL,
			child INTEGER NOT NULL,
			weight INTEGER,
			PRIMARY KEY (parent, child)
		);

		-- Papers first discovered at each iteration depth
		CREATE TABLE IF NOT EXISTS frontier (
			depth INTEGER NOT NULL,
			scopus_id INTEGER NOT NULL,
			PRIMARY KEY (depth, scopus_id)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveGraph replaces the stored graph with the given state.
func (d *DB) SaveGraph(st graph.State) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "nodes", "edges", "frontier"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	meta := map[string]string{
		"name":              st.Name,
		"use_doi":           strconv.FormatBool(st.UseDOI),
		"iter_depth":        strconv.Itoa(st.IterDepth),
		"retrievals_total":  strconv.Itoa(st.RetrievalsTotal),
		"retrievals_failed": strconv.Itoa(st.RetrievalsFailed),
	}
	for key, value := range meta {
		if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("inserting meta %s: %w", key, err)
		}
	}

	nodeStmt, err := tx.Prepare(`
		INSERT INTO nodes (` + selectNodeFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, p := range st.Nodes {
		_, err := nodeStmt.Exec(
			uint64(p.ScopusID), p.IterDepth, p.Title, p.Authors, p.Year,
			p.DOI, p.EID, p.ScopusURL, p.PubName,
		)
		if err != nil {
			return fmt.Errorf("inserting node %d: %w", p.ScopusID, err)
		}
	}

	edgeStmt, err := tx.Prepare("INSERT INTO edges (parent, child, weight) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range st.Edges {
		var weight sql.NullInt64
		if e.Weight != nil {
			weight = sql.NullInt64{Int64: int64(*e.Weight), Valid: true}
		}
		if _, err := edgeStmt.Exec(uint64(e.Parent), uint64(e.Child), weight); err != nil {
			return fmt.Errorf("inserting edge %d->%d: %w", e.Parent, e.Child, err)
		}
	}

	frontierStmt, err := tx.Prepare("INSERT INTO frontier (depth, scopus_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing frontier insert: %w", err)
	}
	defer frontierStmt.Close()

	for depth, papers := range st.PapersByDepth {
		for _, p := range papers {
			if _, err := frontierStmt.Exec(depth, uint64(p.ScopusID)); err != nil {
				return fmt.Errorf("inserting frontier entry %d@%d: %w", p.ScopusID, depth, err)
			}
		}
	}

	return tx.Commit()
}

// LoadGraph reads the stored graph back as a state value.
func (d *DB) LoadGraph() (graph.State, error) {
	st := graph.State{PapersByDepth: make(map[int][]paper.Paper)}

	meta, err := d.readMeta()
	if err != nil {
		return st, err
	}
	st.Name = meta["name"]
	if st.UseDOI, err = strconv.ParseBool(orDefault(meta, "use_doi", "false")); err != nil {
		return st, fmt.Errorf("parsing use_doi: %w", err)
	}
	if st.IterDepth, err = strconv.Atoi(orDefault(meta, "iter_depth", "0")); err != nil {
		return st, fmt.Errorf("parsing iter_depth: %w", err)
	}
	if st.RetrievalsTotal, err = strconv.Atoi(orDefault(meta, "retrievals_total", "0")); err != nil {
		return st, fmt.Errorf("parsing retrievals_total: %w", err)
	}
	if st.RetrievalsFailed, err = strconv.Atoi(orDefault(meta, "retrievals_failed", "0")); err != nil {
		return st, fmt.Errorf("parsing retrievals_failed: %w", err)
	}

	nodes := make(map[paper.ScopusID]paper.Paper)
	rows, err := d.db.Query("SELECT " + selectNodeFields + " FROM nodes ORDER BY scopus_id")
	if err != nil {
		return st, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanNode(rows)
		if err != nil {
			return st, err
		}
		nodes[p.ScopusID] = p
		st.Nodes = append(st.Nodes, p)
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("reading nodes: %w", err)
	}

	edgeRows, err := d.db.Query("SELECT parent, child, weight FROM edges ORDER BY parent, child")
	if err != nil {
		return st, fmt.Errorf("querying edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var parent, child uint64
		var weight sql.NullInt64
		if err := edgeRows.Scan(&parent, &child, &weight); err != nil {
			return st, fmt.Errorf("scanning edge: %w", err)
		}
		e := graph.StateEdge{Parent: paper.ScopusID(parent), Child: paper.ScopusID(child)}
		if weight.Valid {
			w := int(weight.Int64)
			e.Weight = &w
		}
		st.Edges = append(st.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return st, fmt.Errorf("reading edges: %w", err)
	}

	frontierRows, err := d.db.Query("SELECT depth, scopus_id FROM frontier ORDER BY depth, scopus_id")
	if err != nil {
		return st, fmt.Errorf("querying frontier: %w", err)
	}
	defer frontierRows.Close()
	for frontierRows.Next() {
		var depth int
		var id uint64
		if err := frontierRows.Scan(&depth, &id); err != nil {
			return st, fmt.Errorf("scanning frontier entry: %w", err)
		}
		p, ok := nodes[paper.ScopusID(id)]
		if !ok {
			return st, fmt.Errorf("frontier entry %d@%d references missing node", id, depth)
		}
		st.PapersByDepth[depth] = append(st.PapersByDepth[depth], p)
	}
	if err := frontierRows.Err(); err != nil {
		return st, fmt.Errorf("reading frontier: %w", err)
	}

	// A stored graph records a frontier for every depth, including empty
	// ones; restore those so depth contiguity holds.
	for depth := 0; depth <= st.IterDepth; depth++ {
		if _, ok := st.PapersByDepth[depth]; !ok {
			st.PapersByDepth[depth] = []paper.Paper{}
		}
	}

	return st, nil
}

// Stats returns node and edge counts without materializing the graph.
func (d *DB) Stats() (nodes, edges int, err error) {
	if err := d.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodes); err != nil {
		return 0, 0, fmt.Errorf("counting nodes: %w", err)
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edges); err != nil {
		return 0, 0, fmt.Errorf("counting edges: %w", err)
	}
	return nodes, edges, nil
}

func (d *DB) readMeta() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(s scanner) (paper.Paper, error) {
	var p paper.Paper
	var id uint64
	var authors, doi, eid, scopusURL, pubName sql.NullString
	var year sql.NullInt64

	err := s.Scan(&id, &p.IterDepth, &p.Title, &authors, &year, &doi, &eid, &scopusURL, &pubName)
	if err != nil {
		return p, fmt.Errorf("scanning node: %w", err)
	}

	p.ScopusID = paper.ScopusID(id)
	p.Authors = authors.String
	p.DOI = doi.String
	p.EID = eid.String
	p.ScopusURL = scopusURL.String
	p.PubName = pubName.String
	if year.Valid {
		p.Year = int(year.Int64)
	}

	return p, nil
}

func orDefault(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
