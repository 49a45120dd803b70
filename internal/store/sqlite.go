package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/vetting-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                    TEXT PRIMARY KEY,
	symbol                TEXT NOT NULL,
	website_url           TEXT NOT NULL,
	whitepaper_url        TEXT,
	contract_address      TEXT,
	extraction_status     TEXT NOT NULL DEFAULT 'not_started',
	classification_status TEXT NOT NULL DEFAULT 'not_started',
	website_status        TEXT,
	project_type          TEXT,
	content               TEXT,
	content_strategy      TEXT,
	content_reduced       INTEGER NOT NULL DEFAULT 0,
	main_claim            TEXT,
	evidence_claims       TEXT,
	final_tier            INTEGER,
	final_score           REAL,
	extracted_at          DATETIME,
	classified_at         DATETIME,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_projects_symbol ON projects(symbol);
CREATE INDEX IF NOT EXISTS idx_projects_extraction_status ON projects(extraction_status);
CREATE INDEX IF NOT EXISTS idx_projects_classification_status ON projects(classification_status);

CREATE TABLE IF NOT EXISTS signals (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	description TEXT NOT NULL,
	category    TEXT NOT NULL,
	location    TEXT,
	source_text TEXT,
	similar_to  TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_signals_project_id ON signals(project_id);

CREATE TABLE IF NOT EXISTS red_flags (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	evidence    TEXT,
	location    TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_red_flags_project_id ON red_flags(project_id);

CREATE TABLE IF NOT EXISTS benchmarks (
	id            TEXT PRIMARY KEY,
	tier          INTEGER NOT NULL,
	category      TEXT NOT NULL,
	benchmark_set TEXT NOT NULL DEFAULT 'signal',
	claim         TEXT NOT NULL,
	rationale     TEXT,
	active        INTEGER NOT NULL DEFAULT 1,
	source        TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_benchmarks_tier ON benchmarks(tier);

CREATE TABLE IF NOT EXISTS tier_comparisons (
	project_id  TEXT PRIMARY KEY REFERENCES projects(id),
	data        TEXT NOT NULL,
	final_tier  INTEGER NOT NULL,
	final_score REAL NOT NULL,
	compared_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS content_cache (
	id             TEXT PRIMARY KEY,
	url_hash       TEXT NOT NULL UNIQUE,
	final_url      TEXT,
	strategy       TEXT,
	content        TEXT NOT NULL,
	original_bytes INTEGER NOT NULL DEFAULT 0,
	fetched_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_cache_url_hash ON content_cache(url_hash);
CREATE INDEX IF NOT EXISTS idx_content_cache_expires_at ON content_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.ExtractionStatus = model.PhaseNotStarted
	p.ClassificationStatus = model.PhaseNotStarted
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Symbol, p.WebsiteURL, p.WhitepaperURL, p.ContractAddress,
		string(p.ExtractionStatus), string(p.ClassificationStatus), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}
	return &p, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, website_status, project_type, content, content_strategy, content_reduced, final_tier, final_score, extracted_at, classified_at, created_at, updated_at
		 FROM projects WHERE id = ?`,
		projectID,
	)
	p, err := scanProjectSQLite(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %s", projectID)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := `SELECT id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, website_status, project_type, content, content_strategy, content_reduced, final_tier, final_score, extracted_at, classified_at, created_at, updated_at
	          FROM projects WHERE 1=1`
	var args []any

	if filter.ExtractionStatus != "" {
		query += ` AND extraction_status = ?`
		args = append(args, string(filter.ExtractionStatus))
	}
	if filter.ClassificationStatus != "" {
		query += ` AND classification_status = ?`
		args = append(args, string(filter.ClassificationStatus))
	}
	if filter.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, filter.Symbol)
	}
	if filter.Tier > 0 {
		query += ` AND final_tier = ?`
		args = append(args, filter.Tier)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProjectSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) ClaimPhase(ctx context.Context, projectID string, phase model.Phase) (bool, error) {
	col := phaseColumn(phase)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE projects SET %s = ?, updated_at = ? WHERE id = ? AND %s IN (?, ?)`, col, col),
		string(model.PhaseInProgress), time.Now().UTC(), projectID,
		string(model.PhaseNotStarted), string(model.PhaseFailed),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: claim %s for %s", phase, projectID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) SetPhaseStatus(ctx context.Context, projectID string, phase model.Phase, status model.PhaseStatus) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE projects SET %s = ?, updated_at = ? WHERE id = ?`, phaseColumn(phase)),
		string(status), time.Now().UTC(), projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set %s status for %s", phase, projectID)
	}
	return checkRowsAffected(res, "project", projectID)
}

func (s *SQLiteStore) SaveExtraction(ctx context.Context, projectID string, res ExtractionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin extraction tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `DELETE FROM signals WHERE project_id = ?`, projectID); err != nil {
		return eris.Wrap(err, "sqlite: delete prior signals")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM red_flags WHERE project_id = ?`, projectID); err != nil {
		return eris.Wrap(err, "sqlite: delete prior red flags")
	}

	for _, sig := range res.Signals {
		createdAt := sig.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO signals (id, project_id, description, category, location, source_text, similar_to, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sig.ID, projectID, sig.Description, string(sig.Category), sig.Location, sig.SourceText, sig.SimilarTo, createdAt,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert signal")
		}
	}
	for _, rf := range res.RedFlags {
		createdAt := rf.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO red_flags (id, project_id, severity, description, evidence, location, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rf.ID, projectID, string(rf.Severity), rf.Description, rf.Evidence, rf.Location, createdAt,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert red flag")
		}
	}

	mainClaim, evidenceClaims, err := marshalClaims(res)
	if err != nil {
		return err
	}
	var mainClaimVal, evidenceClaimsVal any
	if mainClaim != nil {
		mainClaimVal = string(mainClaim)
	}
	if evidenceClaims != nil {
		evidenceClaimsVal = string(evidenceClaims)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE projects
		 SET extraction_status = ?, website_status = ?, project_type = ?,
		     content = ?, content_strategy = ?, content_reduced = ?,
		     main_claim = ?, evidence_claims = ?,
		     extracted_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.PhaseCompleted), string(res.WebsiteStatus), string(res.ProjectType),
		res.Content, string(res.ContentStrategy), res.ContentReduced,
		mainClaimVal, evidenceClaimsVal,
		now, now, projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save extraction %s", projectID)
	}
	if err := checkRowsAffected(result, "project", projectID); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit extraction tx")
}

func (s *SQLiteStore) SaveClassification(ctx context.Context, tc *model.TierComparison) error {
	data, err := json.Marshal(tc)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal comparison")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin classification tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tier_comparisons (project_id, data, final_tier, final_score, compared_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (project_id) DO UPDATE SET data = excluded.data, final_tier = excluded.final_tier, final_score = excluded.final_score, compared_at = excluded.compared_at`,
		tc.ProjectID, string(data), tc.FinalTier, tc.FinalScore, tc.ComparedAt,
	); err != nil {
		return eris.Wrap(err, "sqlite: upsert comparison")
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE projects
		 SET classification_status = ?, final_tier = ?, final_score = ?, classified_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.PhaseCompleted), tc.FinalTier, tc.FinalScore, now, now, tc.ProjectID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save classification %s", tc.ProjectID)
	}
	if err := checkRowsAffected(result, "project", tc.ProjectID); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit classification tx")
}

func (s *SQLiteStore) GetSignals(ctx context.Context, projectID string) ([]model.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, description, category, location, source_text, similar_to, created_at
		 FROM signals WHERE project_id = ? ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get signals")
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		var sig model.Signal
		var category string
		var location, sourceText, similarTo sql.NullString
		if err := rows.Scan(&sig.ID, &sig.ProjectID, &sig.Description, &category, &location, &sourceText, &similarTo, &sig.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan signal")
		}
		sig.Category = model.SignalCategory(category)
		sig.Location = location.String
		sig.SourceText = sourceText.String
		sig.SimilarTo = similarTo.String
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "sqlite: get signals iterate")
}

func (s *SQLiteStore) GetRedFlags(ctx context.Context, projectID string) ([]model.RedFlag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, severity, description, evidence, location, created_at
		 FROM red_flags WHERE project_id = ? ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get red flags")
	}
	defer rows.Close()

	var flags []model.RedFlag
	for rows.Next() {
		var rf model.RedFlag
		var severity string
		var evidence, location sql.NullString
		if err := rows.Scan(&rf.ID, &rf.ProjectID, &severity, &rf.Description, &evidence, &location, &rf.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan red flag")
		}
		rf.Severity = model.RedFlagSeverity(severity)
		rf.Evidence = evidence.String
		rf.Location = location.String
		flags = append(flags, rf)
	}
	return flags, eris.Wrap(rows.Err(), "sqlite: get red flags iterate")
}

func (s *SQLiteStore) GetClaims(ctx context.Context, projectID string) (*model.Claim, []model.Claim, error) {
	var mainRaw, evidenceRaw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT main_claim, evidence_claims FROM projects WHERE id = ?`,
		projectID,
	).Scan(&mainRaw, &evidenceRaw)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: get claims %s", projectID)
	}

	var mainClaim *model.Claim
	if mainRaw.Valid && mainRaw.String != "" {
		mainClaim = &model.Claim{}
		if err := json.Unmarshal([]byte(mainRaw.String), mainClaim); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: unmarshal main claim")
		}
	}
	var evidence []model.Claim
	if evidenceRaw.Valid && evidenceRaw.String != "" {
		if err := json.Unmarshal([]byte(evidenceRaw.String), &evidence); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: unmarshal evidence claims")
		}
	}
	return mainClaim, evidence, nil
}

func (s *SQLiteStore) GetComparison(ctx context.Context, projectID string) (*model.TierComparison, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM tier_comparisons WHERE project_id = ?`,
		projectID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get comparison")
	}

	var tc model.TierComparison
	if err := json.Unmarshal([]byte(data), &tc); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal comparison")
	}
	return &tc, nil
}

func (s *SQLiteStore) ListBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tier, category, benchmark_set, claim, rationale, active, source, created_at, updated_at
		 FROM benchmarks ORDER BY tier, category, claim`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list benchmarks")
	}
	defer rows.Close()

	var benchmarks []model.Benchmark
	for rows.Next() {
		var b model.Benchmark
		var category, set string
		var rationale, source sql.NullString
		if err := rows.Scan(&b.ID, &b.Tier, &category, &set, &b.Claim, &rationale, &b.Active, &source, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan benchmark")
		}
		b.Category = model.SignalCategory(category)
		b.Set = model.BenchmarkSet(set)
		b.Rationale = rationale.String
		b.Source = source.String
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, eris.Wrap(rows.Err(), "sqlite: list benchmarks iterate")
}

func (s *SQLiteStore) UpsertBenchmarks(ctx context.Context, benchmarks []model.Benchmark) (int, error) {
	if len(benchmarks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin benchmark tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	count := 0
	for _, b := range benchmarks {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		createdAt := b.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO benchmarks (id, tier, category, benchmark_set, claim, rationale, active, source, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET tier = excluded.tier, category = excluded.category, benchmark_set = excluded.benchmark_set, claim = excluded.claim, rationale = excluded.rationale, active = excluded.active, source = excluded.source, updated_at = excluded.updated_at`,
			b.ID, b.Tier, string(b.Category), string(b.Set), b.Claim, b.Rationale, b.Active, b.Source, createdAt, now,
		); err != nil {
			return 0, eris.Wrap(err, "sqlite: upsert benchmark")
		}
		count++
	}

	return count, eris.Wrap(tx.Commit(), "sqlite: commit benchmark tx")
}

func (s *SQLiteStore) GetCachedContent(ctx context.Context, url string) (*model.FetchResult, error) {
	var res model.FetchResult
	var strategy, finalURL sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT content, strategy, original_bytes, final_url FROM content_cache
		 WHERE url_hash = ? AND expires_at > datetime('now')`,
		HashURL(url),
	).Scan(&res.Content, &strategy, &res.OriginalBytes, &finalURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached content")
	}
	res.Strategy = model.FetchStrategy(strategy.String)
	res.FinalURL = finalURL.String
	return &res, nil
}

func (s *SQLiteStore) SetCachedContent(ctx context.Context, url string, res *model.FetchResult, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_cache (id, url_hash, final_url, strategy, content, original_bytes, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (url_hash) DO UPDATE SET final_url = excluded.final_url, strategy = excluded.strategy, content = excluded.content, original_bytes = excluded.original_bytes, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		id, HashURL(url), res.FinalURL, string(res.Strategy), res.Content, res.OriginalBytes, now, expiresAt,
	)
	return eris.Wrap(err, "sqlite: set cached content")
}

func (s *SQLiteStore) DeleteExpiredContent(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM content_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired content")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProjectSQLite(row scannable) (*model.Project, error) {
	var p model.Project
	var whitepaperURL, contractAddress, websiteStatus, projectType, content, contentStrategy sql.NullString
	var finalTier sql.NullInt64
	var finalScore sql.NullFloat64
	var extractedAt, classifiedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Symbol, &p.WebsiteURL, &whitepaperURL, &contractAddress,
		&p.ExtractionStatus, &p.ClassificationStatus,
		&websiteStatus, &projectType, &content, &contentStrategy, &p.ContentReduced,
		&finalTier, &finalScore, &extractedAt, &classifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("project not found")
	}
	if err != nil {
		return nil, err
	}

	p.WhitepaperURL = whitepaperURL.String
	p.ContractAddress = contractAddress.String
	p.WebsiteStatus = model.WebsiteStatus(websiteStatus.String)
	p.ProjectType = model.ProjectType(projectType.String)
	p.Content = content.String
	p.ContentStrategy = contentStrategy.String
	if finalTier.Valid {
		p.FinalTier = int(finalTier.Int64)
	}
	if finalScore.Valid {
		p.FinalScore = finalScore.Float64
	}
	if extractedAt.Valid {
		t := extractedAt.Time
		p.ExtractedAt = &t
	}
	if classifiedAt.Valid {
		t := classifiedAt.Time
		p.ClassifiedAt = &t
	}
	return &p, nil
}
