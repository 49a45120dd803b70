package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/db"
	"github.com/sells-group/vetting-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_project":        `SELECT id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, website_status, project_type, content, content_strategy, content_reduced, final_tier, final_score, extracted_at, classified_at, created_at, updated_at FROM projects WHERE id = $1`,
	"get_signals":        `SELECT id, project_id, description, category, location, source_text, similar_to, created_at FROM signals WHERE project_id = $1 ORDER BY created_at, id`,
	"get_red_flags":      `SELECT id, project_id, severity, description, evidence, location, created_at FROM red_flags WHERE project_id = $1 ORDER BY created_at, id`,
	"get_comparison":     `SELECT data FROM tier_comparisons WHERE project_id = $1`,
	"get_cached_content": `SELECT content, strategy, original_bytes, final_url FROM content_cache WHERE url_hash = $1 AND expires_at > now()`,
	"list_benchmarks":    `SELECT id, tier, category, benchmark_set, claim, rationale, active, source, created_at, updated_at FROM benchmarks ORDER BY tier, category, claim`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., bulk benchmark imports).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	content_reduced       BOOLEAN NOT NULL DEFAULT false,
	main_claim            JSONB,
	evidence_claims       JSONB,
	final_tier            INTEGER,
	final_score           DOUBLE PRECISION,
	extracted_at          TIMESTAMPTZ,
	classified_at         TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE projects ADD COLUMN IF NOT EXISTS main_claim JSONB;
ALTER TABLE projects ADD COLUMN IF NOT EXISTS evidence_claims JSONB;

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
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_signals_project_id ON signals(project_id);

CREATE TABLE IF NOT EXISTS red_flags (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	evidence    TEXT,
	location    TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_red_flags_project_id ON red_flags(project_id);

CREATE TABLE IF NOT EXISTS benchmarks (
	id            TEXT PRIMARY KEY,
	tier          INTEGER NOT NULL,
	category      TEXT NOT NULL,
	benchmark_set TEXT NOT NULL DEFAULT 'signal',
	claim         TEXT NOT NULL,
	rationale     TEXT,
	active        BOOLEAN NOT NULL DEFAULT true,
	source        TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_benchmarks_tier ON benchmarks(tier);
CREATE INDEX IF NOT EXISTS idx_benchmarks_active ON benchmarks(active);

CREATE TABLE IF NOT EXISTS tier_comparisons (
	project_id  TEXT PRIMARY KEY REFERENCES projects(id),
	data        JSONB NOT NULL,
	final_tier  INTEGER NOT NULL,
	final_score DOUBLE PRECISION NOT NULL,
	compared_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS content_cache (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url_hash       TEXT NOT NULL UNIQUE,
	final_url      TEXT,
	strategy       TEXT,
	content        TEXT NOT NULL,
	original_bytes INTEGER NOT NULL DEFAULT 0,
	fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_cache_url_hash ON content_cache(url_hash);
CREATE INDEX IF NOT EXISTS idx_content_cache_expires_at ON content_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.ExtractionStatus = model.PhaseNotStarted
	p.ClassificationStatus = model.PhaseNotStarted
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Symbol, p.WebsiteURL, nullable(p.WhitepaperURL), nullable(p.ContractAddress),
		string(p.ExtractionStatus), string(p.ClassificationStatus), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert project")
	}
	return &p, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, website_status, project_type, content, content_strategy, content_reduced, final_tier, final_score, extracted_at, classified_at, created_at, updated_at
		 FROM projects WHERE id = $1`,
		projectID,
	)
	p, err := scanProject(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get project %s", projectID)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := `SELECT id, symbol, website_url, whitepaper_url, contract_address, extraction_status, classification_status, website_status, project_type, content, content_strategy, content_reduced, final_tier, final_score, extracted_at, classified_at, created_at, updated_at
	          FROM projects WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ExtractionStatus != "" {
		query += fmt.Sprintf(` AND extraction_status = $%d`, argIdx)
		args = append(args, string(filter.ExtractionStatus))
		argIdx++
	}
	if filter.ClassificationStatus != "" {
		query += fmt.Sprintf(` AND classification_status = $%d`, argIdx)
		args = append(args, string(filter.ClassificationStatus))
		argIdx++
	}
	if filter.Symbol != "" {
		query += fmt.Sprintf(` AND symbol = $%d`, argIdx)
		args = append(args, filter.Symbol)
		argIdx++
	}
	if filter.Tier > 0 {
		query += fmt.Sprintf(` AND final_tier = $%d`, argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) ClaimPhase(ctx context.Context, projectID string, phase model.Phase) (bool, error) {
	col := phaseColumn(phase)
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE projects SET %s = $1, updated_at = $2 WHERE id = $3 AND %s IN ($4, $5)`, col, col),
		string(model.PhaseInProgress), time.Now().UTC(), projectID,
		string(model.PhaseNotStarted), string(model.PhaseFailed),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: claim %s for %s", phase, projectID)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) SetPhaseStatus(ctx context.Context, projectID string, phase model.Phase, status model.PhaseStatus) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE projects SET %s = $1, updated_at = $2 WHERE id = $3`, phaseColumn(phase)),
		string(status), time.Now().UTC(), projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set %s status for %s", phase, projectID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", projectID)
	}
	return nil
}

func (s *PostgresStore) SaveExtraction(ctx context.Context, projectID string, res ExtractionResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin extraction tx")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	// Supersede: any prior extraction output for this project is replaced,
	// never merged.
	if _, err := tx.Exec(ctx, `DELETE FROM signals WHERE project_id = $1`, projectID); err != nil {
		return eris.Wrap(err, "postgres: delete prior signals")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM red_flags WHERE project_id = $1`, projectID); err != nil {
		return eris.Wrap(err, "postgres: delete prior red flags")
	}

	signalRows := make([][]any, len(res.Signals))
	for i, sig := range res.Signals {
		createdAt := sig.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		signalRows[i] = []any{sig.ID, projectID, sig.Description, string(sig.Category), sig.Location, sig.SourceText, sig.SimilarTo, createdAt}
	}
	if _, err := db.CopyFrom(ctx, tx, "signals",
		[]string{"id", "project_id", "description", "category", "location", "source_text", "similar_to", "created_at"},
		signalRows); err != nil {
		return eris.Wrap(err, "postgres: copy signals")
	}

	flagRows := make([][]any, len(res.RedFlags))
	for i, rf := range res.RedFlags {
		createdAt := rf.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		flagRows[i] = []any{rf.ID, projectID, string(rf.Severity), rf.Description, rf.Evidence, rf.Location, createdAt}
	}
	if _, err := db.CopyFrom(ctx, tx, "red_flags",
		[]string{"id", "project_id", "severity", "description", "evidence", "location", "created_at"},
		flagRows); err != nil {
		return eris.Wrap(err, "postgres: copy red flags")
	}

	mainClaim, evidenceClaims, err := marshalClaims(res)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE projects
		 SET extraction_status = $1, website_status = $2, project_type = $3,
		     content = $4, content_strategy = $5, content_reduced = $6,
		     main_claim = $7, evidence_claims = $8,
		     extracted_at = $9, updated_at = $9
		 WHERE id = $10`,
		string(model.PhaseCompleted), string(res.WebsiteStatus), string(res.ProjectType),
		res.Content, string(res.ContentStrategy), res.ContentReduced,
		mainClaim, evidenceClaims,
		now, projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save extraction %s", projectID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", projectID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit extraction tx")
}

func (s *PostgresStore) SaveClassification(ctx context.Context, tc *model.TierComparison) error {
	data, err := json.Marshal(tc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal comparison")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin classification tx")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO tier_comparisons (project_id, data, final_tier, final_score, compared_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (project_id) DO UPDATE SET data = $2, final_tier = $3, final_score = $4, compared_at = $5`,
		tc.ProjectID, data, tc.FinalTier, tc.FinalScore, tc.ComparedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert comparison")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE projects
		 SET classification_status = $1, final_tier = $2, final_score = $3, classified_at = $4, updated_at = $4
		 WHERE id = $5`,
		string(model.PhaseCompleted), tc.FinalTier, tc.FinalScore, now, tc.ProjectID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save classification %s", tc.ProjectID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", tc.ProjectID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit classification tx")
}

func (s *PostgresStore) GetSignals(ctx context.Context, projectID string) ([]model.Signal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, description, category, location, source_text, similar_to, created_at
		 FROM signals WHERE project_id = $1 ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get signals")
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		var sig model.Signal
		var location, sourceText, similarTo *string
		if err := rows.Scan(&sig.ID, &sig.ProjectID, &sig.Description, &sig.Category, &location, &sourceText, &similarTo, &sig.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		sig.Location = deref(location)
		sig.SourceText = deref(sourceText)
		sig.SimilarTo = deref(similarTo)
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "postgres: get signals iterate")
}

func (s *PostgresStore) GetRedFlags(ctx context.Context, projectID string) ([]model.RedFlag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, severity, description, evidence, location, created_at
		 FROM red_flags WHERE project_id = $1 ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get red flags")
	}
	defer rows.Close()

	var flags []model.RedFlag
	for rows.Next() {
		var rf model.RedFlag
		var evidence, location *string
		if err := rows.Scan(&rf.ID, &rf.ProjectID, &rf.Severity, &rf.Description, &evidence, &location, &rf.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan red flag")
		}
		rf.Evidence = deref(evidence)
		rf.Location = deref(location)
		flags = append(flags, rf)
	}
	return flags, eris.Wrap(rows.Err(), "postgres: get red flags iterate")
}

func (s *PostgresStore) GetClaims(ctx context.Context, projectID string) (*model.Claim, []model.Claim, error) {
	var mainRaw, evidenceRaw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT main_claim, evidence_claims FROM projects WHERE id = $1`,
		projectID,
	).Scan(&mainRaw, &evidenceRaw)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: get claims %s", projectID)
	}

	var mainClaim *model.Claim
	if len(mainRaw) > 0 {
		mainClaim = &model.Claim{}
		if err := json.Unmarshal(mainRaw, mainClaim); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: unmarshal main claim")
		}
	}
	var evidence []model.Claim
	if len(evidenceRaw) > 0 {
		if err := json.Unmarshal(evidenceRaw, &evidence); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: unmarshal evidence claims")
		}
	}
	return mainClaim, evidence, nil
}

func (s *PostgresStore) GetComparison(ctx context.Context, projectID string) (*model.TierComparison, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM tier_comparisons WHERE project_id = $1`,
		projectID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get comparison")
	}

	var tc model.TierComparison
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal comparison")
	}
	return &tc, nil
}

func (s *PostgresStore) ListBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tier, category, benchmark_set, claim, rationale, active, source, created_at, updated_at
		 FROM benchmarks ORDER BY tier, category, claim`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list benchmarks")
	}
	defer rows.Close()

	var benchmarks []model.Benchmark
	for rows.Next() {
		var b model.Benchmark
		var rationale, source *string
		if err := rows.Scan(&b.ID, &b.Tier, &b.Category, &b.Set, &b.Claim, &rationale, &b.Active, &source, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan benchmark")
		}
		b.Rationale = deref(rationale)
		b.Source = deref(source)
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, eris.Wrap(rows.Err(), "postgres: list benchmarks iterate")
}

func (s *PostgresStore) UpsertBenchmarks(ctx context.Context, benchmarks []model.Benchmark) (int, error) {
	if len(benchmarks) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(benchmarks))
	for i, b := range benchmarks {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		createdAt := b.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		rows[i] = []any{b.ID, b.Tier, string(b.Category), string(b.Set), b.Claim, b.Rationale, b.Active, b.Source, createdAt, now}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "benchmarks",
		Columns:      []string{"id", "tier", "category", "benchmark_set", "claim", "rationale", "active", "source", "created_at", "updated_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"tier", "category", "benchmark_set", "claim", "rationale", "active", "source", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert benchmarks")
	}
	return int(n), nil
}

func (s *PostgresStore) GetCachedContent(ctx context.Context, url string) (*model.FetchResult, error) {
	var res model.FetchResult
	var strategy, finalURL *string
	err := s.pool.QueryRow(ctx,
		`SELECT content, strategy, original_bytes, final_url FROM content_cache
		 WHERE url_hash = $1 AND expires_at > now()`,
		HashURL(url),
	).Scan(&res.Content, &strategy, &res.OriginalBytes, &finalURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached content")
	}
	res.Strategy = model.FetchStrategy(deref(strategy))
	res.FinalURL = deref(finalURL)
	return &res, nil
}

func (s *PostgresStore) SetCachedContent(ctx context.Context, url string, res *model.FetchResult, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO content_cache (id, url_hash, final_url, strategy, content, original_bytes, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (url_hash) DO UPDATE SET final_url = $3, strategy = $4, content = $5, original_bytes = $6, fetched_at = $7, expires_at = $8`,
		id, HashURL(url), res.FinalURL, string(res.Strategy), res.Content, res.OriginalBytes, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set cached content")
}

func (s *PostgresStore) DeleteExpiredContent(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM content_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired content")
	}
	return int(tag.RowsAffected()), nil
}

// helpers

type pgScannable interface {
	Scan(dest ...any) error
}

func scanProject(row pgScannable) (*model.Project, error) {
	var p model.Project
	var whitepaperURL, contractAddress, websiteStatus, projectType, content, contentStrategy *string
	var finalTier *int
	var finalScore *float64

	err := row.Scan(&p.ID, &p.Symbol, &p.WebsiteURL, &whitepaperURL, &contractAddress,
		&p.ExtractionStatus, &p.ClassificationStatus,
		&websiteStatus, &projectType, &content, &contentStrategy, &p.ContentReduced,
		&finalTier, &finalScore, &p.ExtractedAt, &p.ClassifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.WhitepaperURL = deref(whitepaperURL)
	p.ContractAddress = deref(contractAddress)
	p.WebsiteStatus = model.WebsiteStatus(deref(websiteStatus))
	p.ProjectType = model.ProjectType(deref(projectType))
	p.Content = deref(content)
	p.ContentStrategy = deref(contentStrategy)
	if finalTier != nil {
		p.FinalTier = *finalTier
	}
	if finalScore != nil {
		p.FinalScore = *finalScore
	}
	return &p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
