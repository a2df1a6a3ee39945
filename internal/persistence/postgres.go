package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq" // Postgres driver

	"newswire/internal/core"
	"newswire/internal/logger"
)

const (
	articleRetention     = 30 * 24 * time.Hour
	interactionRetention = 180 * 24 * time.Hour
)

// PostgresStore implements Store on PostgreSQL. The ETag protocol maps onto
// a bigint version column: a guarded replace is an UPDATE with the expected
// version in the WHERE clause.
type PostgresStore struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewPostgresStore opens a connection pool against the given connection
// string. opTimeout bounds every individual store operation.
func NewPostgresStore(connStr string, opTimeout time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if opTimeout <= 0 {
		opTimeout = 15 * time.Second
	}
	return &PostgresStore{db: db, opTimeout: opTimeout}, nil
}

// DB exposes the underlying handle for migrations.
func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// ---------------------------------------------------------------------------
// Articles

func (s *PostgresStore) UpsertArticle(ctx context.Context, a *core.Article) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entitiesJSON, err := json.Marshal(a.Entities)
	if err != nil {
		return false, fmt.Errorf("failed to marshal entities: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingFetchedAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT fetched_at FROM raw_articles WHERE id = $1`, a.ID,
	).Scan(&existingFetchedAt)

	created := false
	switch {
	case err == sql.ErrNoRows:
		created = true
		_, err = tx.ExecContext(ctx, `
			INSERT INTO raw_articles
			(id, source, source_tier, url, title, description, content,
			 published_at, fetched_at, updated_at, category, language,
			 entities, fingerprint, published_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			a.ID, a.Source, a.SourceTier, a.URL, a.Title, a.Description,
			a.Content, nullTime(a.PublishedAt), a.FetchedAt, a.UpdatedAt,
			a.Category, a.Language, string(entitiesJSON), a.Fingerprint,
			a.PublishedAt.Format("2006-01-02"),
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert article: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("failed to check article: %w", err)
	default:
		// fetched_at is immutable after creation; everything else follows
		// the latest fetch.
		a.FetchedAt = existingFetchedAt
		_, err = tx.ExecContext(ctx, `
			UPDATE raw_articles SET
				source = $2, source_tier = $3, url = $4, title = $5,
				description = $6, content = $7, published_at = $8,
				updated_at = $9, category = $10, language = $11,
				entities = $12, fingerprint = $13
			WHERE id = $1`,
			a.ID, a.Source, a.SourceTier, a.URL, a.Title, a.Description,
			a.Content, nullTime(a.PublishedAt), a.UpdatedAt, a.Category,
			a.Language, string(entitiesJSON), a.Fingerprint,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update article: %w", err)
		}
	}

	if err := logChange(ctx, tx, ContainerArticles, a.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit article upsert: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, id string) (*core.Article, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, source_tier, url, title, description, content,
		       published_at, fetched_at, updated_at, category, language,
		       entities, fingerprint
		FROM raw_articles WHERE id = $1`, id)
	return scanArticle(row)
}

func (s *PostgresStore) GetArticles(ctx context.Context, ids []string) ([]core.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// One query per ID keeps unknown IDs non-fatal; membership lists are
	// small.
	articles := make([]core.Article, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetArticle(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, nil
}

// ---------------------------------------------------------------------------
// Clusters

func (s *PostgresStore) CreateCluster(ctx context.Context, c *core.Cluster) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	summaryJSON, articlesJSON, entitiesJSON, err := marshalClusterFields(c)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO story_clusters
		(id, category, title, summary, source_articles, status,
		 verification_level, first_seen, last_updated, update_count,
		 title_checked, entities, fingerprint, etag)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1)`,
		c.ID, c.Category, c.Title, summaryJSON, articlesJSON, string(c.Status),
		c.VerificationLevel, c.FirstSeen, c.LastUpdated, c.UpdateCount,
		c.TitleCheckedCount, entitiesJSON, c.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cluster: %w", err)
	}
	if err := logChange(ctx, tx, ContainerClusters, c.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cluster create: %w", err)
	}
	c.ETag = "1"
	return nil
}

func (s *PostgresStore) ReadCluster(ctx context.Context, id, category string) (*core.Cluster, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, category, title, summary, source_articles, status,
		       verification_level, first_seen, last_updated, update_count,
		       title_checked, entities, fingerprint, etag
		FROM story_clusters WHERE id = $1`
	args := []any{id}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	return scanCluster(s.db.QueryRowContext(ctx, query, args...))
}

func (s *PostgresStore) ReplaceCluster(ctx context.Context, c *core.Cluster) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	expected, err := strconv.ParseInt(c.ETag, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid etag %q: %w", c.ETag, err)
	}

	summaryJSON, articlesJSON, entitiesJSON, err := marshalClusterFields(c)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var newETag int64
	err = tx.QueryRowContext(ctx, `
		UPDATE story_clusters SET
			title = $3, summary = $4, source_articles = $5, status = $6,
			verification_level = $7, last_updated = $8, update_count = $9,
			title_checked = $10, entities = $11, fingerprint = $12,
			etag = etag + 1
		WHERE id = $1 AND etag = $2
		RETURNING etag`,
		c.ID, expected, c.Title, summaryJSON, articlesJSON, string(c.Status),
		c.VerificationLevel, c.LastUpdated, c.UpdateCount, c.TitleCheckedCount,
		entitiesJSON, c.Fingerprint,
	).Scan(&newETag)
	if err == sql.ErrNoRows {
		// Distinguish a missing document from a stale etag.
		var exists bool
		if checkErr := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM story_clusters WHERE id = $1)`, c.ID,
		).Scan(&exists); checkErr == nil && !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to replace cluster: %w", err)
	}

	if err := logChange(ctx, tx, ContainerClusters, c.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cluster replace: %w", err)
	}
	c.ETag = strconv.FormatInt(newETag, 10)
	return nil
}

func (s *PostgresStore) QueryRecentClusters(ctx context.Context, category string, since time.Time, limit int) ([]core.Cluster, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, category, title, summary, source_articles, status,
		       verification_level, first_seen, last_updated, update_count,
		       title_checked, entities, fingerprint, etag
		FROM story_clusters WHERE last_updated >= $1`
	args := []any{since}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += fmt.Sprintf(` LIMIT %d`, limit)

	return s.queryClusters(ctx, query, args...)
}

func (s *PostgresStore) QueryByFingerprint(ctx context.Context, fp, category string, since time.Time) ([]core.Cluster, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.queryClusters(ctx, `
		SELECT id, category, title, summary, source_articles, status,
		       verification_level, first_seen, last_updated, update_count,
		       title_checked, entities, fingerprint, etag
		FROM story_clusters
		WHERE fingerprint = $1 AND category = $2 AND last_updated >= $3`,
		fp, category, since)
}

func (s *PostgresStore) QueryByStatus(ctx context.Context, status core.Status, limit int) ([]core.Cluster, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.queryClusters(ctx, fmt.Sprintf(`
		SELECT id, category, title, summary, source_articles, status,
		       verification_level, first_seen, last_updated, update_count,
		       title_checked, entities, fingerprint, etag
		FROM story_clusters WHERE status = $1 LIMIT %d`, limit),
		string(status))
}

func (s *PostgresStore) QueryMissingSummary(ctx context.Context, since time.Time, limit int) ([]core.Cluster, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.queryClusters(ctx, fmt.Sprintf(`
		SELECT id, category, title, summary, source_articles, status,
		       verification_level, first_seen, last_updated, update_count,
		       title_checked, entities, fingerprint, etag
		FROM story_clusters
		WHERE summary IS NULL AND status <> $1 AND first_seen >= $2
		LIMIT %d`, limit),
		string(core.StatusMonitoring), since)
}

func (s *PostgresStore) SearchClusters(ctx context.Context, q string, limit int) ([]core.Cluster, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pattern := "%" + q + "%"
	return s.queryClusters(ctx, fmt.Sprintf(`
		SELECT id, category, title, summary, source_articles, status,
		       verification_level, first_seen, last_updated, update_count,
		       title_checked, entities, fingerprint, etag
		FROM story_clusters
		WHERE title ILIKE $1 OR COALESCE(summary, '') ILIKE $1
		LIMIT %d`, limit),
		pattern)
}

func (s *PostgresStore) queryClusters(ctx context.Context, query string, args ...any) ([]core.Cluster, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cluster query failed: %w", err)
	}
	defer rows.Close()

	var clusters []core.Cluster
	for rows.Next() {
		c, err := scanClusterRow(rows)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, *c)
	}
	return clusters, rows.Err()
}

// ---------------------------------------------------------------------------
// Change feed

func logChange(ctx context.Context, tx *sql.Tx, container, docID string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO change_log (container, doc_id) VALUES ($1, $2)`,
		container, docID,
	); err != nil {
		return fmt.Errorf("failed to append change log: %w", err)
	}
	return nil
}

func (s *PostgresStore) SubscribeChangeFeed(ctx context.Context, container, lease string, batchSize int, pollInterval time.Duration, handler ChangeFeedHandler) error {
	log := logger.Get()
	leaseID := container + "/" + lease

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delivered, err := s.dispatchOnce(ctx, container, leaseID, batchSize, handler)
		if err != nil && ctx.Err() == nil {
			// The cursor did not advance; the same batch is redelivered on
			// the next cycle.
			log.Warn("change feed dispatch failed", "lease", leaseID, "error", err.Error())
		}

		if delivered > 0 && err == nil {
			continue // drain the backlog before sleeping
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (s *PostgresStore) dispatchOnce(ctx context.Context, container, leaseID string, batchSize int, handler ChangeFeedHandler) (int, error) {
	cursor, err := s.readCursor(ctx, leaseID)
	if err != nil {
		return 0, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	rows, err := s.db.QueryContext(opCtx, `
		SELECT seq, doc_id FROM change_log
		WHERE container = $1 AND seq > $2
		ORDER BY seq ASC LIMIT $3`,
		container, cursor, batchSize)
	if err != nil {
		cancel()
		return 0, fmt.Errorf("failed to read change log: %w", err)
	}

	var (
		ids     []string
		seen    = map[string]struct{}{}
		highest = cursor
	)
	for rows.Next() {
		var seq int64
		var docID string
		if err := rows.Scan(&seq, &docID); err != nil {
			rows.Close()
			cancel()
			return 0, err
		}
		highest = seq
		if _, dup := seen[docID]; !dup {
			seen[docID] = struct{}{}
			ids = append(ids, docID)
		}
	}
	err = rows.Err()
	rows.Close()
	cancel()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := handler(ctx, ids); err != nil {
		return len(ids), err
	}
	return len(ids), s.commitCursor(ctx, leaseID, highest)
}

func (s *PostgresStore) readCursor(ctx context.Context, leaseID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cursor int64
	err := s.db.QueryRowContext(ctx,
		`SELECT cursor FROM leases WHERE id = $1`, leaseID,
	).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read lease: %w", err)
	}
	return cursor, nil
}

func (s *PostgresStore) commitCursor(ctx context.Context, leaseID string, cursor int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leases (id, cursor, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET cursor = $2, updated_at = $3`,
		leaseID, cursor, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to commit lease cursor: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Feed state, batch jobs

func (s *PostgresStore) UpsertFeedState(ctx context.Context, st *core.FeedPollState) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feed_state
		(feed_url, source, last_polled_at, last_outcome, failure_count, quarantined_until)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (feed_url) DO UPDATE SET
			source = $2, last_polled_at = $3, last_outcome = $4,
			failure_count = $5, quarantined_until = $6`,
		st.FeedURL, st.Source, st.LastPolledAt, st.LastOutcome,
		st.FailureCount, nullTime(st.QuarantinedUntil))
	if err != nil {
		return fmt.Errorf("failed to upsert feed state: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFeedStates(ctx context.Context) ([]core.FeedPollState, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT feed_url, source, last_polled_at, last_outcome, failure_count, quarantined_until
		FROM feed_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed states: %w", err)
	}
	defer rows.Close()

	var states []core.FeedPollState
	for rows.Next() {
		var st core.FeedPollState
		var quarantined sql.NullTime
		if err := rows.Scan(&st.FeedURL, &st.Source, &st.LastPolledAt,
			&st.LastOutcome, &st.FailureCount, &quarantined); err != nil {
			return nil, err
		}
		if quarantined.Valid {
			st.QuarantinedUntil = quarantined.Time
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func (s *PostgresStore) UpsertBatchJob(ctx context.Context, j *core.BatchJob) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	idsJSON, err := json.Marshal(j.ClusterIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal cluster IDs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO batch_tracking
		(batch_id, status, cluster_ids, submitted_at, ended_at,
		 request_count, succeeded_count, errored_count, total_cost_usd)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (batch_id) DO UPDATE SET
			status = $2, ended_at = $5, request_count = $6,
			succeeded_count = $7, errored_count = $8, total_cost_usd = $9`,
		j.BatchID, string(j.Status), string(idsJSON), j.SubmittedAt,
		nullTime(j.EndedAt), j.RequestCount, j.SucceededCount,
		j.ErroredCount, j.TotalCostUSD)
	if err != nil {
		return fmt.Errorf("failed to upsert batch job: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOpenBatchJobs(ctx context.Context) ([]core.BatchJob, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, status, cluster_ids, submitted_at, ended_at,
		       request_count, succeeded_count, errored_count, total_cost_usd
		FROM batch_tracking WHERE status IN ($1, $2)`,
		string(core.BatchSubmitted), string(core.BatchInProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch jobs: %w", err)
	}
	defer rows.Close()

	var jobs []core.BatchJob
	for rows.Next() {
		var j core.BatchJob
		var status, idsJSON string
		var ended sql.NullTime
		if err := rows.Scan(&j.BatchID, &status, &idsJSON, &j.SubmittedAt,
			&ended, &j.RequestCount, &j.SucceededCount, &j.ErroredCount,
			&j.TotalCostUSD); err != nil {
			return nil, err
		}
		j.Status = core.BatchJobStatus(status)
		if ended.Valid {
			j.EndedAt = ended.Time
		}
		if err := json.Unmarshal([]byte(idsJSON), &j.ClusterIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cluster IDs: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ---------------------------------------------------------------------------
// Users

func (s *PostgresStore) GetUserProfile(ctx context.Context, id string) (*core.UserProfile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p core.UserProfile
	var categoriesJSON, tokensJSON string
	var lastFeed sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, categories, device_tokens, last_feed_at, created_at
		FROM user_profiles WHERE id = $1`, id,
	).Scan(&p.ID, &categoriesJSON, &tokensJSON, &lastFeed, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user profile: %w", err)
	}
	if lastFeed.Valid {
		p.LastFeedAt = lastFeed.Time
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &p.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	if err := json.Unmarshal([]byte(tokensJSON), &p.DeviceTokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device tokens: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpsertUserProfile(ctx context.Context, p *core.UserProfile) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	categoriesJSON, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	tokensJSON, err := json.Marshal(p.DeviceTokens)
	if err != nil {
		return fmt.Errorf("failed to marshal device tokens: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (id, categories, device_tokens, last_feed_at, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			categories = $2, device_tokens = $3, last_feed_at = $4`,
		p.ID, string(categoriesJSON), string(tokensJSON),
		nullTime(p.LastFeedAt), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordInteraction(ctx context.Context, i *core.UserInteraction) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_interactions (id, user_id, cluster_id, kind, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		i.ID, i.UserID, i.ClusterID, i.Kind, i.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Retention

func (s *PostgresStore) Cleanup(ctx context.Context, now time.Time) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM raw_articles WHERE fetched_at < $1`,
		now.Add(-articleRetention)); err != nil {
		return fmt.Errorf("failed to clean old articles: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_interactions WHERE created_at < $1`,
		now.Add(-interactionRetention)); err != nil {
		return fmt.Errorf("failed to clean old interactions: %w", err)
	}
	// Trim the change log behind every committed cursor.
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM change_log
		WHERE seq <= (SELECT COALESCE(MIN(cursor), 0) FROM leases)`); err != nil {
		return fmt.Errorf("failed to trim change log: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var a core.Article
	var published sql.NullTime
	var entitiesJSON string

	err := row.Scan(&a.ID, &a.Source, &a.SourceTier, &a.URL, &a.Title,
		&a.Description, &a.Content, &published, &a.FetchedAt, &a.UpdatedAt,
		&a.Category, &a.Language, &entitiesJSON, &a.Fingerprint)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	if published.Valid {
		a.PublishedAt = published.Time
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &a.Entities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entities: %w", err)
	}
	return &a, nil
}

func scanCluster(row rowScanner) (*core.Cluster, error) {
	return scanClusterRow(row)
}

func scanClusterRow(row rowScanner) (*core.Cluster, error) {
	var c core.Cluster
	var status string
	var summaryJSON sql.NullString
	var articlesJSON, entitiesJSON string
	var etag int64

	err := row.Scan(&c.ID, &c.Category, &c.Title, &summaryJSON,
		&articlesJSON, &status, &c.VerificationLevel, &c.FirstSeen,
		&c.LastUpdated, &c.UpdateCount, &c.TitleCheckedCount, &entitiesJSON,
		&c.Fingerprint, &etag)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cluster: %w", err)
	}

	c.Status = core.Status(status)
	c.ETag = strconv.FormatInt(etag, 10)
	if summaryJSON.Valid && summaryJSON.String != "" {
		var sv core.SummaryVersion
		if err := json.Unmarshal([]byte(summaryJSON.String), &sv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		c.Summary = &sv
	}
	if err := json.Unmarshal([]byte(articlesJSON), &c.SourceArticles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source articles: %w", err)
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &c.Entities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entities: %w", err)
	}
	return &c, nil
}

func marshalClusterFields(c *core.Cluster) (summary any, articles string, entities string, err error) {
	if c.Summary != nil {
		b, err := json.Marshal(c.Summary)
		if err != nil {
			return nil, "", "", fmt.Errorf("failed to marshal summary: %w", err)
		}
		summary = string(b)
	}
	a, err := json.Marshal(c.SourceArticles)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to marshal source articles: %w", err)
	}
	ents := c.Entities
	if ents == nil {
		ents = map[string]int{}
	}
	e, err := json.Marshal(ents)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to marshal entities: %w", err)
	}
	return summary, string(a), string(e), nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
