package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/insight"
	"github.com/ignite/adlens/internal/report"
	"github.com/ignite/adlens/internal/service/campaign"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/ignite/adlens/internal/service/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

var ts = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestUserRepoFindOrCreate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ana@example.com", "Ana", "https://pic").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "picture", "created_at"}).
			AddRow("u1", "ana@example.com", "Ana", "https://pic", ts))

	u, err := NewUserRepo(db).FindOrCreate(context.Background(), "Ana@Example.com", "Ana", "https://pic")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepoNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewWorkspaceRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM workspaces WHERE id").
		WithArgs("ws1", "other-user").
		WillReturnError(sql.ErrNoRows)
	_, err := repo.Get(context.Background(), "other-user", "ws1")
	assert.ErrorIs(t, err, workspace.ErrNotFound)

	mock.ExpectExec("DELETE FROM workspaces").
		WithArgs("ws1", "other-user").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Delete(context.Background(), "other-user", "ws1")
	assert.ErrorIs(t, err, workspace.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepoList(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	cols := []string{"id", "owner_id", "name", "currency", "timezone", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM workspaces WHERE owner_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("ws1", "u1", "Acme", "USD", "UTC", ts, ts).
			AddRow("ws2", "u1", "Beta", "EUR", "Europe/Berlin", ts, ts))

	list, err := NewWorkspaceRepo(db).List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Europe/Berlin", list[1].Timezone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var connCols = []string{
	"id", "workspace_id", "platform", "status", "account_id", "account_name",
	"access_token", "refresh_token", "token_expiry", "scopes", "last_synced_at", "last_error",
	"created_at", "updated_at",
}

func TestConnectionRepoScan(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	exp := ts.Add(time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM platform_connections WHERE id").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(connCols).
			AddRow("c1", "ws1", "google_ads", "connected", "123", "Acme Ads",
				"at", "rt", exp, "{openid,email}", nil, "", ts, ts))

	c, err := NewConnectionRepo(db).GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformGoogleAds, c.Platform)
	assert.Equal(t, domain.ConnectionConnected, c.Status)
	require.NotNil(t, c.TokenExpiry)
	assert.True(t, exp.Equal(*c.TokenExpiry))
	assert.Nil(t, c.LastSyncedAt)
	assert.Equal(t, []string{"openid", "email"}, c.Scopes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepoNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewConnectionRepo(db)

	mock.ExpectQuery("FROM platform_connections").
		WithArgs("ws1", "facebook").
		WillReturnError(sql.ErrNoRows)
	_, err := repo.FindByPlatform(context.Background(), "ws1", domain.PlatformFacebook)
	assert.ErrorIs(t, err, connection.ErrNotFound)

	mock.ExpectExec("UPDATE platform_connections SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	err = repo.Save(context.Background(), &domain.PlatformConnection{ID: "missing"}, domain.ConnectionPending)
	assert.ErrorIs(t, err, connection.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepoGuardedWrites(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewConnectionRepo(db)
	ctx := context.Background()

	c := &domain.PlatformConnection{ID: "c1", Status: domain.ConnectionConnected, UpdatedAt: ts}

	// a disconnect landed first: the sync outcome must not be written
	mock.ExpectExec("UPDATE platform_connections SET (.+) WHERE id = \\$5 AND status = 'connected'").
		WithArgs(domain.ConnectionConnected, sqlmock.AnyArg(), "", ts, "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	assert.ErrorIs(t, repo.SaveSyncState(ctx, c), connection.ErrStateChanged)

	mock.ExpectExec("UPDATE platform_connections SET (.+) refresh_token = \\$9").
		WithArgs(domain.ConnectionConnected, "", "", nil, sqlmock.AnyArg(), "", ts, "c1", "old-refresh").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SaveTokens(ctx, c, "old-refresh"))

	mock.ExpectExec("UPDATE platform_connections SET (.+) WHERE id = \\$11 AND status = \\$12").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Save(ctx, c, domain.ConnectionConnected))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepoAuthNonce(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewConnectionRepo(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE platform_connections SET auth_nonce = \\$1").
		WithArgs("n1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetAuthNonce(ctx, "c1", "n1"))

	mock.ExpectExec("SET auth_nonce = '' (.+) auth_nonce = \\$2").
		WithArgs("c1", "n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.ConsumeAuthNonce(ctx, "c1", "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("SET auth_nonce = ''").
		WithArgs("c1", "n1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.ConsumeAuthNonce(ctx, "c1", "n1")
	require.NoError(t, err)
	assert.False(t, ok, "second use of the same nonce")

	ok, err = repo.ConsumeAuthNonce(ctx, "c1", "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepoListDue(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("status = 'connected' AND \\(last_synced_at IS NULL").
		WithArgs(ts, 25).
		WillReturnRows(sqlmock.NewRows(connCols).
			AddRow("c1", "ws1", "facebook", "connected", "act", "Acme",
				"at", "", nil, "{}", ts.Add(-2*time.Hour), "", ts, ts))

	due, err := NewConnectionRepo(db).ListDue(context.Background(), ts, 25)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.NotNil(t, due[0].LastSyncedAt)
	assert.Nil(t, due[0].TokenExpiry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO campaigns (.+) ON CONFLICT \\(connection_id, external_id\\)").
		WithArgs(sqlmock.AnyArg(), "ws1", "c1", "facebook", "123", "Spring", "ACTIVE", "SALES", 25.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	id, err := NewCampaignRepo(db).Upsert(context.Background(), &domain.Campaign{
		WorkspaceID: "ws1", ConnectionID: "c1", Platform: domain.PlatformFacebook,
		ExternalID: "123", Name: "Spring", Status: "ACTIVE", Objective: "SALES", DailyBudget: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoListFilters(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM campaigns WHERE workspace_id = \\$1 AND platform = \\$2 AND status = \\$3 AND name ILIKE \\$4").
		WithArgs("ws1", "facebook", "ACTIVE", "%spring%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("ORDER BY platform, name LIMIT \\$5 OFFSET \\$6").
		WithArgs("ws1", "facebook", "ACTIVE", "%spring%", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "workspace_id", "connection_id", "platform", "external_id", "name",
			"status", "objective", "daily_budget", "created_at", "updated_at",
		}).AddRow("k3", "ws1", "c1", "facebook", "3", "Spring 3", "ACTIVE", "", "12.50", ts, ts))

	list, total, err := NewCampaignRepo(db).List(context.Background(), "ws1", campaign.ListFilter{
		Platform: domain.PlatformFacebook, Status: "ACTIVE", Search: "spring", Limit: 2, Offset: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, 12.5, list[0].DailyBudget)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoGetNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("FROM campaigns WHERE id").WillReturnError(sql.ErrNoRows)
	_, err := NewCampaignRepo(db).Get(context.Background(), "ws1", "nope")
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestMetricRepoUpsertDaily(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO campaign_metrics")
	prep.ExpectExec().
		WithArgs("k1", "2024-03-02", int64(1000), int64(20), 40.0, 2.0, 80.0, int64(900), 2.0, 2.0, "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("k1", "2024-03-03", int64(10), int64(1), 0.0, 0.0, 0.0, int64(0), 10.0, 0.0, `{"calls":3}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewMetricRepo(db).UpsertDaily(context.Background(), []domain.CampaignMetric{
		{CampaignID: "k1", Date: day, Impressions: 1000, Clicks: 20, Spend: 40, Conversions: 2, Revenue: 80, Reach: 900, CTR: 2, ROAS: 2},
		{CampaignID: "k1", Date: day.AddDate(0, 0, 1), Impressions: 10, Clicks: 1, CTR: 10, Extra: map[string]float64{"calls": 3}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricRepoUpsertDailyRollsBack(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO campaign_metrics").
		ExpectExec().WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := NewMetricRepo(db).UpsertDaily(context.Background(), []domain.CampaignMetric{
		{CampaignID: "k1", Date: ts},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricRepoRowsForRange(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	r := domain.NewDateRange(ts, ts.AddDate(0, 0, 6))
	mock.ExpectQuery("JOIN campaigns c ON c.id = m.campaign_id (.+) AND c.platform = ANY\\(\\$4\\)").
		WithArgs("ws1", "2024-03-01", "2024-03-07", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "platform", "date", "impressions", "clicks", "spend", "conversions", "revenue", "reach",
		}).AddRow("k1", "Spring", "google_ads", ts, 100, 5, "12.34", "1", "40.00", 0))

	rows, err := NewMetricRepo(db).RowsForRange(context.Background(), "ws1", r, []domain.Platform{domain.PlatformGoogleAds})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12.34, rows[0].Spend)
	assert.Equal(t, domain.PlatformGoogleAds, rows[0].Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricRepoCampaignRowsDecodesExtra(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	r := domain.NewDateRange(ts, ts)
	mock.ExpectQuery("FROM campaign_metrics m").
		WithArgs("ws1", "k1", "2024-03-01", "2024-03-01").
		WillReturnRows(sqlmock.NewRows([]string{
			"campaign_id", "date", "impressions", "clicks", "spend", "conversions",
			"revenue", "reach", "ctr", "roas", "extra",
		}).
			AddRow("k1", ts, 10, 1, "0", "0", "0", 0, "10", "0", []byte(`{"position":4.2}`)).
			AddRow("k1", ts.AddDate(0, 0, 1), 0, 0, "0", "0", "0", 0, "0", "0", []byte(`{}`)))

	rows, err := NewMetricRepo(db).CampaignRows(context.Background(), "ws1", "k1", r)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4.2, rows[0].Extra["position"])
	assert.Nil(t, rows[1].Extra)
}

func TestInsightRepoReplaceNew(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM insights WHERE workspace_id = \\$1 AND status = 'new'").
		WithArgs("ws1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO insights").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO insights").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	items := []domain.Insight{
		{Title: "Raise budget", Category: domain.InsightBudget, Priority: domain.PriorityHigh, Status: domain.InsightNew, CreatedAt: ts},
		{Title: "Refresh creative", Category: domain.InsightCreative, Priority: domain.PriorityLow, Status: domain.InsightNew, CreatedAt: ts},
	}
	require.NoError(t, NewInsightRepo(db).ReplaceNew(context.Background(), "ws1", items))
	assert.NotEmpty(t, items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightRepoUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE insights SET status").
		WithArgs("applied", "i1", "ws1").
		WillReturnError(sql.ErrNoRows)
	_, err := NewInsightRepo(db).UpdateStatus(context.Background(), "ws1", "i1", domain.InsightApplied)
	assert.ErrorIs(t, err, insight.ErrNotFound)
}

func TestReportRepoCreateWithBlobRollsBack(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO report_blobs").WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	err := NewReportRepo(db).CreateWithBlob(context.Background(), &domain.Report{
		ID: "r1", WorkspaceID: "ws1", Format: domain.FormatPDF, From: ts, To: ts, CreatedAt: ts,
	}, []byte("%PDF"))
	assert.ErrorContains(t, err, "value too long")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepo(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewReportRepo(db)

	mock.ExpectExec("INSERT INTO reports").
		WithArgs("r1", "ws1", "March", "pdf", "2024-03-01", "2024-03-31", "ready", "", int64(2048), nil, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.Create(context.Background(), &domain.Report{
		ID: "r1", WorkspaceID: "ws1", Name: "March", Format: domain.FormatPDF,
		From: ts, To: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status: domain.ReportReady, SizeBytes: 2048, CreatedAt: ts,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reports").
		WithArgs("r3", "ws1", "April", "csv", "2024-03-01", "2024-03-31", "ready", "", int64(4), "u1", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO report_blobs").
		WithArgs("r3", []byte("a,b\n")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.CreateWithBlob(context.Background(), &domain.Report{
		ID: "r3", WorkspaceID: "ws1", Name: "April", Format: domain.FormatCSV,
		From: ts, To: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status: domain.ReportReady, SizeBytes: 4, CreatedBy: "u1", CreatedAt: ts,
	}, []byte("a,b\n")))

	mock.ExpectQuery("SELECT data FROM report_blobs").
		WithArgs("r2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Blob(context.Background(), "r2")
	assert.ErrorIs(t, err, report.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
