package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

type LookupRepositoryTestSuite struct {
	suite.Suite
	errUnknown error
	columns    []string
	fetchedAt  time.Time
	mock       sqlmock.Sqlmock
	repo       *LookupRepository
}

func (suite *LookupRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.columns = []string{"id", "url", "platform", "views", "error", "fetched_at"}
	suite.fetchedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *LookupRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	suite.mock = mock
	suite.repo = NewLookupRepository(db)
}

func (suite *LookupRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *LookupRepositoryTestSuite) lookup(views *int64) entity.Lookup {
	return entity.Lookup{
		ID:        "abc123",
		URL:       "https://vk.com/video-1_2",
		Platform:  entity.PlatformVK,
		Views:     views,
		FetchedAt: suite.fetchedAt,
	}
}

func (suite *LookupRepositoryTestSuite) TestSave() {
	views := int64(42)

	suite.Run("id exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO lookups`).
			WithArgs("abc123", "https://vk.com/video-1_2", "vk", int64(42), "", sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		lookup, err := suite.repo.Save(context.Background(), suite.lookup(&views))

		suite.ErrorIs(err, entity.ErrLookupExists)
		suite.Nil(lookup)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`INSERT INTO lookups`).
			WithArgs("abc123", "https://vk.com/video-1_2", "vk", int64(42), "", sqlmock.AnyArg()).
			WillReturnError(suite.errUnknown)

		lookup, err := suite.repo.Save(context.Background(), suite.lookup(&views))

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(lookup)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow("abc123", "https://vk.com/video-1_2", "vk", int64(42), "", suite.fetchedAt)

		suite.mock.ExpectQuery(`INSERT INTO lookups`).
			WithArgs("abc123", "https://vk.com/video-1_2", "vk", int64(42), "", suite.fetchedAt).
			WillReturnRows(rows)

		lookup, err := suite.repo.Save(context.Background(), suite.lookup(&views))

		suite.NoError(err)
		suite.Require().NotNil(lookup)
		suite.Equal("abc123", lookup.ID)
		suite.Equal(entity.PlatformVK, lookup.Platform)
		suite.Equal("42", lookup.ViewsText())
		suite.Equal(suite.fetchedAt, lookup.FetchedAt)
	})

	suite.Run("success without views", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow("abc123", "https://vk.com/video-1_2", "vk", nil, "no view count found", suite.fetchedAt)

		l := suite.lookup(nil)
		l.Error = "no view count found"

		suite.mock.ExpectQuery(`INSERT INTO lookups`).
			WithArgs("abc123", "https://vk.com/video-1_2", "vk", nil, "no view count found", suite.fetchedAt).
			WillReturnRows(rows)

		lookup, err := suite.repo.Save(context.Background(), l)

		suite.NoError(err)
		suite.Require().NotNil(lookup)
		suite.Nil(lookup.Views)
		suite.Equal("no view count found", lookup.Error)
	})
}

func (suite *LookupRepositoryTestSuite) TestRetrieveByID() {
	suite.Run("lookup not found", func() {
		suite.mock.ExpectQuery(`SELECT \* FROM lookups WHERE id = \$1`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		lookup, err := suite.repo.RetrieveByID(context.Background(), "abc123")

		suite.ErrorIs(err, entity.ErrLookupNotFound)
		suite.Nil(lookup)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT \* FROM lookups WHERE id = \$1`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		lookup, err := suite.repo.RetrieveByID(context.Background(), "abc123")

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(lookup)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow("abc123", "https://t.me/durov/1", "telegram", int64(1200), "", suite.fetchedAt)

		suite.mock.ExpectQuery(`SELECT \* FROM lookups WHERE id = \$1`).
			WithArgs("abc123").
			WillReturnRows(rows)

		lookup, err := suite.repo.RetrieveByID(context.Background(), "abc123")

		suite.NoError(err)
		suite.Require().NotNil(lookup)
		suite.Equal(entity.PlatformTelegram, lookup.Platform)
		suite.Equal("1200", lookup.ViewsText())
	})
}

func (suite *LookupRepositoryTestSuite) TestList() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT \* FROM lookups ORDER BY`).
			WithArgs(10).
			WillReturnError(suite.errUnknown)

		lookups, err := suite.repo.List(context.Background(), 10)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(lookups)
	})

	suite.Run("empty", func() {
		suite.mock.ExpectQuery(`SELECT \* FROM lookups ORDER BY`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(suite.columns))

		lookups, err := suite.repo.List(context.Background(), 10)

		suite.NoError(err)
		suite.Empty(lookups)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow("b", "https://t.me/durov/2", "telegram", int64(5), "", suite.fetchedAt).
			AddRow("a", "https://t.me/durov/1", "telegram", nil, "no view count found", suite.fetchedAt.Add(-time.Hour))

		suite.mock.ExpectQuery(`SELECT \* FROM lookups ORDER BY`).
			WithArgs(2).
			WillReturnRows(rows)

		lookups, err := suite.repo.List(context.Background(), 2)

		suite.NoError(err)
		suite.Require().Len(lookups, 2)
		suite.Equal("b", lookups[0].ID)
		suite.Equal("5", lookups[0].ViewsText())
		suite.Equal("a", lookups[1].ID)
		suite.Nil(lookups[1].Views)
	})
}

func TestLookupRepository(t *testing.T) {
	suite.Run(t, new(LookupRepositoryTestSuite))
}
