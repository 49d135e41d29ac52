package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestVoteNewVote(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT upvotes, downvotes FROM tickets WHERE id=$1 FOR UPDATE`)).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT vote_type FROM ticket_votes WHERE ticket_id=$1 AND user_id=$2`)).
		WithArgs("t1", "u1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ticket_votes (ticket_id, user_id, vote_type) VALUES ($1,$2,$3)`)).
		WithArgs("t1", "u1", domain.VoteUp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET upvotes=$1, downvotes=$2, updated_at=NOW() WHERE id=$3`)).
		WithArgs(3, 1, "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	up, down, err := repo.Vote(context.Background(), "t1", "u1", domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 3, up)
	assert.Equal(t, 1, down)
}

func TestVoteSameDirectionIsDuplicate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT upvotes, downvotes FROM tickets WHERE id=$1 FOR UPDATE`)).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT vote_type FROM ticket_votes WHERE ticket_id=$1 AND user_id=$2`)).
		WithArgs("t1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"vote_type"}).AddRow(domain.VoteUp))
	mock.ExpectRollback()

	_, _, err := repo.Vote(context.Background(), "t1", "u1", domain.VoteUp)
	assert.ErrorIs(t, err, ErrDuplicateVote)
}

func TestVoteSwitchMovesOneEachWay(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT upvotes, downvotes FROM tickets WHERE id=$1 FOR UPDATE`)).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT vote_type FROM ticket_votes WHERE ticket_id=$1 AND user_id=$2`)).
		WithArgs("t1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"vote_type"}).AddRow(domain.VoteDown))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE ticket_votes SET vote_type=$1, voted_at=NOW() WHERE ticket_id=$2 AND user_id=$3`)).
		WithArgs(domain.VoteUp, "t1", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET upvotes=$1, downvotes=$2, updated_at=NOW() WHERE id=$3`)).
		WithArgs(3, 0, "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	up, down, err := repo.Vote(context.Background(), "t1", "u1", domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 3, up)
	assert.Equal(t, 0, down)
}

func TestIncrementViews(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tickets SET views = views + 1 WHERE id=$1`)).
		WithArgs("t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.IncrementViews(context.Background(), "t1"))
}

func TestCountForUserCoversBothRoles(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tickets WHERE created_by=$1 OR assigned_to=$1`)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAssigneeStatusCounts(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) FROM tickets WHERE assigned_to=$1 GROUP BY status`)).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(domain.TicketStatusInProgress, 2).
			AddRow(domain.TicketStatusResolved, 5))

	counts, err := repo.AssigneeStatusCounts(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.TicketStatusInProgress])
	assert.Equal(t, 5, counts[domain.TicketStatusResolved])
}

func TestStatusCountsScopedByCreator(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTicketRepository(mock)

	creator := "u1"
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) FROM tickets WHERE created_by=$1 GROUP BY status`)).
		WithArgs(creator).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(domain.TicketStatusOpen, 3).
			AddRow(domain.TicketStatusClosed, 1))

	counts, err := repo.StatusCounts(context.Background(), &creator)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.TicketStatusOpen])
	assert.Equal(t, 1, counts[domain.TicketStatusClosed])
	assert.Equal(t, 0, counts[domain.TicketStatusResolved])
}
