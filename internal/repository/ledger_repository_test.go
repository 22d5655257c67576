package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/enum"
	"github.com/customeros/invoicestack/internal/ledger"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/repository/testhelper"
)

func TestLedgerRepository_ClaimTwiceIsAlreadyRecorded(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	err := repo.Claim(ctx, &models.LedgerEntry{UserID: "user-1", ProviderMessageID: "msg-1", Subject: "Invoice 42"})
	require.NoError(t, err)

	err = repo.Claim(ctx, &models.LedgerEntry{UserID: "user-1", ProviderMessageID: "msg-1"})
	assert.ErrorIs(t, err, invoicestack_errors.ErrAlreadyRecorded)

	// same message id for another user is a different key
	err = repo.Claim(ctx, &models.LedgerEntry{UserID: "user-2", ProviderMessageID: "msg-1"})
	assert.NoError(t, err)

	entry, err := repo.Get(ctx, "user-1", "msg-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, enum.LedgerStatusPending, entry.Status)
	assert.Equal(t, "Invoice 42", entry.Subject)
}

func TestLedgerRepository_GetUnknown(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewLedgerRepository(db)

	entry, err := repo.Get(context.Background(), "user-1", "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLedgerRepository_TransitionKeepsFirstLink(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry := &models.LedgerEntry{UserID: "user-1", ProviderMessageID: "msg-1"}
	require.NoError(t, repo.Claim(ctx, entry))

	entry.Attachments = []string{"a.pdf", "b.pdf"}
	require.NoError(t, repo.Transition(ctx, entry, ledger.ProcessedOutcome("inv_first")))
	require.NoError(t, repo.Transition(ctx, entry, ledger.ProcessedOutcome("inv_second")))

	stored, err := repo.Get(ctx, "user-1", "msg-1")
	require.NoError(t, err)
	assert.Equal(t, enum.LedgerStatusProcessed, stored.Status)
	require.NotNil(t, stored.LinkedInvoiceID)
	assert.Equal(t, "inv_first", *stored.LinkedInvoiceID)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, []string(stored.Attachments))

	err = repo.Transition(ctx, entry, ledger.RejectedOutcome("not an invoice"))
	assert.ErrorIs(t, err, invoicestack_errors.ErrInvalidTransition)
}

func TestLedgerRepository_TransitionRejectedStoresReason(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry := &models.LedgerEntry{UserID: "user-1", ProviderMessageID: "msg-1"}
	require.NoError(t, repo.Claim(ctx, entry))
	require.NoError(t, repo.Transition(ctx, entry, ledger.RejectedOutcome("bank statement")))

	stored, err := repo.Get(ctx, "user-1", "msg-1")
	require.NoError(t, err)
	assert.Equal(t, enum.LedgerStatusRejected, stored.Status)
	assert.Nil(t, stored.LinkedInvoiceID)
	require.NotNil(t, stored.ReasonText)
	assert.Equal(t, "bank statement", *stored.ReasonText)
}

func TestLedgerRepository_TransitionUnclaimed(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewLedgerRepository(db)

	err := repo.Transition(context.Background(), &models.LedgerEntry{UserID: "user-1", ProviderMessageID: "msg-9"}, ledger.ErroredOutcome("boom"))
	assert.ErrorIs(t, err, invoicestack_errors.ErrInvalidTransition)
}

func TestLedgerRepository_ListByUser(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, repo.Claim(ctx, &models.LedgerEntry{UserID: "user-1", ProviderMessageID: id}))
	}
	require.NoError(t, repo.Claim(ctx, &models.LedgerEntry{UserID: "user-2", ProviderMessageID: "m1"}))

	entries, total, err := repo.ListByUser(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, entries, 2)
}
