package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/storage"
)

func TestCommandsHaveUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Commands {
		assert.False(t, seen[c.Name()], "duplicate command %q", c.Name())
		seen[c.Name()] = true
		assert.NotEmpty(t, c.Synopsis())
		assert.True(t, strings.HasPrefix(c.Usage(), "ledgerctl "+c.Name()), c.Name())
	}
}

func TestWriteChecks(t *testing.T) {
	checks := []storage.BalanceCheck{
		{AccountID: "a1", Owner: "alice", Name: "Checking", Currency: "EUR",
			Stored: decimal.RequireFromString("10.00"), Expected: decimal.RequireFromString("10.00")},
		{AccountID: "a2", Owner: "alice", Name: "Cash", Currency: "EUR",
			Stored: decimal.RequireFromString("12.50"), Expected: decimal.RequireFromString("10.00")},
	}

	var buf bytes.Buffer
	assert.Equal(t, 1, writeChecks(&buf, checks, false))
	out := buf.String()
	assert.Contains(t, out, "a2")
	assert.Contains(t, out, "2.50")
	assert.NotContains(t, out, "a1")

	buf.Reset()
	assert.Equal(t, 1, writeChecks(&buf, checks, true))
	assert.Contains(t, buf.String(), "a1")
}

func TestWriteAudit(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []core.AuditEntry{
		{ID: "e1", Owner: "alice", TransactionID: "tx-1", Action: ledger.AuditSkippedReversal,
			Detail: "account B no longer exists; correction of 40 not applied", CreatedAt: at},
		{ID: "e2", Owner: "alice", TransactionID: "tx-2", Action: "other", Detail: "x", CreatedAt: at},
	}

	var buf bytes.Buffer
	assert.Equal(t, 2, writeAudit(&buf, entries, ""))
	assert.Contains(t, buf.String(), "2024-03-01T09:00:00Z")
	assert.Contains(t, buf.String(), "tx-2")

	buf.Reset()
	assert.Equal(t, 1, writeAudit(&buf, entries, ledger.AuditSkippedReversal))
	assert.Contains(t, buf.String(), "account B no longer exists")
	assert.NotContains(t, buf.String(), "tx-2")
}
