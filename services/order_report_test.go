package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOrderReport(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBundleService(db, testOperations)

	created, err := svc.CreateOrderWithBundles(context.Background(), OrderInput{OrderNumber: "PO-55", TotalPieces: 1119, BundleCount: 12, Brand: "Acme"})
	require.NoError(t, err)
	order, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteOrderReport(&buf, order))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}
