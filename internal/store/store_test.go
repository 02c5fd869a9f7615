// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redact-qc/internal/pii"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedBatch(t *testing.T, s *Store, docs ...string) (*Batch, []Document) {
	t.Helper()
	b := &Batch{Name: "test-batch", SourcePath: "/case/files"}
	require.NoError(t, s.CreateBatch(b))

	inventory := make([]Document, 0, len(docs))
	for _, name := range docs {
		inventory = append(inventory, Document{
			Filename: name,
			Filepath: "/case/files/" + name,
		})
	}
	require.NoError(t, s.InsertDocuments(b.ID, inventory))

	got, err := s.GetBatch(b.ID)
	require.NoError(t, err)
	return got, inventory
}

func TestMigrateSeedsCategories(t *testing.T) {
	s := newTestStore(t)

	cats, err := s.ListCategories()
	require.NoError(t, err)
	require.Len(t, cats, len(pii.Categories))

	byType := make(map[string]PIICategory)
	for _, c := range cats {
		byType[c.PIIType] = c
	}
	assert.Equal(t, 5, byType[pii.TypeUSSSN].Severity)
	assert.Equal(t, 1, byType[pii.TypeDateTime].Severity)
	assert.Equal(t, 4, byType[pii.TypePerson].Severity)
}

func TestCreateBatchAssignsIdentity(t *testing.T) {
	s := newTestStore(t)

	b := &Batch{Name: "n", SourcePath: "/p"}
	require.NoError(t, s.CreateBatch(b))

	assert.Len(t, b.ID, 32)
	assert.Equal(t, BatchPending, b.Status)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestInsertDocumentsSetsTotals(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf", "b.pdf", "c.pdf")

	assert.Equal(t, 3, b.TotalDocs)
	assert.Equal(t, 0, b.ProcessedDocs)
	assert.Equal(t, 0, b.DocsWithFindings)
}

func TestClaimNextPendingHandsOutEachDocumentOnce(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "b.pdf", "a.pdf")

	first, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "a.pdf", first.Filename)

	second, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "b.pdf", second.Filename)

	third, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	assert.Nil(t, third)
}

func TestReleaseClaimsMakesDocumentsClaimableAgain(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)

	s.ReleaseClaims([]string{doc.ID})

	again, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, doc.ID, again.ID)
}

func TestRecordDocumentResultUpdatesCounters(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf", "b.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)

	findings := []Finding{
		{PIIType: pii.TypeUSSSN, Confidence: 0.85, PageNumber: 1, CharOffset: 10, CharLength: 11, ContextSnippet: "SSN context"},
		{PIIType: pii.TypeEmailAddress, Confidence: 0.9, PageNumber: 2, CharOffset: 5, CharLength: 15, ContextSnippet: "email context"},
	}
	require.NoError(t, s.RecordDocumentResult(doc.ID, 3, DocCompleted, findings))

	got, err := s.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, DocCompleted, got.Status)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, 2, got.FindingCount)
	require.NotNil(t, got.ProcessedAt)

	batch, err := s.GetBatch(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.TotalDocs)
	assert.Equal(t, 1, batch.ProcessedDocs)
	assert.Equal(t, 1, batch.DocsWithFindings)
}

func TestRecordDocumentResultIsIdempotentOnReprocess(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)

	first := []Finding{
		{PIIType: pii.TypePhoneNumber, Confidence: 0.7, PageNumber: 1, CharOffset: 0, CharLength: 12},
		{PIIType: pii.TypeUSSSN, Confidence: 0.85, PageNumber: 1, CharOffset: 40, CharLength: 11},
	}
	require.NoError(t, s.RecordDocumentResult(doc.ID, 2, DocCompleted, first))

	second := []Finding{
		{PIIType: pii.TypeUSSSN, Confidence: 0.85, PageNumber: 1, CharOffset: 40, CharLength: 11},
	}
	require.NoError(t, s.RecordDocumentResult(doc.ID, 2, DocCompleted, second))

	page, err := s.ListFindings(doc.ID, FindingFilter{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, pii.TypeUSSSN, page.Items[0].PIIType)

	got, err := s.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FindingCount)
}

func TestRecordDocumentResultRejectsFindingsOnError(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)

	err = s.RecordDocumentResult(doc.ID, 0, DocError, []Finding{{PIIType: pii.TypeUSSSN}})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.RecordDocumentResult(doc.ID, 0, DocError, nil))
	got, err := s.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, DocError, got.Status)
}

func TestRecordDocumentResultUnknownDocument(t *testing.T) {
	s := newTestStore(t)
	err := s.RecordDocumentResult("ffffffffffffffffffffffffffffffff", 1, DocCompleted, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetDocumentsReturnsErrorsToPending(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf", "b.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NoError(t, s.RecordDocumentResult(doc.ID, 0, DocError, nil))

	require.NoError(t, s.ResetDocuments(b.ID))

	pending, err := s.PendingDocuments(b.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, d := range pending {
		assert.Equal(t, DocPending, d.Status)
	}
}

func TestDeleteBatchCascades(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NoError(t, s.RecordDocumentResult(doc.ID, 1, DocCompleted, []Finding{
		{PIIType: pii.TypeEmailAddress, Confidence: 0.9, PageNumber: 1},
	}))

	require.NoError(t, s.DeleteBatch(b.ID))

	_, err = s.GetBatch(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDocument(doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := s.GlobalStats()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFindings)
}

func TestListDocumentsFiltersAndSorts(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "clean.pdf", "dirty.pdf")

	var dirty, clean *Document
	for {
		doc, err := s.ClaimNextPending(b.ID)
		require.NoError(t, err)
		if doc == nil {
			break
		}
		if doc.Filename == "dirty.pdf" {
			dirty = doc
		} else {
			clean = doc
		}
	}
	require.NotNil(t, dirty)
	require.NotNil(t, clean)

	require.NoError(t, s.RecordDocumentResult(clean.ID, 1, DocCompleted, nil))
	require.NoError(t, s.RecordDocumentResult(dirty.ID, 2, DocCompleted, []Finding{
		{PIIType: pii.TypeUSSSN, Confidence: 0.9, PageNumber: 1},
		{PIIType: pii.TypeCreditCard, Confidence: 0.6, PageNumber: 2},
	}))

	hasFindings := true
	page, err := s.ListDocuments(b.ID, DocumentFilter{HasFindings: &hasFindings}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "dirty.pdf", page.Items[0].Filename)

	page, err = s.ListDocuments(b.ID, DocumentFilter{PIIType: pii.TypeCreditCard}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "dirty.pdf", page.Items[0].Filename)

	minConf := 0.95
	page, err = s.ListDocuments(b.ID, DocumentFilter{MinConfidence: &minConf}, Pagination{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = s.ListDocuments(b.ID, DocumentFilter{SortBy: "finding_count", SortOrder: "desc"}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "dirty.pdf", page.Items[0].Filename)

	// Unknown sort keys fall back to filename ascending.
	page, err = s.ListDocuments(b.ID, DocumentFilter{SortBy: "evil; DROP TABLE"}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "clean.pdf", page.Items[0].Filename)
}

func TestListDocumentsPagination(t *testing.T) {
	s := newTestStore(t)
	names := make([]string, 7)
	for i := range names {
		names[i] = string(rune('a'+i)) + ".pdf"
	}
	b, _ := seedBatch(t, s, names...)

	page, err := s.ListDocuments(b.ID, DocumentFilter{}, Pagination{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "d.pdf", page.Items[0].Filename)

	page, err = s.ListDocuments(b.ID, DocumentFilter{}, Pagination{PageSize: 9999})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)
}

func TestListDocumentsUnknownBatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ListDocuments("ffffffffffffffffffffffffffffffff", DocumentFilter{}, Pagination{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFindingsReadingOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf")

	doc, err := s.ClaimNextPending(b.ID)
	require.NoError(t, err)
	require.NoError(t, s.RecordDocumentResult(doc.ID, 3, DocCompleted, []Finding{
		{PIIType: pii.TypeEmailAddress, Confidence: 0.9, PageNumber: 2, CharOffset: 5},
		{PIIType: pii.TypeUSSSN, Confidence: 0.85, PageNumber: 1, CharOffset: 40},
		{PIIType: pii.TypePhoneNumber, Confidence: 0.5, PageNumber: 1, CharOffset: 10},
	}))

	page, err := s.ListFindings(doc.ID, FindingFilter{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, pii.TypePhoneNumber, page.Items[0].PIIType)
	assert.Equal(t, pii.TypeUSSSN, page.Items[1].PIIType)
	assert.Equal(t, pii.TypeEmailAddress, page.Items[2].PIIType)

	minConf := 0.8
	page, err = s.ListFindings(doc.ID, FindingFilter{MinConfidence: &minConf}, Pagination{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestGlobalStatsAndDistribution(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf", "b.pdf")

	var docs []*Document
	for {
		doc, err := s.ClaimNextPending(b.ID)
		require.NoError(t, err)
		if doc == nil {
			break
		}
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)

	require.NoError(t, s.RecordDocumentResult(docs[0].ID, 1, DocCompleted, []Finding{
		{PIIType: pii.TypeUSSSN, Confidence: 0.8, PageNumber: 1},
		{PIIType: pii.TypeUSSSN, Confidence: 0.9, PageNumber: 1, CharOffset: 30},
		{PIIType: pii.TypeEmailAddress, Confidence: 0.6, PageNumber: 1, CharOffset: 60},
	}))
	require.NoError(t, s.RecordDocumentResult(docs[1].ID, 1, DocCompleted, nil))

	stats, err := s.GlobalStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalBatches)
	assert.Equal(t, int64(2), stats.TotalDocuments)
	assert.Equal(t, int64(3), stats.TotalFindings)
	assert.Equal(t, int64(1), stats.DocsWithFindings)

	dist, err := s.PIITypeDistribution("")
	require.NoError(t, err)
	require.Len(t, dist, 2)
	assert.Equal(t, pii.TypeUSSSN, dist[0].PIIType)
	assert.Equal(t, int64(2), dist[0].Count)
	assert.InDelta(t, 0.85, dist[0].AvgConfidence, 1e-9)
}

func TestFindingsForBatchJoinsFilenames(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "z.pdf", "a.pdf")

	for {
		doc, err := s.ClaimNextPending(b.ID)
		require.NoError(t, err)
		if doc == nil {
			break
		}
		require.NoError(t, s.RecordDocumentResult(doc.ID, 1, DocCompleted, []Finding{
			{PIIType: pii.TypePhoneNumber, Confidence: 0.7, PageNumber: 1},
		}))
	}

	rows, err := s.FindingsForBatch(b.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.pdf", rows[0].Filename)
	assert.Equal(t, "z.pdf", rows[1].Filename)
}

func TestSetBatchStatus(t *testing.T) {
	s := newTestStore(t)
	b, _ := seedBatch(t, s, "a.pdf")

	require.NoError(t, s.SetBatchStatus(b.ID, BatchProcessing))
	got, err := s.GetBatch(b.ID)
	require.NoError(t, err)
	assert.Equal(t, BatchProcessing, got.Status)

	assert.ErrorIs(t, s.SetBatchStatus("ffffffffffffffffffffffffffffffff", BatchCompleted), ErrNotFound)
}
