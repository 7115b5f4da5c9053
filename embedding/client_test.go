package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/kbingest/ai"
	"github.com/poiesic/kbingest/ai/mock"
	"github.com/poiesic/kbingest/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

func newTestClient(t *testing.T, tr ai.Transport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithDimension(testDim),
		WithBackoff(time.Millisecond),
		WithPoolSize(4),
	}, opts...)
	c, err := NewClient(tr, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(mock.NewTransport(768))
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, DefaultMaxInputChars, c.maxInputChars)
	assert.Equal(t, DefaultMaxAttempts, c.maxAttempts)
	assert.Equal(t, DefaultBackoff, c.backoff)
	assert.Equal(t, DefaultDimension, c.Dimension())
	assert.Equal(t, DefaultMaxHalvings, c.maxHalvings)
	assert.Equal(t, DefaultMinHalvingLength, c.minHalvingLength)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrTransportRequired)

	_, err = NewClient(mock.NewTransport(4), WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewClient(mock.NewTransport(4), WithDimension(0))
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestEmbed_Success(t *testing.T) {
	tr := mock.NewTransport(testDim)
	c := newTestClient(t, tr)

	r := c.Embed(context.Background(), "  iPhone 17\u200b Pro  Max ")
	require.NoError(t, r.Err)
	assert.False(t, r.Degraded)
	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, mock.Vector("iPhone 17 Pro Max", testDim), r.Vector)
	assert.Equal(t, []string{"iPhone 17 Pro Max"}, tr.Texts())
}

func TestEmbed_TruncatesToCap(t *testing.T) {
	tr := mock.NewTransport(testDim)
	c := newTestClient(t, tr)

	c.Embed(context.Background(), strings.Repeat("发", 800))
	require.Len(t, tr.Texts(), 1)
	assert.Equal(t, strings.Repeat("发", 500), tr.Texts()[0])
}

func TestEmbed_ServerErrorsHalveInput(t *testing.T) {
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailFirst(2, testDim, &ai.StatusError{Code: 500}))
	c := newTestClient(t, tr)

	text := strings.Repeat("a", 600)
	r := c.Embed(context.Background(), text)

	require.NoError(t, r.Err)
	assert.False(t, r.Degraded)
	assert.Equal(t, 2, r.Halvings)
	assert.Equal(t, 1, r.Attempts, "halving does not consume a try")

	texts := tr.Texts()
	require.Len(t, texts, 3)
	assert.Len(t, texts[0], 500)
	assert.Len(t, texts[1], 250)
	assert.Len(t, texts[2], 125)
	assert.True(t, strings.HasPrefix(texts[0], texts[2]))
	assert.Equal(t, mock.Vector(texts[2], testDim), r.Vector)
}

func TestEmbed_HalvingIsBounded(t *testing.T) {
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailWhen(func(string) bool { return true }, testDim, &ai.StatusError{Code: 500}))
	c := newTestClient(t, tr)

	r := c.Embed(context.Background(), strings.Repeat("b", 500))

	// 500 -> 250 -> 125 -> 62 -> 31; 15 would fall below the floor
	assert.True(t, r.Degraded)
	assert.Equal(t, 4, r.Halvings)
	assert.Equal(t, 3, r.Attempts)
	assert.Equal(t, 7, tr.CallCount())
	assert.Equal(t, make([]float32, testDim), r.Vector)
}

func TestEmbed_MaxHalvings(t *testing.T) {
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailWhen(func(string) bool { return true }, testDim, &ai.StatusError{Code: 503}))
	c := newTestClient(t, tr, WithMaxHalvings(1))

	r := c.Embed(context.Background(), strings.Repeat("b", 500))
	assert.True(t, r.Degraded)
	assert.Equal(t, 1, r.Halvings)
	assert.Equal(t, 4, tr.CallCount())
}

func TestEmbed_OtherErrorsConsumeTries(t *testing.T) {
	boom := errors.New("boom")
	tr := mock.NewTransport(testDim).WithEmbedFunc(mock.FailFirst(2, testDim, boom))
	c := newTestClient(t, tr)

	r := c.Embed(context.Background(), "退货政策是什么")
	require.NoError(t, r.Err)
	assert.False(t, r.Degraded)
	assert.Equal(t, 3, r.Attempts)
	assert.Equal(t, 0, r.Halvings)

	// the text is not mutated on non-5xx failures
	assert.Equal(t, []string{"退货政策是什么", "退货政策是什么", "退货政策是什么"}, tr.Texts())
}

func TestEmbed_ClientErrorDoesNotHalve(t *testing.T) {
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailWhen(func(string) bool { return true }, testDim, &ai.StatusError{Code: 400}))
	c := newTestClient(t, tr)

	r := c.Embed(context.Background(), strings.Repeat("c", 100))
	assert.True(t, r.Degraded)
	assert.Equal(t, 0, r.Halvings)
	assert.Equal(t, 3, tr.CallCount())

	var se *ai.StatusError
	require.ErrorAs(t, r.Err, &se)
	assert.Equal(t, 400, se.Code)
}

func TestEmbed_DimensionMismatchDegrades(t *testing.T) {
	tr := mock.NewTransport(testDim / 2)
	c := newTestClient(t, tr)

	r := c.Embed(context.Background(), "x")
	assert.True(t, r.Degraded)
	assert.ErrorIs(t, r.Err, ErrDimensionMismatch)
	assert.Len(t, r.Vector, testDim)
}

func TestEmbed_Unreachable(t *testing.T) {
	unreachable := fmt.Errorf("%w: connection refused", ai.ErrUnreachable)
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailWhen(func(string) bool { return true }, testDim, unreachable))
	c := newTestClient(t, tr)

	r := c.Embed(context.Background(), "x")
	assert.True(t, r.Degraded)
	assert.True(t, r.Unreachable)
}

func TestEmbed_CanceledDuringBackoff(t *testing.T) {
	boom := errors.New("boom")
	tr := mock.NewTransport(testDim).WithEmbedFunc(mock.FailFirst(10, testDim, boom))
	c := newTestClient(t, tr, WithBackoff(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := c.Embed(ctx, "x")
	assert.False(t, r.Degraded)
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
	assert.Equal(t, 1, tr.CallCount())
}

func TestEmbedBatch_OneFailureAmongTen(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	tr := mock.NewTransport(testDim).WithEmbedFunc(
		mock.FailWhen(func(text string) bool { return text == "chunk 6" }, testDim, errors.New("bad chunk")))
	c := newTestClient(t, tr)

	results, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i, r := range results {
		require.Len(t, r.Vector, testDim)
		if i == 6 {
			assert.True(t, r.Degraded)
			assert.Equal(t, make([]float32, testDim), r.Vector)
			continue
		}
		assert.False(t, r.Degraded, "chunk %d", i)
		assert.Equal(t, mock.Vector(texts[i], testDim), r.Vector, "chunk %d out of order", i)
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	c := newTestClient(t, mock.NewTransport(testDim))

	results, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEmbedBatch_Canceled(t *testing.T) {
	c := newTestClient(t, mock.NewTransport(testDim))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.EmbedBatch(ctx, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedBatch_Progress(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
	)
	c := newTestClient(t, mock.NewTransport(testDim), WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, total)
		calls = append(calls, done)
	}))

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestEmbedDocumentsAndQuery(t *testing.T) {
	c := newTestClient(t, mock.NewTransport(testDim))

	vectors, err := c.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, mock.Vector("a", testDim), vectors[0])
	assert.Equal(t, mock.Vector("b", testDim), vectors[1])

	vec, err := c.EmbedQuery(context.Background(), "什么时候发货")
	require.NoError(t, err)
	assert.Equal(t, mock.Vector("什么时候发货", testDim), vec)
}

func TestEmbedQuery_DegradedReturnsZeroVector(t *testing.T) {
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailWhen(func(string) bool { return true }, testDim, errors.New("boom")))
	c := newTestClient(t, tr, WithMaxAttempts(1))

	vec, err := c.EmbedQuery(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, testDim), vec)
}

func TestClient_Metrics(t *testing.T) {
	m := metrics.New()
	tr := mock.NewTransport(testDim).
		WithEmbedFunc(mock.FailFirst(1, testDim, &ai.StatusError{Code: 500}))
	c := newTestClient(t, tr, WithMetrics(m))

	c.Embed(context.Background(), strings.Repeat("m", 100))

	halvings, err := testutil.GatherAndCount(m.Registry(), "kbingest_embedding_halvings_total")
	require.NoError(t, err)
	assert.Equal(t, 1, halvings)
	n, err := testutil.GatherAndCount(m.Registry(), "kbingest_embedding_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per outcome")
}

func TestClient_Ping(t *testing.T) {
	tr := mock.NewTransport(testDim)
	c := newTestClient(t, tr)
	assert.NoError(t, c.Ping(context.Background()))

	tr.PingErr = ai.ErrUnreachable
	assert.ErrorIs(t, c.Ping(context.Background()), ai.ErrUnreachable)
}
